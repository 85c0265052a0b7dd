package allocapi

import (
	"time"
)

// Message types exchanged with the allocation service.
const (
	TypePing                 = "ping"
	TypePong                 = "pong"
	TypeKeyRequest           = "key_request"
	TypeKeyResponse          = "key_response"
	TypeAllocationRequest    = "allocation_request"
	TypeAllocationResponse   = "allocation_response"
	TypeError                = "error"
	ReportKeyAlgorithm       = "ECDSA-P256"
	ReportSignatureAlgorithm = "ES256"
)

// RequestOptions tunes a single allocation run. Zero values fall back to the
// service configuration.
type RequestOptions struct {
	TieBreak         string   `json:"tie_break,omitempty"`     // "discovery" or "alphabetical"
	StatusPolicy     string   `json:"status_policy,omitempty"` // "off" or "sellable"
	AcceptedStatuses []string `json:"accepted_statuses,omitempty"`
	Workers          int      `json:"workers,omitempty"`
}

// AllocationRequest carries one tabular dataset to the allocation service.
type AllocationRequest struct {
	Type      string         `json:"type"`
	RunID     string         `json:"run_id,omitempty"`
	Columns   []string       `json:"columns"`
	Rows      [][]string     `json:"rows"`
	Options   RequestOptions `json:"options"`
	Timestamp time.Time      `json:"timestamp"`
}

// Allocation is one bidder's share of a row.
type Allocation struct {
	Bidder   string  `json:"bidder"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"`
}

// DetailedRow is the engine outcome for one input row. The *Exact fields and
// Chosen carry the values the signed outcome hash was computed over.
type DetailedRow struct {
	Index          int          `json:"index"`
	Status         string       `json:"status"`
	RemainingStock float64      `json:"remaining_stock"`
	TotalSale      float64      `json:"total_sale"`
	ChosenBuyers   string       `json:"chosen_buyers"`
	Allocations    []Allocation `json:"allocations,omitempty"`

	RemainingStockExact string   `json:"remaining_stock_exact"`
	TotalSaleExact      string   `json:"total_sale_exact"`
	Chosen              []string `json:"chosen,omitempty"`
}

// SummaryRow is one line of the ranked buyer payment table.
type SummaryRow struct {
	Rank         int     `json:"rank"`
	Buyer        string  `json:"buyer"`
	TotalPayable float64 `json:"total_payable"`
}

// ColumnMapping reports how the headers were interpreted.
type ColumnMapping struct {
	StockColumn  string          `json:"stock_column"`
	StatusColumn string          `json:"status_column,omitempty"`
	Bidders      []BidderMapping `json:"bidders"`
	Dropped      []string        `json:"dropped,omitempty"`
}

// BidderMapping binds a bidder root to its demand and price headers.
type BidderMapping struct {
	Name         string `json:"name"`
	DemandColumn string `json:"demand_column"`
	PriceColumn  string `json:"price_column"`
}

// AllocationResponse is returned for every allocation_request.
type AllocationResponse struct {
	Type             string           `json:"type"`
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	RunID            string           `json:"run_id,omitempty"`
	Columns          []string         `json:"columns,omitempty"`
	Mapping          *ColumnMapping   `json:"mapping,omitempty"`
	Detailed         []DetailedRow    `json:"detailed,omitempty"`
	Summary          []SummaryRow     `json:"summary,omitempty"`
	TotalRevenue     float64          `json:"total_revenue"`
	ReportCOSEBase64 ReportCOSEBase64 `json:"report_cose_base64,omitempty"`
	ProcessingTime   int64            `json:"processing_time_ms"`
}

// KeyResponse publishes the key that signs allocation reports.
type KeyResponse struct {
	Type         string `json:"type"`
	KeyAlgorithm string `json:"key_algorithm"`
	SigAlgorithm string `json:"sig_algorithm"`
	KeyID        string `json:"key_id"`
	PublicKey    string `json:"public_key"` // PEM format
}

// ErrorResponse is returned for malformed or unknown requests.
type ErrorResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}
