package core

import "github.com/shopspring/decimal"

// Table is the tabular dataset handed to the engine by the I/O layer.
// Every record is aligned with Columns; missing cells are empty strings.
type Table struct {
	Columns []string   `json:"columns"`
	Records [][]string `json:"records"`
}

// Cell returns the value at column index col of record i, or "" when the
// index is negative or the record is short.
func (t *Table) Cell(i, col int) string {
	if col < 0 || i < 0 || i >= len(t.Records) {
		return ""
	}
	record := t.Records[i]
	if col >= len(record) {
		return ""
	}
	return record[col]
}

// BidderColumns binds a bidder root to its resolved demand and price columns.
type BidderColumns struct {
	Name         string `json:"name"`
	DemandColumn string `json:"demand_column"`
	DemandIndex  int    `json:"demand_index"`
	PriceColumn  string `json:"price_column"`
	PriceIndex   int    `json:"price_index"`
}

// Bid is a row-scoped offer. It only exists when quantity and price are both positive.
type Bid struct {
	Bidder   string          `json:"bidder"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`

	// order is the bidder's position in the resolved bidder list.
	order int
}

// RowStatus describes how a row was handled by the engine.
type RowStatus string

const (
	RowAllocated  RowStatus = "allocated"
	RowNoBids     RowStatus = "no_bids"
	RowNoStock    RowStatus = "no_stock"
	RowIneligible RowStatus = "ineligible"
)

// AllocationLine records the units one bidder received on one row.
type AllocationLine struct {
	Bidder   string          `json:"bidder"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Amount   decimal.Decimal `json:"amount"`
}

// RowOutcome holds the derived fields the engine adds to a row.
type RowOutcome struct {
	Status         RowStatus        `json:"status"`
	InitialStock   decimal.Decimal  `json:"initial_stock"`
	RemainingStock decimal.Decimal  `json:"remaining_stock"`
	Revenue        decimal.Decimal  `json:"revenue"`
	Chosen         []string         `json:"chosen"`
	Lines          []AllocationLine `json:"lines,omitempty"`
}

// Assigned returns the number of units handed out on the row.
func (o RowOutcome) Assigned() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Quantity)
	}
	return total
}

// SummaryEntry is one line of the ranked buyer payment table.
type SummaryEntry struct {
	Rank   int             `json:"rank"`
	Bidder string          `json:"bidder"`
	Total  decimal.Decimal `json:"total"`
}

// Result contains the complete output of one allocation run.
type Result struct {
	// Outcomes has exactly one entry per input record, in input order
	Outcomes []RowOutcome

	// Ledger accumulates revenue per bidder across all rows
	Ledger *Ledger
}

// TotalRevenue sums the per-row revenue of every outcome.
func (r *Result) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, outcome := range r.Outcomes {
		total = total.Add(outcome.Revenue)
	}
	return total
}
