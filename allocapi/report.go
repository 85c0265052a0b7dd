package allocapi

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ReportPayloadVersion is bumped whenever the payload layout changes.
const ReportPayloadVersion = 1

// ReportSummaryEntry is a buyer total as embedded in a signed report.
// Totals are carried as fixed 6-place decimal strings.
type ReportSummaryEntry struct {
	Rank   int    `cbor:"rank" json:"rank"`
	Bidder string `cbor:"bidder" json:"bidder"`
	Total  string `cbor:"total" json:"total"`
}

// ReportPayload is the CBOR document signed by the allocation service.
type ReportPayload struct {
	Version       int                  `cbor:"version" json:"version"`
	RunID         string               `cbor:"run_id" json:"run_id"`
	Timestamp     int64                `cbor:"timestamp" json:"timestamp"` // unix seconds
	RowCount      int                  `cbor:"row_count" json:"row_count"`
	TotalRevenue  string               `cbor:"total_revenue" json:"total_revenue"`
	Summary       []ReportSummaryEntry `cbor:"summary" json:"summary"`
	LedgerHash    string               `cbor:"ledger_hash" json:"ledger_hash"`
	OutcomeHashes []string             `cbor:"outcome_hashes" json:"outcome_hashes"`
	Nonce         string               `cbor:"nonce" json:"nonce"`
}

var reportEncMode = mustReportEncMode()

func mustReportEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor enc mode: %v", err))
	}
	return em
}

// MarshalReportPayload encodes the payload with core deterministic CBOR so
// equal payloads always produce equal bytes.
func MarshalReportPayload(p *ReportPayload) ([]byte, error) {
	data, err := reportEncMode.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode report payload: %w", err)
	}
	return data, nil
}

// UnmarshalReportPayload decodes a payload produced by MarshalReportPayload.
func UnmarshalReportPayload(data []byte) (*ReportPayload, error) {
	var p ReportPayload
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode report payload: %w", err)
	}
	return &p, nil
}
