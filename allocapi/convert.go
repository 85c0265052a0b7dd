package allocapi

import (
	"strings"

	"github.com/cloudx-io/openallocation/core"
)

// TableFromRequest builds the engine input from a request. Rows are copied so
// the caller's slices are never shared with the engine.
func TableFromRequest(req *AllocationRequest) *core.Table {
	columns := make([]string, len(req.Columns))
	copy(columns, req.Columns)

	records := make([][]string, len(req.Rows))
	for i, row := range req.Rows {
		record := make([]string, len(columns))
		copy(record, row)
		records[i] = record
	}
	return &core.Table{Columns: columns, Records: records}
}

// NewDetailedRows converts engine outcomes to their wire form.
func NewDetailedRows(outcomes []core.RowOutcome) []DetailedRow {
	rows := make([]DetailedRow, len(outcomes))
	for i, o := range outcomes {
		row := DetailedRow{
			Index:          i,
			Status:         string(o.Status),
			RemainingStock: core.ToFloat(o.RemainingStock),
			TotalSale:      core.ToFloat(core.RoundMoney(o.Revenue)),
			ChosenBuyers:   strings.Join(o.Chosen, ", "),

			RemainingStockExact: core.FormatHashAmount(o.RemainingStock),
			TotalSaleExact:      core.FormatHashAmount(o.Revenue),
			Chosen:              append([]string(nil), o.Chosen...),
		}
		for _, line := range o.Lines {
			row.Allocations = append(row.Allocations, Allocation{
				Bidder:   line.Bidder,
				Quantity: core.ToFloat(line.Quantity),
				Price:    core.ToFloat(line.Price),
				Amount:   core.ToFloat(core.RoundMoney(line.Amount)),
			})
		}
		rows[i] = row
	}
	return rows
}

// NewSummaryRows converts the ranked buyer list to its wire form.
func NewSummaryRows(entries []core.SummaryEntry) []SummaryRow {
	rows := make([]SummaryRow, len(entries))
	for i, e := range entries {
		rows[i] = SummaryRow{
			Rank:         e.Rank,
			Buyer:        e.Bidder,
			TotalPayable: core.ToFloat(core.RoundMoney(e.Total)),
		}
	}
	return rows
}

// NewColumnMapping describes a resolution for clients.
func NewColumnMapping(res *core.Resolution) *ColumnMapping {
	if res == nil {
		return nil
	}
	m := &ColumnMapping{
		StockColumn:  res.StockColumn,
		StatusColumn: res.StatusColumn,
		Bidders:      make([]BidderMapping, 0, len(res.Bidders)),
		Dropped:      res.Dropped,
	}
	for _, b := range res.Bidders {
		m.Bidders = append(m.Bidders, BidderMapping{
			Name:         b.Name,
			DemandColumn: b.DemandColumn,
			PriceColumn:  b.PriceColumn,
		})
	}
	return m
}

// NewReportSummary converts summary entries into the fixed-precision form
// used inside signed reports.
func NewReportSummary(entries []core.SummaryEntry) []ReportSummaryEntry {
	out := make([]ReportSummaryEntry, len(entries))
	for i, e := range entries {
		out[i] = ReportSummaryEntry{
			Rank:   e.Rank,
			Bidder: e.Bidder,
			Total:  core.FormatHashAmount(e.Total),
		}
	}
	return out
}

// SummaryEntries parses report summary entries back into engine form.
func SummaryEntries(entries []ReportSummaryEntry) ([]core.SummaryEntry, error) {
	out := make([]core.SummaryEntry, len(entries))
	for i, e := range entries {
		total, err := core.ParseHashAmount(e.Total)
		if err != nil {
			return nil, err
		}
		out[i] = core.SummaryEntry{Rank: e.Rank, Bidder: e.Bidder, Total: total}
	}
	return out, nil
}
