package core

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var propertyBidders = []string{"Alpha", "Bravo", "Charlie", "Delta"}

// drawTable builds a table with a stock column and up to four bidders whose
// demand and price cells may be blank, zero or positive.
func drawTable(t *rapid.T, maxRows int) *Table {
	bidders := rapid.IntRange(1, len(propertyBidders)).Draw(t, "bidders")

	columns := []string{"Malzeme", "Stok"}
	for _, name := range propertyBidders[:bidders] {
		columns = append(columns, name+" Adet", name+" Fiyat")
	}

	rows := rapid.IntRange(0, maxRows).Draw(t, "rows")
	records := make([][]string, rows)
	for i := range records {
		record := []string{fmt.Sprintf("P%d", i), strconv.Itoa(rapid.IntRange(-5, 100).Draw(t, "stock"))}
		for range bidders {
			record = append(record,
				drawCell(t, "demand", 50),
				drawCell(t, "price", 200))
		}
		records[i] = record
	}
	return &Table{Columns: columns, Records: records}
}

func drawCell(t *rapid.T, label string, limit int) string {
	if rapid.IntRange(0, 4).Draw(t, label+"_blank") == 0 {
		return ""
	}
	return strconv.Itoa(rapid.IntRange(0, limit).Draw(t, label))
}

func TestProperty_ParseNumberIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.String().Draw(t, "input")

		parsed := ParseNumber(in)
		if again := ParseNumber(FormatNumber(parsed)); again != parsed {
			t.Fatalf("ParseNumber(%q) = %v, reparsed as %v", in, parsed, again)
		}
	})
}

func TestProperty_FormatNumberRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapid.Float64Range(-1e12, 1e12).Draw(t, "f")

		if got := ParseNumber(FormatNumber(f)); got != f {
			t.Fatalf("round trip of %v gave %v", f, got)
		}
	})
}

func TestProperty_AllocationInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		table := drawTable(t, 20)
		res, err := ResolveColumns(table.Columns, DefaultColumnAliases())
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		result := Allocate(table, res, Options{})
		if len(result.Outcomes) != len(table.Records) {
			t.Fatalf("got %d outcomes for %d records", len(result.Outcomes), len(table.Records))
		}

		revenue := decimal.Zero
		for i, outcome := range result.Outcomes {
			if outcome.RemainingStock.IsNegative() {
				t.Fatalf("row %d: negative remaining stock %s", i, outcome.RemainingStock)
			}

			demand := decimal.Zero
			for _, b := range res.Bidders {
				q := ParseDecimal(table.Cell(i, b.DemandIndex))
				p := ParseDecimal(table.Cell(i, b.PriceIndex))
				if q.IsPositive() && p.IsPositive() {
					demand = demand.Add(q)
				}
			}

			assigned := outcome.Assigned()
			switch outcome.Status {
			case RowAllocated, RowNoBids:
				if !outcome.RemainingStock.Equal(outcome.InitialStock.Sub(assigned)) {
					t.Fatalf("row %d: stock not conserved", i)
				}
				// Leftover stock means every valid bid was served in full.
				if outcome.RemainingStock.IsPositive() && !assigned.Equal(demand) {
					t.Fatalf("row %d: %s units left while %s of %s demand served", i, outcome.RemainingStock, assigned, demand)
				}
			default:
				if len(outcome.Lines) != 0 {
					t.Fatalf("row %d: status %s with allocation lines", i, outcome.Status)
				}
			}

			for j := 1; j < len(outcome.Lines); j++ {
				if outcome.Lines[j-1].Price.LessThan(outcome.Lines[j].Price) {
					t.Fatalf("row %d: lines not in descending price order", i)
				}
			}
			revenue = revenue.Add(outcome.Revenue)
		}

		if !result.Ledger.Sum().Equal(revenue) {
			t.Fatalf("ledger sum %s != row revenue %s", result.Ledger.Sum(), revenue)
		}
	})
}

func TestProperty_SummaryRanking(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		table := drawTable(t, 20)
		run, err := Run(table, DefaultColumnAliases(), Options{})
		if err != nil {
			t.Fatalf("run: %v", err)
		}

		total := decimal.Zero
		for i, entry := range run.Summary {
			if entry.Rank != i+1 {
				t.Fatalf("entry %d has rank %d", i, entry.Rank)
			}
			if !entry.Total.IsPositive() {
				t.Fatalf("bidder %s listed with total %s", entry.Bidder, entry.Total)
			}
			if i > 0 && run.Summary[i-1].Total.LessThan(entry.Total) {
				t.Fatalf("summary not sorted at %d", i)
			}
			total = total.Add(entry.Total)
		}

		if !total.Equal(run.Result.TotalRevenue()) {
			t.Fatalf("summary total %s != revenue %s", total, run.Result.TotalRevenue())
		}
	})
}
