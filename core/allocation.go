package core

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// minPartitionRows is the smallest partition worth handing to a goroutine.
const minPartitionRows = 256

// Options tune a single allocation run.
type Options struct {
	// Eligibility filters rows on the status column (nil allows every row)
	Eligibility EligibilityPolicy

	// TieBreak orders equally priced bids (empty means discovery order)
	TieBreak TieBreak

	// Workers > 1 partitions the row pass across goroutines
	Workers int

	// Logger receives debug information about column resolution (nil discards)
	Logger *slog.Logger
}

// AllocateRow distributes one row's stock across the bids found on it,
// highest unit price first, crediting ledger with every sale.
//
// Processing flow:
//  1. Normalize the stock value; non-positive stock skips the row
//  2. Apply the eligibility policy to the status cell
//  3. Collect bids whose demand and price are both positive
//  4. Rank bids by price and hand out min(demand, remaining) to each
func AllocateRow(record []string, res *Resolution, opts Options, ledger *Ledger) RowOutcome {
	// Step 1: Stock
	stock := ParseDecimal(cell(record, res.StockIndex))
	if !stock.IsPositive() {
		return RowOutcome{
			Status:         RowNoStock,
			InitialStock:   stock,
			RemainingStock: decimal.Zero,
			Revenue:        decimal.Zero,
		}
	}

	// Step 2: Eligibility
	if res.StatusIndex >= 0 && !RowEligible(opts.Eligibility, cell(record, res.StatusIndex)) {
		return RowOutcome{
			Status:         RowIneligible,
			InitialStock:   stock,
			RemainingStock: decimal.Zero,
			Revenue:        decimal.Zero,
		}
	}

	// Step 3: Bids
	bids := make([]Bid, 0, len(res.Bidders))
	for i, b := range res.Bidders {
		quantity := ParseDecimal(cell(record, b.DemandIndex))
		price := ParseDecimal(cell(record, b.PriceIndex))
		if quantity.IsPositive() && price.IsPositive() {
			bids = append(bids, Bid{Bidder: b.Name, Quantity: quantity, Price: price, order: i})
		}
	}

	outcome := RowOutcome{
		Status:         RowNoBids,
		InitialStock:   stock,
		RemainingStock: stock,
		Revenue:        decimal.Zero,
	}
	if len(bids) == 0 {
		return outcome
	}

	// Step 4: Greedy walk over the ranked bids
	remaining := stock
	for _, bid := range RankBids(bids, opts.TieBreak) {
		if !remaining.IsPositive() {
			break
		}

		assigned := decimal.Min(bid.Quantity, remaining)
		if !assigned.IsPositive() {
			continue
		}

		amount := assigned.Mul(bid.Price)
		ledger.Add(bid.Bidder, amount)
		outcome.Revenue = outcome.Revenue.Add(amount)
		outcome.Lines = append(outcome.Lines, AllocationLine{
			Bidder:   bid.Bidder,
			Quantity: assigned,
			Price:    bid.Price,
			Amount:   amount,
		})
		outcome.Chosen = appendUnique(outcome.Chosen, bid.Bidder)
		remaining = remaining.Sub(assigned)
	}

	outcome.RemainingStock = remaining
	if len(outcome.Lines) > 0 {
		outcome.Status = RowAllocated
	}
	return outcome
}

// Allocate runs AllocateRow over every record of table on a single goroutine.
// The result always has one outcome per record.
func Allocate(table *Table, res *Resolution, opts Options) *Result {
	ledger := NewLedger(res.BidderNames())
	outcomes := make([]RowOutcome, len(table.Records))

	for i, record := range table.Records {
		outcomes[i] = AllocateRow(record, res, opts, ledger)
	}

	return &Result{Outcomes: outcomes, Ledger: ledger}
}

// AllocateParallel splits the records into contiguous partitions, allocates
// them concurrently with private ledgers and reduces the ledgers in partition
// order. Its result is identical to Allocate's and every row is always
// processed.
func AllocateParallel(table *Table, res *Resolution, opts Options) *Result {
	workers := opts.Workers
	n := len(table.Records)
	if workers <= 1 || n < 2*minPartitionRows {
		return Allocate(table, res, opts)
	}

	size := (n + workers - 1) / workers
	if size < minPartitionRows {
		size = minPartitionRows
	}
	partitions := (n + size - 1) / size

	outcomes := make([]RowOutcome, n)
	ledgers := make([]*Ledger, partitions)
	bidders := res.BidderNames()

	var g errgroup.Group
	g.SetLimit(workers)

	for p := 0; p < partitions; p++ {
		start := p * size
		end := min(start+size, n)
		ledgers[p] = NewLedger(bidders)

		g.Go(func() error {
			for i := start; i < end; i++ {
				outcomes[i] = AllocateRow(table.Records[i], res, opts, ledgers[p])
			}
			return nil
		})
	}

	_ = g.Wait()

	ledger := NewLedger(bidders)
	for _, partial := range ledgers {
		ledger.Merge(partial)
	}

	return &Result{Outcomes: outcomes, Ledger: ledger}
}

func cell(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return record[index]
}
