package core

import "log/slog"

// RunResult bundles everything a caller needs to render both output tables.
type RunResult struct {
	Resolution *Resolution
	Result     *Result
	Summary    []SummaryEntry
}

// Run executes a full allocation: column resolution → allocation → summary.
// Only a column resolution failure aborts the run.
func Run(table *Table, aliases ColumnAliases, opts Options) (*RunResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Step 1: Resolve column roles
	res, err := ResolveColumns(table.Columns, aliases)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved stock column", "column", res.StockColumn, "index", res.StockIndex)
	logger.Debug("discovered bidder roots", "roots", res.Roots)
	for _, b := range res.Bidders {
		logger.Debug("resolved bidder columns", "bidder", b.Name, "demand", b.DemandColumn, "price", b.PriceColumn)
	}
	for _, root := range res.Dropped {
		logger.Debug("bidder dropped: no price column", "bidder", root)
	}

	// Step 2: Allocate rows
	result := AllocateParallel(table, res, opts)

	// Step 3: Rank buyers
	summary := Summarize(result.Ledger)

	return &RunResult{Resolution: res, Result: result, Summary: summary}, nil
}
