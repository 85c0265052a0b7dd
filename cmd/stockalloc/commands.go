package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/config"
	"github.com/cloudx-io/openallocation/core"
	"github.com/cloudx-io/openallocation/logging"
	"github.com/cloudx-io/openallocation/table"
)

// loadConfig reads the config named by --config, or the default file with
// environment fallback, and applies command line overrides.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := ctx.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrEnv("")
	}

	if ctx.Bool("debug") {
		cfg.Observability.Logging.Level = "debug"
	}
	if ctx.IsSet("workers") {
		cfg.Allocation.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("tie-break") {
		cfg.Allocation.TieBreak = ctx.String("tie-break")
	}
	if ctx.IsSet("status-policy") {
		cfg.Allocation.StatusPolicy = ctx.String("status-policy")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(ctx *cli.Context, cfg *config.Config) *slog.Logger {
	return logging.NewLoggerTo(ctx.App.ErrWriter, cfg.Observability.Logging).With("system", "stockalloc")
}

func readTable(ctx *cli.Context) (*core.Table, error) {
	return table.Read(ctx.String("input"), table.ReadOptions{
		HeaderRow: ctx.Int("header-row"),
		Sheet:     ctx.String("sheet"),
	})
}

func outputLabels(cfg *config.Config) table.Labels {
	l := cfg.Output.Labels
	return table.Labels{
		RemainingStock: l.RemainingStock,
		ChosenBuyers:   l.ChosenBuyers,
		TotalSale:      l.TotalSale,
		Rank:           l.Rank,
		Buyer:          l.Buyer,
		TotalPayable:   l.TotalPayable,
	}
}

// allocateAction runs one batch allocation.
//
// Processing flow:
//  1. Load configuration and flag overrides
//  2. Read the input table
//  3. Resolve columns, allocate rows and rank buyers
//  4. Write the output tables
//  5. Print the buyer summary
func allocateAction(ctx *cli.Context) error {
	// Step 1: Configuration
	cfg, err := loadConfig(ctx)
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	logger := newLogger(ctx, cfg)

	opts, err := cfg.Allocation.Options()
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	opts.Logger = logger

	outputPath := ctx.String("output")
	outputExt := strings.ToLower(filepath.Ext(outputPath))
	if outputExt != ".xlsx" && outputExt != ".csv" {
		return cli.Exit(fmt.Sprintf("output must be .xlsx or .csv, got %q", outputPath), exitError)
	}

	// Step 2: Input
	input, err := readTable(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading input: %v", err), exitError)
	}
	logger.Info("input loaded", "file", ctx.String("input"), "rows", len(input.Records), "columns", len(input.Columns))

	// Step 3: Allocation
	run, err := core.Run(input, cfg.ColumnAliases(), opts)
	if err != nil {
		return cli.Exit(resolutionMessage(err), exitError)
	}

	// Step 4: Output
	labels := outputLabels(cfg)
	detailed := table.DetailedSheet(cfg.Output.DetailedSheet, input, run, labels)
	summary := table.SummarySheet(cfg.Output.SummarySheet, run.Summary, labels)

	if outputExt == ".xlsx" {
		err = table.SaveXLSX(outputPath, detailed, summary)
	} else {
		err = writeCSVFile(outputPath, detailed)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("writing %s: %v", outputPath, err), exitError)
	}

	if path := ctx.String("summary-csv"); path != "" {
		if err := writeCSVFile(path, summary); err != nil {
			return cli.Exit(fmt.Sprintf("writing %s: %v", path, err), exitError)
		}
	}

	revenue := run.Result.TotalRevenue()
	logger.Info("allocation complete",
		"rows", len(run.Result.Outcomes),
		"buyers", len(run.Summary),
		"total_revenue", core.RoundMoney(revenue).StringFixed(core.MonetaryPrecision),
		"output", outputPath)

	// Step 5: Summary
	printSummary(ctx.App.Writer, cfg, run)
	return nil
}

// resolutionMessage spells out the aliases tried when the stock column is
// missing.
func resolutionMessage(err error) string {
	var resErr *core.ColumnResolutionError
	if !errors.As(err, &resErr) {
		return fmt.Sprintf("allocation failed: %v", err)
	}
	return fmt.Sprintf("stock column not found; expected one of: %s", strings.Join(resErr.Aliases, ", "))
}

func writeCSVFile(path string, sheet table.Sheet) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return table.WriteCSV(f, sheet)
}

func printSummary(w io.Writer, cfg *config.Config, run *core.RunResult) {
	labels := cfg.Output.Labels
	fmt.Fprintf(w, "%-6s %-24s %s\n", labels.Rank, labels.Buyer, labels.TotalPayable)
	for _, entry := range run.Summary {
		fmt.Fprintf(w, "%-6d %-24s %s\n", entry.Rank, entry.Bidder, core.RoundMoney(entry.Total).StringFixed(core.MonetaryPrecision))
	}
	fmt.Fprintf(w, "\nTotal revenue: %s\n", core.RoundMoney(run.Result.TotalRevenue()).StringFixed(core.MonetaryPrecision))
}

// columnsAction prints the column roles without allocating.
func columnsAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	logger := newLogger(ctx, cfg)

	input, err := readTable(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading input: %v", err), exitError)
	}

	res, err := core.ResolveColumns(input.Columns, cfg.ColumnAliases())
	if err != nil {
		return cli.Exit(resolutionMessage(err), exitError)
	}
	logger.Debug("discovered bidder roots", "roots", res.Roots)

	mapping := allocapi.NewColumnMapping(res)
	w := ctx.App.Writer
	if ctx.String("format") == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(mapping); err != nil {
			return cli.Exit(err.Error(), exitError)
		}
		return nil
	}

	fmt.Fprintf(w, "Stock column:  %s\n", mapping.StockColumn)
	if mapping.StatusColumn != "" {
		fmt.Fprintf(w, "Status column: %s\n", mapping.StatusColumn)
	} else {
		fmt.Fprintln(w, "Status column: (none)")
	}
	fmt.Fprintln(w, "Bidders:")
	for _, b := range mapping.Bidders {
		fmt.Fprintf(w, "  %-16s demand=%q price=%q\n", b.Name, b.DemandColumn, b.PriceColumn)
	}
	for _, root := range mapping.Dropped {
		fmt.Fprintf(w, "  %-16s dropped: no price column\n", root)
	}
	return nil
}
