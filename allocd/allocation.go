package main

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/config"
	"github.com/cloudx-io/openallocation/core"
)

// Allocator carries what every allocation request shares.
type Allocator struct {
	Defaults config.AllocationConfig
	Aliases  core.ColumnAliases
	Signer   ReportSigner
	Logger   *slog.Logger
	Now      func() time.Time
}

// ProcessAllocation validates a request, runs the engine and signs the outcome.
// Failures are reported in the response, never as a dropped connection.
//
// Processing flow:
//  1. Validate the run id and row widths
//  2. Merge request options over the configured defaults
//  3. Resolve columns, allocate rows and rank buyers
//  4. Sign a report over the outcome and ledger digests
func (a *Allocator) ProcessAllocation(req allocapi.AllocationRequest) allocapi.AllocationResponse {
	startTime := time.Now()
	now := a.now()

	fail := func(format string, args ...any) allocapi.AllocationResponse {
		message := fmt.Sprintf(format, args...)
		a.Logger.Info("allocation rejected", "run_id", req.RunID, "reason", message)
		return allocapi.AllocationResponse{
			Type:           allocapi.TypeAllocationResponse,
			Success:        false,
			Message:        message,
			RunID:          req.RunID,
			ProcessingTime: time.Since(startTime).Milliseconds(),
		}
	}

	// Step 1: Validate request shape
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	} else if _, err := uuid.Parse(runID); err != nil {
		return fail("Invalid run_id %q: %v", runID, err)
	}
	req.RunID = runID

	for i, row := range req.Rows {
		if len(row) > len(req.Columns) {
			return fail("Row %d has %d cells but the header has %d columns", i, len(row), len(req.Columns))
		}
	}

	// Step 2: Options
	opts, err := a.options(req.Options)
	if err != nil {
		return fail("Invalid options: %v", err)
	}
	opts.Logger = a.Logger

	a.Logger.Info("processing allocation", "run_id", runID, "rows", len(req.Rows), "columns", len(req.Columns))

	// Step 3: Engine
	table := allocapi.TableFromRequest(&req)
	run, err := core.Run(table, a.Aliases, opts)
	if err != nil {
		return fail("Allocation failed: %v", err)
	}

	// Step 4: Signed report
	report, err := GenerateReport(a.Signer, runID, run, now, a.Logger)
	if err != nil {
		a.Logger.Error("report signing failed", "run_id", runID, "error", err)
		return fail("Report signing failed: %v", err)
	}

	processingTime := time.Since(startTime).Milliseconds()
	revenue := run.Result.TotalRevenue()
	a.Logger.Info("allocation complete",
		"run_id", runID,
		"buyers", len(run.Summary),
		"revenue", core.RoundMoney(revenue).StringFixed(core.MonetaryPrecision),
		"processing_ms", processingTime)

	return allocapi.AllocationResponse{
		Type:             allocapi.TypeAllocationResponse,
		Success:          true,
		Message:          fmt.Sprintf("Allocated %d rows across %d bidders", len(table.Records), len(run.Resolution.Bidders)),
		RunID:            runID,
		Columns:          run.Resolution.Columns,
		Mapping:          allocapi.NewColumnMapping(run.Resolution),
		Detailed:         allocapi.NewDetailedRows(run.Result.Outcomes),
		Summary:          allocapi.NewSummaryRows(run.Summary),
		TotalRevenue:     core.ToFloat(core.RoundMoney(revenue)),
		ReportCOSEBase64: report.EncodeBase64(),
		ProcessingTime:   processingTime,
	}
}

// options overlays non-zero request options on the configured defaults.
// Requested workers are capped at GOMAXPROCS.
func (a *Allocator) options(req allocapi.RequestOptions) (core.Options, error) {
	merged := a.Defaults
	if req.TieBreak != "" {
		merged.TieBreak = req.TieBreak
	}
	if req.StatusPolicy != "" {
		merged.StatusPolicy = req.StatusPolicy
	}
	if len(req.AcceptedStatuses) > 0 {
		merged.AcceptedStatuses = req.AcceptedStatuses
	}
	if req.Workers > 0 {
		merged.Workers = min(req.Workers, runtime.GOMAXPROCS(0))
	}
	return merged.Options()
}

func (a *Allocator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
