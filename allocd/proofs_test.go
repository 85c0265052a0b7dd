package main

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/core"
)

type failingSigner struct{}

func (failingSigner) Sign([]byte) (allocapi.ReportCOSE, error) {
	return nil, errors.New("hsm offline")
}

func exampleRun(t *testing.T) *core.RunResult {
	t.Helper()
	req := exampleRequest()
	run, err := core.Run(allocapi.TableFromRequest(&req), core.DefaultColumnAliases(), core.Options{})
	assert.NoError(t, err)
	return run
}

func TestBuildReportPayload(t *testing.T) {
	run := exampleRun(t)

	payload, err := BuildReportPayload("run-1", run, fixedNow)
	assert.NoError(t, err)

	check.Equal(t, allocapi.ReportPayloadVersion, payload.Version)
	check.Equal(t, "run-1", payload.RunID)
	check.Equal(t, fixedNow.Unix(), payload.Timestamp)
	check.Equal(t, 2, payload.RowCount)
	check.Equal(t, "760.000000", payload.TotalRevenue)
	check.Equal(t, 64, len(payload.Nonce))
	assert.Equal(t, 2, len(payload.OutcomeHashes))

	for i, outcome := range run.Result.Outcomes {
		check.Equal(t, core.ComputeOutcomeHash(i, outcome, payload.Nonce), payload.OutcomeHashes[i])
	}
	check.Equal(t, core.ComputeLedgerHash(run.Summary, payload.Nonce), payload.LedgerHash)

	assert.Equal(t, 2, len(payload.Summary))
	check.Equal(t, allocapi.ReportSummaryEntry{Rank: 1, Bidder: "B", Total: "490.000000"}, payload.Summary[0])
	check.Equal(t, allocapi.ReportSummaryEntry{Rank: 2, Bidder: "C", Total: "270.000000"}, payload.Summary[1])
}

func TestBuildReportPayload_FreshNonce(t *testing.T) {
	run := exampleRun(t)

	first, err := BuildReportPayload("run-1", run, fixedNow)
	assert.NoError(t, err)
	second, err := BuildReportPayload("run-1", run, fixedNow)
	assert.NoError(t, err)

	check.NotEqual(t, first.Nonce, second.Nonce)
	check.NotEqual(t, first.LedgerHash, second.LedgerHash)
}

func TestGenerateReport(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)
	run := exampleRun(t)

	report, err := GenerateReport(km, "run-1", run, fixedNow, discardLogger())
	assert.NoError(t, err)

	payload := openReport(t, km, report)
	check.Equal(t, "run-1", payload.RunID)
	check.Equal(t, 2, payload.RowCount)
}

func TestGenerateReport_Errors(t *testing.T) {
	run := exampleRun(t)

	_, err := GenerateReport(nil, "run-1", run, fixedNow, discardLogger())
	check.NotNil(t, err)

	_, err = GenerateReport(failingSigner{}, "run-1", run, fixedNow, discardLogger())
	check.NotNil(t, err)
}

func TestGenerateNonce(t *testing.T) {
	nonce1, err := generateNonce()
	assert.NoError(t, err)
	nonce2, err := generateNonce()
	assert.NoError(t, err)

	check.Equal(t, 64, len(nonce1))
	check.NotEqual(t, nonce1, nonce2)
}
