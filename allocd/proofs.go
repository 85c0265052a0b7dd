package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/core"
)

// ReportSigner signs an encoded report payload.
type ReportSigner interface {
	Sign(payload []byte) (allocapi.ReportCOSE, error)
}

// BuildReportPayload digests a finished run into the document that gets signed.
// One outcome hash is produced per row, in row order.
func BuildReportPayload(runID string, run *core.RunResult, timestamp time.Time) (*allocapi.ReportPayload, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate report nonce: %w", err)
	}

	outcomes := run.Result.Outcomes
	outcomeHashes := make([]string, len(outcomes))
	for i, outcome := range outcomes {
		outcomeHashes[i] = core.ComputeOutcomeHash(i, outcome, nonce)
	}

	return &allocapi.ReportPayload{
		Version:       allocapi.ReportPayloadVersion,
		RunID:         runID,
		Timestamp:     timestamp.Unix(),
		RowCount:      len(outcomes),
		TotalRevenue:  core.FormatHashAmount(run.Result.TotalRevenue()),
		Summary:       allocapi.NewReportSummary(run.Summary),
		LedgerHash:    core.ComputeLedgerHash(run.Summary, nonce),
		OutcomeHashes: outcomeHashes,
		Nonce:         nonce,
	}, nil
}

// GenerateReport builds, encodes and signs the report for a run.
func GenerateReport(signer ReportSigner, runID string, run *core.RunResult, timestamp time.Time, logger *slog.Logger) (allocapi.ReportCOSE, error) {
	if signer == nil {
		return nil, fmt.Errorf("report signer is nil")
	}

	payload, err := BuildReportPayload(runID, run, timestamp)
	if err != nil {
		return nil, err
	}

	payloadBytes, err := allocapi.MarshalReportPayload(payload)
	if err != nil {
		return nil, err
	}

	report, err := signer.Sign(payloadBytes)
	if err != nil {
		return nil, err
	}

	logger.Info("report signed", "run_id", runID, "rows", payload.RowCount, "bytes", len(report))
	return report, nil
}

// generateSecureRandomBytes generates cryptographically secure random bytes
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}
