package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/core"
)

// amountRoundingError is half a unit in the sixth decimal place, the
// precision of amounts in a signed report.
var amountRoundingError = decimal.New(5, -7)

// ReportValidationInput contains all inputs needed for report validation
type ReportValidationInput struct {
	Report       allocapi.ReportCOSE          // Raw COSE_Sign1 bytes
	PublicKeyPEM string                       // From KeyResponse.PublicKey
	Response     *allocapi.AllocationResponse // Response the report was attached to
}

// ValidateReport verifies a signed allocation report and checks it against
// the response it came with:
// - Signature is valid for the published key
// - Payload decodes and carries the response's run id
// - Row count matches the detailed table
// - Every detailed row reproduces its signed outcome hash
// - Ledger hash matches the embedded buyer totals
// - Response summary matches the signed totals
// - Buyer totals add up to the signed total revenue
//
// Returns:
//   - ReportValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., missing input)
func ValidateReport(input *ReportValidationInput) (*ReportValidationResult, error) {
	if input == nil || input.Response == nil {
		return nil, fmt.Errorf("allocation response is required")
	}
	if len(input.Report) == 0 {
		return nil, fmt.Errorf("report is required")
	}

	result := &ReportValidationResult{}

	// Step 1: Signature
	payloadBytes, err := VerifyReportSignature(input.Report, input.PublicKeyPEM)
	if err != nil {
		result.addDetail(fmt.Sprintf("Signature validation failed: %v", err))
		// Fall back to the unverified payload so the remaining checks still report
		payloadBytes, err = ExtractCOSEPayload(input.Report)
		if err != nil {
			result.addDetail(fmt.Sprintf("Payload extraction failed: %v", err))
			return result, nil
		}
	} else {
		result.SignatureValid = true
		result.addDetail("Signature validation passed (ES256)")
	}

	// Step 2: Payload
	payload, err := allocapi.UnmarshalReportPayload(payloadBytes)
	if err != nil {
		result.addDetail(fmt.Sprintf("Payload decoding failed: %v", err))
		return result, nil
	}
	if payload.Version != allocapi.ReportPayloadVersion {
		result.addDetail(fmt.Sprintf("Unsupported payload version %d", payload.Version))
		return result, nil
	}
	result.PayloadValid = true

	result.RunIDValid = validateRunID(input.Response, payload, result)
	result.RowCountValid = validateRowCount(input.Response, payload, result)
	result.OutcomeHashesValid = validateOutcomeHashes(input.Response, payload, result)
	result.LedgerHashValid = validateLedgerHash(payload, result)
	result.SummaryValid = validateSummary(input.Response, payload, result)
	result.TotalsValid = validateTotals(payload, result)

	return result, nil
}

func validateRunID(resp *allocapi.AllocationResponse, payload *allocapi.ReportPayload, result *ReportValidationResult) bool {
	if resp.RunID == payload.RunID {
		result.addDetail(fmt.Sprintf("Run id validation passed: %s", payload.RunID))
		return true
	}
	result.addDetail(fmt.Sprintf("Run id mismatch: response has %q, report has %q", resp.RunID, payload.RunID))
	return false
}

func validateRowCount(resp *allocapi.AllocationResponse, payload *allocapi.ReportPayload, result *ReportValidationResult) bool {
	if payload.RowCount != len(payload.OutcomeHashes) {
		result.addDetail(fmt.Sprintf("Row count mismatch: report has %d rows but %d outcome hashes", payload.RowCount, len(payload.OutcomeHashes)))
		return false
	}
	if payload.RowCount != len(resp.Detailed) {
		result.addDetail(fmt.Sprintf("Row count mismatch: response has %d rows, report has %d", len(resp.Detailed), payload.RowCount))
		return false
	}
	result.addDetail(fmt.Sprintf("Row count validation passed: %d", payload.RowCount))
	return true
}

// validateOutcomeHashes recomputes each row's outcome hash from the response
// and compares it with the signed hash at the same position. The rounded
// display fields must agree with the exact values the hash covers.
func validateOutcomeHashes(resp *allocapi.AllocationResponse, payload *allocapi.ReportPayload, result *ReportValidationResult) bool {
	if payload.Nonce == "" {
		result.addDetail("Outcome hash nonce missing from report")
		return false
	}
	if len(resp.Detailed) != len(payload.OutcomeHashes) {
		result.addDetail(fmt.Sprintf("Outcome hash mismatch: response has %d rows, report has %d hashes", len(resp.Detailed), len(payload.OutcomeHashes)))
		return false
	}

	for i, row := range resp.Detailed {
		if row.Index != i {
			result.addDetail(fmt.Sprintf("Outcome hash mismatch: row %d carries index %d", i, row.Index))
			return false
		}

		remaining, err := core.ParseHashAmount(row.RemainingStockExact)
		if err != nil {
			result.addDetail(fmt.Sprintf("Outcome hash mismatch at row %d: remaining stock: %v", i, err))
			return false
		}
		revenue, err := core.ParseHashAmount(row.TotalSaleExact)
		if err != nil {
			result.addDetail(fmt.Sprintf("Outcome hash mismatch at row %d: total sale: %v", i, err))
			return false
		}

		if strings.Join(row.Chosen, ", ") != row.ChosenBuyers ||
			!core.RoundMoney(decimal.NewFromFloat(row.TotalSale)).Equal(core.RoundMoney(revenue)) ||
			!core.RoundMoney(decimal.NewFromFloat(row.RemainingStock)).Equal(core.RoundMoney(remaining)) {
			result.addDetail(fmt.Sprintf("Outcome mismatch at row %d: displayed values differ from hashed values", i))
			return false
		}

		outcome := core.RowOutcome{
			Status:         core.RowStatus(row.Status),
			RemainingStock: remaining,
			Revenue:        revenue,
			Chosen:         row.Chosen,
		}
		if computed := core.ComputeOutcomeHash(i, outcome, payload.Nonce); computed != payload.OutcomeHashes[i] {
			result.addDetail(fmt.Sprintf("Outcome hash mismatch at row %d: computed %s, report has %s", i, computed, payload.OutcomeHashes[i]))
			return false
		}
	}

	result.addDetail(fmt.Sprintf("Outcome hash validation passed: %d rows", len(resp.Detailed)))
	return true
}

func validateLedgerHash(payload *allocapi.ReportPayload, result *ReportValidationResult) bool {
	if payload.Nonce == "" {
		result.addDetail("Ledger hash nonce missing from report")
		return false
	}

	entries, err := allocapi.SummaryEntries(payload.Summary)
	if err != nil {
		result.addDetail(fmt.Sprintf("Ledger hash validation failed: %v", err))
		return false
	}

	computed := core.ComputeLedgerHash(entries, payload.Nonce)
	if computed == payload.LedgerHash {
		result.addDetail(fmt.Sprintf("Ledger hash validation passed: %s", computed))
		return true
	}
	result.addDetail(fmt.Sprintf("Ledger hash mismatch: computed %s, report has %s", computed, payload.LedgerHash))
	return false
}

func validateSummary(resp *allocapi.AllocationResponse, payload *allocapi.ReportPayload, result *ReportValidationResult) bool {
	if len(resp.Summary) != len(payload.Summary) {
		result.addDetail(fmt.Sprintf("Summary mismatch: response lists %d buyers, report lists %d", len(resp.Summary), len(payload.Summary)))
		return false
	}

	for i, row := range resp.Summary {
		signed := payload.Summary[i]
		if row.Rank != signed.Rank || row.Buyer != signed.Bidder {
			result.addDetail(fmt.Sprintf("Summary mismatch at rank %d: response has %s, report has %s", i+1, row.Buyer, signed.Bidder))
			return false
		}

		signedTotal, err := core.ParseHashAmount(signed.Total)
		if err != nil {
			result.addDetail(fmt.Sprintf("Summary mismatch for %s: %v", signed.Bidder, err))
			return false
		}
		responseTotal := core.RoundMoney(decimal.NewFromFloat(row.TotalPayable))
		if !responseTotal.Equal(core.RoundMoney(signedTotal)) {
			result.addDetail(fmt.Sprintf("Summary mismatch for %s: response has %s, report has %s",
				signed.Bidder, responseTotal.StringFixed(core.MonetaryPrecision), signedTotal.StringFixed(core.MonetaryPrecision)))
			return false
		}
	}

	result.addDetail(fmt.Sprintf("Summary validation passed: %d buyers", len(resp.Summary)))
	return true
}

func validateTotals(payload *allocapi.ReportPayload, result *ReportValidationResult) bool {
	totalRevenue, err := core.ParseHashAmount(payload.TotalRevenue)
	if err != nil {
		result.addDetail(fmt.Sprintf("Total revenue unreadable: %v", err))
		return false
	}

	sum := decimal.Zero
	for _, entry := range payload.Summary {
		total, err := core.ParseHashAmount(entry.Total)
		if err != nil {
			result.addDetail(fmt.Sprintf("Buyer total unreadable: %v", err))
			return false
		}
		sum = sum.Add(total)
	}

	// Each signed amount is rounded on its own, so the sum may drift by half a
	// unit of the last place per amount.
	tolerance := amountRoundingError.Mul(decimal.NewFromInt(int64(len(payload.Summary) + 1)))
	if sum.Sub(totalRevenue).Abs().LessThanOrEqual(tolerance) {
		result.addDetail(fmt.Sprintf("Totals validation passed: %s", totalRevenue.StringFixed(core.MonetaryPrecision)))
		return true
	}
	result.addDetail(fmt.Sprintf("Totals mismatch: buyers sum to %s, report total is %s", sum.String(), totalRevenue.String()))
	return false
}
