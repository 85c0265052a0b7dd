package core

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ComputeOutcomeHash digests one row outcome for a signed report.
//
// Formula: SHA256(index + "|" + status + "|" + remaining + "|" + revenue + "|" + chosen + "|" + nonce)
//
// Amounts are formatted to exactly 6 decimal places and chosen bidders are
// comma-joined in allocation order.
func ComputeOutcomeHash(index int, outcome RowOutcome, nonce string) string {
	data := fmt.Sprintf("%d|%s|%s|%s|%s|%s",
		index,
		outcome.Status,
		FormatHashAmount(outcome.RemainingStock),
		FormatHashAmount(outcome.Revenue),
		strings.Join(outcome.Chosen, ","),
		nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeLedgerHash digests the buyer summary.
//
// Formula: SHA256(nonce + "|" + sorted_pairs)
// where sorted_pairs = "bidder1:total1|bidder2:total2|..." (sorted by bidder name)
//
// Totals are formatted to exactly 6 decimal places so the hash is stable
// regardless of the decimal's internal exponent.
func ComputeLedgerHash(entries []SummaryEntry, nonce string) string {
	sorted := make([]SummaryEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Bidder < sorted[j].Bidder
	})

	var b strings.Builder
	b.WriteString(nonce)
	for _, e := range sorted {
		fmt.Fprintf(&b, "|%s:%s", e.Bidder, FormatHashAmount(e.Total))
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}

// FormatHashAmount renders an amount the way digests see it.
func FormatHashAmount(d decimal.Decimal) string {
	return d.StringFixed(hashPrecision)
}

// ParseHashAmount parses an amount produced by FormatHashAmount.
func ParseHashAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}
