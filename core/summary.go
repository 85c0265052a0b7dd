package core

import "sort"

// Summarize builds the ranked buyer payment table from a ledger. Bidders with
// no positive total are left out; the rest are sorted by total, highest first,
// with ties kept in ledger order. Summarize does not modify the ledger.
func Summarize(ledger *Ledger) []SummaryEntry {
	entries := make([]SummaryEntry, 0, ledger.Len())
	for _, bidder := range ledger.Bidders() {
		total := ledger.Total(bidder)
		if !total.IsPositive() {
			continue
		}
		entries = append(entries, SummaryEntry{Bidder: bidder, Total: total})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total.GreaterThan(entries[j].Total)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}
