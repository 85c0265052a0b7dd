package core

import (
	"fmt"
	"sort"
)

// TieBreak selects the order of bids offering the same unit price.
type TieBreak string

const (
	// TieBreakDiscovery keeps the bidder discovery order (column order)
	TieBreakDiscovery TieBreak = "discovery"

	// TieBreakAlphabetical orders tied bidders by name
	TieBreakAlphabetical TieBreak = "alphabetical"
)

// ParseTieBreak validates a tie-break name. The empty string selects discovery order.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case "", TieBreakDiscovery:
		return TieBreakDiscovery, nil
	case TieBreakAlphabetical:
		return TieBreakAlphabetical, nil
	default:
		return "", fmt.Errorf("unknown tie-break %q (want %q or %q)", s, TieBreakDiscovery, TieBreakAlphabetical)
	}
}

// RankBids returns the bids sorted by unit price, highest first. The input
// slice is not modified.
func RankBids(bids []Bid, tieBreak TieBreak) []Bid {
	ranked := make([]Bid, len(bids))
	copy(ranked, bids)

	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].Price.Cmp(ranked[j].Price); c != 0 {
			return c > 0
		}
		if tieBreak == TieBreakAlphabetical && ranked[i].Bidder != ranked[j].Bidder {
			return ranked[i].Bidder < ranked[j].Bidder
		}
		return ranked[i].order < ranked[j].order
	})

	return ranked
}
