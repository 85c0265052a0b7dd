package core

import "github.com/shopspring/decimal"

// Ledger accumulates revenue per bidder. It remembers the order bidders were
// first registered in, which the summary uses to break ties.
//
// A Ledger is not safe for concurrent use; parallel runs keep one per
// partition and Merge them afterwards.
type Ledger struct {
	order  []string
	totals map[string]decimal.Decimal
}

// NewLedger creates a ledger with a zero entry for each bidder, in order.
func NewLedger(bidders []string) *Ledger {
	l := &Ledger{
		order:  make([]string, 0, len(bidders)),
		totals: make(map[string]decimal.Decimal, len(bidders)),
	}
	for _, b := range bidders {
		l.register(b)
	}
	return l
}

func (l *Ledger) register(bidder string) {
	if _, ok := l.totals[bidder]; ok {
		return
	}
	l.order = append(l.order, bidder)
	l.totals[bidder] = decimal.Zero
}

// Add credits amount to bidder, registering the bidder if needed.
func (l *Ledger) Add(bidder string, amount decimal.Decimal) {
	l.register(bidder)
	l.totals[bidder] = l.totals[bidder].Add(amount)
}

// Total returns the cumulative amount for bidder (zero if unknown).
func (l *Ledger) Total(bidder string) decimal.Decimal {
	return l.totals[bidder]
}

// Bidders returns the registered bidders in registration order.
func (l *Ledger) Bidders() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Len returns the number of registered bidders.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Sum returns the total over all bidders.
func (l *Ledger) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range l.order {
		sum = sum.Add(l.totals[b])
	}
	return sum
}

// Merge adds every entry of other into l. Bidders unknown to l are appended
// in other's order. Merging is associative, so partial ledgers can be
// reduced in any grouping as long as partition order is kept.
func (l *Ledger) Merge(other *Ledger) {
	if other == nil {
		return
	}
	for _, b := range other.order {
		l.Add(b, other.totals[b])
	}
}
