package core

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSellableStatuses are the status spellings observed on offer sheets
// for rows that may be sold. Comparison ignores case and diacritics, so
// "SATIŞA UYGUN" and "satisa uygun" are the same status.
var DefaultSellableStatuses = []string{
	"satılabilir", "satilabilir", "satışa uygun", "satisa uygun", "uygun",
	"verfügbar", "verfuegbar", "sellable", "available", "ok",
}

// EligibilityPolicy decides whether a row with the given status may be allocated.
type EligibilityPolicy interface {
	Eligible(status string) bool
}

// EligibilityFunc adapts a plain function to EligibilityPolicy.
type EligibilityFunc func(status string) bool

func (f EligibilityFunc) Eligible(status string) bool {
	return f(status)
}

// AllowAll ignores the status column entirely.
func AllowAll() EligibilityPolicy {
	return EligibilityFunc(func(string) bool { return true })
}

// AcceptStatuses allows rows whose status folds to one of values. Folding
// trims, lower-cases with Turkish rules and strips diacritics.
func AcceptStatuses(values ...string) EligibilityPolicy {
	accepted := make(map[string]struct{}, len(values))
	for _, v := range values {
		accepted[normalizeStatus(v)] = struct{}{}
	}
	return EligibilityFunc(func(status string) bool {
		_, ok := accepted[normalizeStatus(status)]
		return ok
	})
}

// RowEligible applies policy to a row's status cell. A blank status, or a
// nil policy, never filters a row out.
func RowEligible(policy EligibilityPolicy, status string) bool {
	if policy == nil || strings.TrimSpace(status) == "" {
		return true
	}
	return policy.Eligible(status)
}

// normalizeStatus folds a status for comparison. Casers and transformers
// keep state, so each call builds its own.
func normalizeStatus(s string) string {
	lower := cases.Lower(language.Turkish).String(strings.TrimSpace(s))

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, lower)
	if err != nil {
		folded = lower
	}

	// Dotless ı has no decomposition
	return strings.ReplaceAll(folded, "ı", "i")
}

// StatusPolicy names how the status column is interpreted.
type StatusPolicy string

const (
	// StatusPolicyOff ignores the status column
	StatusPolicyOff StatusPolicy = "off"

	// StatusPolicySellable only allocates rows with a sellable status
	StatusPolicySellable StatusPolicy = "sellable"
)

// ParseStatusPolicy validates a policy name. The empty string selects sellable.
func ParseStatusPolicy(s string) (StatusPolicy, error) {
	switch StatusPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusPolicySellable:
		return StatusPolicySellable, nil
	case StatusPolicyOff:
		return StatusPolicyOff, nil
	default:
		return "", fmt.Errorf("unknown status policy %q (want %q or %q)", s, StatusPolicyOff, StatusPolicySellable)
	}
}

// NewEligibilityPolicy builds the predicate for a named policy. accepted
// replaces DefaultSellableStatuses when non-empty.
func NewEligibilityPolicy(policy StatusPolicy, accepted []string) EligibilityPolicy {
	if policy == StatusPolicyOff {
		return AllowAll()
	}
	if len(accepted) == 0 {
		accepted = DefaultSellableStatuses
	}
	return AcceptStatuses(accepted...)
}
