package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoColumns is returned when the header row is empty.
	ErrNoColumns = errors.New("no columns in header")

	// ErrStockColumnNotFound is returned when no header matches a stock alias.
	ErrStockColumnNotFound = errors.New("stock column not found")
)

// ColumnResolutionError reports that the stock column could not be resolved.
// It is fatal to the run; no partial result is produced.
type ColumnResolutionError struct {
	Columns []string
	Aliases []string
	Err     error
}

func (e *ColumnResolutionError) Error() string {
	return fmt.Sprintf("%v: tried aliases %q against columns %q", e.Err, e.Aliases, e.Columns)
}

func (e *ColumnResolutionError) Unwrap() error {
	return e.Err
}

// ColumnAliases is the data that drives column recognition. None of it is
// logic: callers extend it through Merge or configuration.
type ColumnAliases struct {
	// StockColumn is the canonical name the matched stock column is renamed to
	StockColumn string `yaml:"stock_column" json:"stock_column"`

	// StockAliases are compared against headers in normalized form
	StockAliases []string `yaml:"stock_aliases" json:"stock_aliases"`

	// Corrections rewrites known malformed headers before bidder discovery
	Corrections map[string]string `yaml:"corrections" json:"corrections"`

	// DemandMarker is the case-sensitive token that marks a demand column
	DemandMarker string `yaml:"demand_marker" json:"demand_marker"`

	// PriceTokens are matched most specific first
	PriceTokens []string `yaml:"price_tokens" json:"price_tokens"`

	// GenericPriceToken is accepted at the lowest priority
	GenericPriceToken string `yaml:"generic_price_token" json:"generic_price_token"`

	// ExcludeTokens disqualify a column from being a price column
	ExcludeTokens []string `yaml:"exclude_tokens" json:"exclude_tokens"`

	// StatusAliases identify the optional status/eligibility column
	StatusAliases []string `yaml:"status_aliases" json:"status_aliases"`
}

// DefaultColumnAliases returns the alias tables for the offer sheets this
// tool was built around.
func DefaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		StockColumn: "Ges.bestand",
		StockAliases: []string{
			"ges.bestand", "gesbestand", "gesbes", "gesbesand", "ges",
			"bestand", "stok", "tan",
		},
		Corrections: map[string]string{
			"BirollarTeklifFiyat":     "Birollar TeklifFiyat",
			"MNGIST OZIS Tekliffiyat": "MNGIST OZIS TeklifFiyat",
			"MNGIST OZIS ADET":        "MNGIST OZIS Adet",
			"KolIist1 Tekliffiyat":    "Kolist1 TeklifFiyat",
			"Kolist1 adet":            "Kolist1 Adet",
			"KolIist2 Tekliffiyat":    "Kolist2 TeklifFiyat",
			"Kolist2 adet":            "Kolist2 Adet",
			"Dogmer Tekliffiyat":      "Doğmer TeklifFiyat",
			"Doğmer Tekliffiyat":      "Doğmer TeklifFiyat",
			"KolistG adet":            "KolistG Adet",
			"KolistG Tekliffiyat":     "KolistG TeklifFiyat",
		},
		DemandMarker: "Adet",
		PriceTokens: []string{
			"tekliffiyat", "teklif_fiyat", "tekliffiyati", "teklif",
			"birimfiyat", "birim_fiyat", "birimfiyati",
			"bfiyat", "fiyat",
		},
		GenericPriceToken: "fiyat",
		ExcludeTokens:     []string{"toplam", "adet"},
		StatusAliases:     []string{"durum", "status"},
	}
}

// Merge returns a copy of a extended with extra. List entries are appended
// (after the existing ones, so they rank lower), corrections are added or
// overridden and non-empty scalars replace the current value.
func (a ColumnAliases) Merge(extra ColumnAliases) ColumnAliases {
	merged := ColumnAliases{
		StockColumn:       a.StockColumn,
		StockAliases:      appendUnique(nil, a.StockAliases...),
		Corrections:       make(map[string]string, len(a.Corrections)+len(extra.Corrections)),
		DemandMarker:      a.DemandMarker,
		PriceTokens:       appendUnique(nil, a.PriceTokens...),
		GenericPriceToken: a.GenericPriceToken,
		ExcludeTokens:     appendUnique(nil, a.ExcludeTokens...),
		StatusAliases:     appendUnique(nil, a.StatusAliases...),
	}
	for from, to := range a.Corrections {
		merged.Corrections[from] = to
	}
	for from, to := range extra.Corrections {
		merged.Corrections[from] = to
	}

	if extra.StockColumn != "" {
		merged.StockColumn = extra.StockColumn
	}
	if extra.DemandMarker != "" {
		merged.DemandMarker = extra.DemandMarker
	}
	if extra.GenericPriceToken != "" {
		merged.GenericPriceToken = extra.GenericPriceToken
	}
	merged.StockAliases = appendUnique(merged.StockAliases, extra.StockAliases...)
	merged.PriceTokens = appendUnique(merged.PriceTokens, extra.PriceTokens...)
	merged.ExcludeTokens = appendUnique(merged.ExcludeTokens, extra.ExcludeTokens...)
	merged.StatusAliases = appendUnique(merged.StatusAliases, extra.StatusAliases...)

	return merged
}

// Resolution is the role mapping derived once from the header row.
type Resolution struct {
	// Columns are the headers after trimming, typo correction and stock renaming
	Columns []string `json:"columns"`

	StockColumn string `json:"stock_column"`
	StockIndex  int    `json:"stock_index"`

	// StatusIndex is -1 when the sheet has no status column
	StatusColumn string `json:"status_column,omitempty"`
	StatusIndex  int    `json:"status_index"`

	// Bidders are usable bidders in discovery order
	Bidders []BidderColumns `json:"bidders"`

	// Roots lists every discovered bidder root, Dropped those without a price column
	Roots   []string `json:"roots"`
	Dropped []string `json:"dropped,omitempty"`
}

// BidderNames returns the usable bidder names in resolution order.
func (r *Resolution) BidderNames() []string {
	names := make([]string, len(r.Bidders))
	for i, b := range r.Bidders {
		names[i] = b.Name
	}
	return names
}

// NormalizeColumnName lower-cases and trims a header and removes spaces and
// underscores, the form every alias comparison is made in.
func NormalizeColumnName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "_", "")
}

// ResolveColumns maps raw headers onto the stock, status and per-bidder
// demand/price roles. It is a pure function of its inputs.
//
// Processing flow:
//  1. Trim headers and apply the correction table
//  2. Rename the first header matching a stock alias to the canonical name
//  3. Find the optional status column
//  4. Discover bidder roots from demand columns
//  5. Resolve a price column for each root; roots without one are dropped
func ResolveColumns(headers []string, aliases ColumnAliases) (*Resolution, error) {
	if len(headers) == 0 {
		return nil, &ColumnResolutionError{Aliases: aliases.StockAliases, Err: ErrNoColumns}
	}

	// Step 1: Trim and correct known typos
	columns := make([]string, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if fixed, ok := aliases.Corrections[name]; ok {
			name = fixed
		}
		columns[i] = name
	}

	// Step 2: Stock column, first match wins
	stockAliases := normalizedSet(aliases.StockAliases)
	stockIndex := -1
	for i, name := range columns {
		if stockAliases[NormalizeColumnName(name)] {
			stockIndex = i
			break
		}
	}
	if stockIndex < 0 {
		return nil, &ColumnResolutionError{
			Columns: columns,
			Aliases: aliases.StockAliases,
			Err:     ErrStockColumnNotFound,
		}
	}
	if aliases.StockColumn != "" {
		columns[stockIndex] = aliases.StockColumn
	}

	res := &Resolution{
		Columns:     columns,
		StockColumn: columns[stockIndex],
		StockIndex:  stockIndex,
		StatusIndex: -1,
	}

	// Step 3: Status column
	statusAliases := normalizedSet(aliases.StatusAliases)
	for i, name := range columns {
		if i != stockIndex && statusAliases[NormalizeColumnName(name)] {
			res.StatusColumn = name
			res.StatusIndex = i
			break
		}
	}

	// Step 4: Bidder roots, keeping the first demand column per root
	demandIndex := make(map[string]int)
	if aliases.DemandMarker != "" {
		for i, name := range columns {
			if !strings.Contains(name, aliases.DemandMarker) {
				continue
			}
			root := strings.TrimSpace(strings.ReplaceAll(name, aliases.DemandMarker, ""))
			if root == "" {
				continue
			}
			if _, seen := demandIndex[root]; seen {
				continue
			}
			demandIndex[root] = i
			res.Roots = append(res.Roots, root)
		}
	}

	// Step 5: Price columns
	for _, root := range res.Roots {
		priceIndex := findPriceColumn(root, columns, aliases)
		if priceIndex < 0 {
			res.Dropped = append(res.Dropped, root)
			continue
		}
		di := demandIndex[root]
		res.Bidders = append(res.Bidders, BidderColumns{
			Name:         root,
			DemandColumn: columns[di],
			DemandIndex:  di,
			PriceColumn:  columns[priceIndex],
			PriceIndex:   priceIndex,
		})
	}

	return res, nil
}

// findPriceColumn returns the index of the best price column for root, or -1.
// Candidates must start with the normalized root and carry no excluded token.
// Lower priority wins; equal priorities keep column order.
func findPriceColumn(root string, columns []string, aliases ColumnAliases) int {
	rootNorm := NormalizeColumnName(root)
	genericPriority := len(aliases.PriceTokens) + 1

	bestIndex, bestPriority := -1, 0
	for i, name := range columns {
		norm := NormalizeColumnName(name)
		if !strings.HasPrefix(norm, rootNorm) {
			continue
		}
		if containsAny(norm, aliases.ExcludeTokens) {
			continue
		}

		priority := -1
		for p, tok := range aliases.PriceTokens {
			if tok != "" && strings.Contains(norm, tok) {
				priority = p
				break
			}
		}
		if priority < 0 && aliases.GenericPriceToken != "" && strings.Contains(norm, aliases.GenericPriceToken) {
			priority = genericPriority
		}
		if priority < 0 {
			continue
		}

		if bestIndex < 0 || priority < bestPriority {
			bestIndex, bestPriority = i, priority
		}
	}

	return bestIndex
}

func normalizedSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[NormalizeColumnName(v)] = true
	}
	return set
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
