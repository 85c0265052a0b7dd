package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestNormalizeColumnName(t *testing.T) {
	check.Equal(t, "ges.bestand", NormalizeColumnName("  Ges. Bestand "))
	check.Equal(t, "birollartekliffiyat", NormalizeColumnName("Birollar_Teklif Fiyat"))
	check.Equal(t, "", NormalizeColumnName(""))
}

func TestResolveColumns_StockAliases(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"canonical", "Ges.bestand"},
		{"spaced", "Ges. bestand"},
		{"no dot", "Gesbestand"},
		{"short", "Ges bes"},
		{"german", "Bestand"},
		{"turkish", "STOK"},
		{"underscore", "ges_bestand"},
		{"tan", "tan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ResolveColumns([]string{"Ürün", tt.header, "A Adet", "A TeklifFiyat"}, DefaultColumnAliases())
			assert.Nil(t, err)
			check.Equal(t, 1, res.StockIndex)
			check.Equal(t, "Ges.bestand", res.StockColumn)
			check.Equal(t, "Ges.bestand", res.Columns[1])
		})
	}
}

func TestResolveColumns_FirstStockMatchWins(t *testing.T) {
	res, err := ResolveColumns([]string{"Stok", "Bestand"}, DefaultColumnAliases())
	assert.Nil(t, err)

	check.Equal(t, 0, res.StockIndex)
	check.Equal(t, []string{"Ges.bestand", "Bestand"}, res.Columns)
}

func TestResolveColumns_MissingStock(t *testing.T) {
	_, err := ResolveColumns([]string{"Ürün", "A Adet", "A TeklifFiyat"}, DefaultColumnAliases())
	assert.NotNil(t, err)

	var resErr *ColumnResolutionError
	check.True(t, errors.As(err, &resErr))
	check.True(t, errors.Is(err, ErrStockColumnNotFound))
	check.Equal(t, DefaultColumnAliases().StockAliases, resErr.Aliases)
	check.Equal(t, []string{"Ürün", "A Adet", "A TeklifFiyat"}, resErr.Columns)
}

func TestResolveColumns_NoColumns(t *testing.T) {
	_, err := ResolveColumns(nil, DefaultColumnAliases())
	check.True(t, errors.Is(err, ErrNoColumns))
}

func TestResolveColumns_BidderDiscovery(t *testing.T) {
	headers := []string{
		"Malzeme", "Ges.bestand", "Durum",
		"Birollar Adet", "Birollar TeklifFiyat", "Birollar Toplam",
		"Kolist1 adet", "KolIist1 Tekliffiyat",
		"Doğmer Adet", "Dogmer Tekliffiyat",
		"Yalnız Adet",
	}

	res, err := ResolveColumns(headers, DefaultColumnAliases())
	assert.Nil(t, err)

	check.Equal(t, []string{"Birollar", "Kolist1", "Doğmer", "Yalnız"}, res.Roots)
	check.Equal(t, []string{"Yalnız"}, res.Dropped)
	check.Equal(t, []string{"Birollar", "Kolist1", "Doğmer"}, res.BidderNames())

	check.Equal(t, "Birollar Adet", res.Bidders[0].DemandColumn)
	check.Equal(t, "Birollar TeklifFiyat", res.Bidders[0].PriceColumn)
	check.Equal(t, 4, res.Bidders[0].PriceIndex)

	// Typo table rewrites both demand and price headers
	check.Equal(t, "Kolist1 Adet", res.Bidders[1].DemandColumn)
	check.Equal(t, "Kolist1 TeklifFiyat", res.Bidders[1].PriceColumn)
	check.Equal(t, "Doğmer TeklifFiyat", res.Bidders[2].PriceColumn)

	check.Equal(t, "Durum", res.StatusColumn)
	check.Equal(t, 2, res.StatusIndex)
}

func TestResolveColumns_PricePriority(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		expected string
	}{
		{
			name:     "specific token beats generic",
			headers:  []string{"Stok", "X Adet", "X Fiyat", "X TeklifFiyat"},
			expected: "X TeklifFiyat",
		},
		{
			name:     "birim fiyat beats bare fiyat",
			headers:  []string{"Stok", "X Adet", "X Liste Fiyat", "X Birim Fiyat"},
			expected: "X Birim Fiyat",
		},
		{
			name:     "totals are never prices",
			headers:  []string{"Stok", "X Adet", "X Toplam Fiyat", "X BFiyat"},
			expected: "X BFiyat",
		},
		{
			name:     "tie keeps column order",
			headers:  []string{"Stok", "X Adet", "X Teklif Fiyat", "X TeklifFiyat"},
			expected: "X Teklif Fiyat",
		},
		{
			name:     "bare fiyat column is accepted",
			headers:  []string{"Stok", "X Adet", "X Son Fiyat"},
			expected: "X Son Fiyat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ResolveColumns(tt.headers, DefaultColumnAliases())
			assert.Nil(t, err)
			assert.Equal(t, 1, len(res.Bidders))
			check.Equal(t, tt.expected, res.Bidders[0].PriceColumn)
		})
	}
}

func TestResolveColumns_NoStatusColumn(t *testing.T) {
	res, err := ResolveColumns([]string{"Stok", "A Adet", "A Fiyat"}, DefaultColumnAliases())
	assert.Nil(t, err)

	check.Equal(t, -1, res.StatusIndex)
	check.Equal(t, "", res.StatusColumn)
}

func TestResolveColumns_DuplicateRootKeepsFirstDemandColumn(t *testing.T) {
	res, err := ResolveColumns([]string{"Stok", "A Adet", "A  Adet", "A Fiyat"}, DefaultColumnAliases())
	assert.Nil(t, err)

	check.Equal(t, []string{"A"}, res.Roots)
	check.Equal(t, 1, res.Bidders[0].DemandIndex)
}

func TestColumnAliases_Merge(t *testing.T) {
	extra := ColumnAliases{
		StockAliases: []string{"lager", "stok"},
		Corrections:  map[string]string{"Acme qty": "Acme Adet"},
		PriceTokens:  []string{"preis"},
	}

	merged := DefaultColumnAliases().Merge(extra)

	check.Equal(t, "Ges.bestand", merged.StockColumn)
	check.Equal(t, "lager", merged.StockAliases[len(merged.StockAliases)-1])
	check.Equal(t, len(DefaultColumnAliases().StockAliases)+1, len(merged.StockAliases))
	check.Equal(t, "preis", merged.PriceTokens[len(merged.PriceTokens)-1])
	check.Equal(t, "Acme Adet", merged.Corrections["Acme qty"])
	check.Equal(t, "Kolist1 Adet", merged.Corrections["Kolist1 adet"])

	res, err := ResolveColumns([]string{"Lager", "Acme qty", "Acme Preis"}, merged)
	assert.Nil(t, err)
	check.Equal(t, []string{"Acme"}, res.BidderNames())
	check.Equal(t, "Acme Preis", res.Bidders[0].PriceColumn)
}

func TestColumnAliases_MergeDoesNotMutateReceiver(t *testing.T) {
	base := DefaultColumnAliases()
	_ = base.Merge(ColumnAliases{Corrections: map[string]string{"a": "b"}})

	_, ok := base.Corrections["a"]
	check.False(t, ok)
}
