package core

import "github.com/shopspring/decimal"

// MonetaryPrecision is the number of decimal places amounts are presented with.
const MonetaryPrecision int32 = 2

// hashPrecision is the number of decimal places used when hashing amounts.
const hashPrecision int32 = 6

// RoundMoney rounds an amount for presentation. Engine arithmetic stays exact.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MonetaryPrecision)
}

// ToFloat converts a decimal for export to float-typed sinks.
func ToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
