// Package utils holds small numeric and timing helpers shared across modules.
package utils

import (
	"github.com/shopspring/decimal"
)

// Tolerances used by the accounting engines.
const (
	QuantityEpsilon = 1e-9
	RealizedEpsilon = 1e-2
	NetZeroEpsilon  = 1e-6
)

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Round2 rounds money values.
func Round2(v float64) float64 { return Round(v, 2) }

// Round4 rounds position quantities and average costs.
func Round4(v float64) float64 { return Round(v, 4) }

// Round6 rounds ratios and derived FX amounts.
func Round6(v float64) float64 { return Round(v, 6) }

// RoundDecimal rounds d and converts it to float64.
func RoundDecimal(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}

// RatioOrNil returns num/den rounded to 6 places, or nil when |den| is negligible.
func RatioOrNil(num, den decimal.Decimal) *float64 {
	if den.Abs().LessThanOrEqual(decimal.NewFromFloat(QuantityEpsilon)) {
		return nil
	}
	r := RoundDecimal(num.Div(den), 6)
	return &r
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
