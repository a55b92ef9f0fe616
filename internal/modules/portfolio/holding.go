package portfolio

import (
	"github.com/kabumemo/kabumemo/internal/utils"
	"github.com/shopspring/decimal"
)

var quantityEpsilon = decimal.NewFromFloat(utils.QuantityEpsilon)

// Holding is a weighted-average cost inventory for one instrument.
type Holding struct {
	Quantity  decimal.Decimal
	TotalCost decimal.Decimal
}

// Buy adds quantity at the given total cost.
func (h *Holding) Buy(quantity, gross decimal.Decimal) {
	h.Quantity = h.Quantity.Add(quantity)
	h.TotalCost = h.TotalCost.Add(gross)
}

// Sell applies a sell of quantity (negative) with proceeds gross and returns the
// realized profit. ok is false when the holding is empty and the sell is skipped.
func (h *Holding) Sell(quantity, gross decimal.Decimal) (realized decimal.Decimal, ok bool) {
	if !h.Quantity.IsPositive() {
		return decimal.Zero, false
	}

	sellQty := decimal.Min(quantity.Neg(), h.Quantity)
	avgCost := h.TotalCost.Div(h.Quantity)
	realized = gross.Sub(avgCost.Mul(sellQty))

	h.Quantity = h.Quantity.Add(quantity)
	h.TotalCost = h.TotalCost.Add(avgCost.Mul(quantity))

	// Oversold or dust quantities collapse to an empty holding.
	if h.Quantity.LessThanOrEqual(quantityEpsilon) {
		h.Quantity = decimal.Zero
		h.TotalCost = decimal.Zero
	} else if h.TotalCost.IsNegative() {
		h.TotalCost = decimal.Zero
	}
	return realized, true
}

// AverageCost returns TotalCost / Quantity, or zero for an empty holding.
func (h Holding) AverageCost() decimal.Decimal {
	if h.Quantity.IsZero() {
		return decimal.Zero
	}
	return h.TotalCost.Div(h.Quantity)
}
