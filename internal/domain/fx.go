package domain

import "github.com/kabumemo/kabumemo/internal/utils"

// FxExchange is a currency conversion. Rate is always JPY per USD.
type FxExchange struct {
	ID            string   `json:"id"`
	ExchangeDate  Date     `json:"exchange_date"`
	FromCurrency  Currency `json:"from_currency"`
	ToCurrency    Currency `json:"to_currency"`
	FromAmount    float64  `json:"from_amount"`
	Rate          float64  `json:"rate"`
	ToAmount      float64  `json:"to_amount"`
	TransactionID *string  `json:"transaction_id"`
	Notes         *string  `json:"notes"`
}

// ConvertAmount converts between JPY and USD at rate (JPY per USD).
// Any other pair is returned unchanged.
func ConvertAmount(amount float64, from, to Currency, rate float64) float64 {
	switch {
	case from == CurrencyJPY && to == CurrencyUSD:
		return amount / rate
	case from == CurrencyUSD && to == CurrencyJPY:
		return amount * rate
	default:
		return amount
	}
}

// Normalize derives ToAmount. It is idempotent.
func (f *FxExchange) Normalize() {
	f.ToAmount = utils.Round6(ConvertAmount(f.FromAmount, f.FromCurrency, f.ToCurrency, f.Rate))
}

// Validate checks the exchange invariants.
func (f FxExchange) Validate() error {
	if f.ExchangeDate.IsZero() {
		return NewFieldError("exchange_date", "is required")
	}
	if !f.FromCurrency.Valid() || !f.ToCurrency.Valid() {
		return NewFieldError("currency", "unknown currency")
	}
	if f.FromCurrency == f.ToCurrency {
		return NewFieldError("to_currency", "from_currency and to_currency must differ")
	}
	if f.FromAmount <= 0 {
		return NewFieldError("from_amount", "must be greater than zero")
	}
	if f.Rate <= 0 {
		return NewFieldError("rate", "must be greater than zero")
	}
	return nil
}

// Converts reports whether f converts between exactly a and b, in either direction.
func (f FxExchange) Converts(a, b Currency) bool {
	return (f.FromCurrency == a && f.ToCurrency == b) || (f.FromCurrency == b && f.ToCurrency == a)
}
