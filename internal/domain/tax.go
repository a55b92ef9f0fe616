package domain

import "github.com/kabumemo/kabumemo/internal/utils"

// TaxSettlement records tax paid against a trade.
type TaxSettlement struct {
	ID            string   `json:"id"`
	TransactionID string   `json:"transaction_id"`
	FundingGroup  string   `json:"funding_group"`
	Amount        float64  `json:"amount"`
	Currency      Currency `json:"currency"`
	ExchangeRate  *float64 `json:"exchange_rate"`
	JPYEquivalent float64  `json:"jpy_equivalent"`
	RecordedAt    Date     `json:"recorded_at"`
}

// TaxSettlementPatch is a partial settlement update.
type TaxSettlementPatch struct {
	FundingGroup *string
	Amount       *float64
}

// JPYEquivalent converts a tax amount to yen. USD amounts need a rate.
func JPYEquivalent(amount float64, currency Currency, rate *float64) float64 {
	if currency == CurrencyUSD && rate != nil {
		return utils.Round2(amount * *rate)
	}
	return utils.Round2(amount)
}

// Normalize derives the yen equivalent. It is idempotent.
func (s *TaxSettlement) Normalize() {
	s.JPYEquivalent = JPYEquivalent(s.Amount, s.Currency, s.ExchangeRate)
}

// Validate checks the settlement invariants.
func (s TaxSettlement) Validate() error {
	if s.TransactionID == "" {
		return NewFieldError("transaction_id", "must not be empty")
	}
	if s.FundingGroup == "" {
		return NewFieldError("funding_group", "must not be empty")
	}
	if s.Amount <= 0 {
		return NewFieldError("amount", "must be greater than zero")
	}
	if !s.Currency.Valid() {
		return NewFieldError("currency", "unknown currency")
	}
	if s.Currency == CurrencyUSD && s.ExchangeRate == nil {
		return NewFieldError("exchange_rate", "exchange_rate is required when currency is USD")
	}
	if s.ExchangeRate != nil && *s.ExchangeRate <= 0 {
		return NewFieldError("exchange_rate", "must be greater than zero")
	}
	return nil
}
