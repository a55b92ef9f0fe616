package domain

import (
	"strings"
)

// Transaction is a single trade. Buys carry a positive quantity, sells a negative one.
type Transaction struct {
	ID            string    `json:"id"`
	TradeDate     Date      `json:"trade_date"`
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	GrossAmount   float64   `json:"gross_amount"`
	FundingGroup  string    `json:"funding_group"`
	CashCurrency  Currency  `json:"cash_currency"`
	Market        Market    `json:"market"`
	Taxed         TaxStatus `json:"taxed"`
	Memo          *string   `json:"memo"`
	CrossCurrency bool      `json:"cross_currency"`
	BuyCurrency   *Currency `json:"buy_currency"`
	SellCurrency  *Currency `json:"sell_currency"`
}

// TransactionFields carries the user-supplied part of a trade.
// A nil Taxed means "derive from side" on create and "keep stored" on update.
type TransactionFields struct {
	TradeDate     Date
	Symbol        string
	Quantity      float64
	GrossAmount   float64
	FundingGroup  string
	CashCurrency  Currency
	Market        Market
	Taxed         *TaxStatus
	Memo          *string
	CrossCurrency bool
	BuyCurrency   *Currency
	SellCurrency  *Currency
}

// NewTransaction validates fields and returns a normalized trade.
func NewTransaction(id string, f TransactionFields) (Transaction, error) {
	tx := Transaction{
		ID:            id,
		TradeDate:     f.TradeDate,
		Symbol:        f.Symbol,
		Quantity:      f.Quantity,
		GrossAmount:   f.GrossAmount,
		FundingGroup:  strings.TrimSpace(f.FundingGroup),
		CashCurrency:  f.CashCurrency,
		Market:        f.Market,
		Memo:          f.Memo,
		CrossCurrency: f.CrossCurrency,
		BuyCurrency:   f.BuyCurrency,
		SellCurrency:  f.SellCurrency,
	}
	if f.Taxed != nil {
		tx.Taxed = *f.Taxed
	} else {
		tx.Taxed = DefaultTaxStatus(f.Quantity)
	}

	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// DefaultTaxStatus is Y for buys and N for sells.
func DefaultTaxStatus(quantity float64) TaxStatus {
	if quantity > 0 {
		return TaxStatusYes
	}
	return TaxStatusNo
}

// NormalizeSymbol uppercases JP tickers and appends the Tokyo suffix.
func NormalizeSymbol(symbol string, market Market) string {
	s := strings.TrimSpace(symbol)
	if market != MarketJP || s == "" {
		return s
	}
	s = strings.ToUpper(s)
	if !strings.HasSuffix(s, ".T") {
		s += ".T"
	}
	return s
}

// Normalize applies symbol normalization and clears cross-currency fields
// when the flag is off. It is idempotent.
func (t *Transaction) Normalize() {
	t.Symbol = NormalizeSymbol(t.Symbol, t.Market)
	if !t.CrossCurrency {
		t.BuyCurrency = nil
		t.SellCurrency = nil
	}
}

// Validate checks the trade invariants.
func (t Transaction) Validate() error {
	if t.Symbol == "" {
		return NewFieldError("symbol", "must not be empty")
	}
	if t.Quantity == 0 {
		return NewFieldError("quantity", "quantity must not be zero")
	}
	if t.GrossAmount <= 0 {
		return NewFieldError("gross_amount", "must be greater than zero")
	}
	if t.FundingGroup == "" {
		return NewFieldError("funding_group", "must not be empty")
	}
	if t.TradeDate.IsZero() {
		return NewFieldError("trade_date", "is required")
	}
	if !t.Market.Valid() {
		return NewFieldError("market", "unknown market")
	}
	if !t.CashCurrency.Valid() {
		return NewFieldError("cash_currency", "unknown currency")
	}
	if !t.Taxed.Valid() {
		return NewFieldError("taxed", "must be Y or N")
	}
	if t.CrossCurrency {
		return t.validateCrossCurrency()
	}
	return nil
}

func (t Transaction) validateCrossCurrency() error {
	if t.Quantity > 0 {
		return NewFieldError("cross_currency", "cross currency is only allowed for sell transactions")
	}
	if t.BuyCurrency == nil || t.SellCurrency == nil {
		return NewFieldError("cross_currency", "buy_currency and sell_currency are required for cross currency trades")
	}
	if !t.BuyCurrency.Valid() || !t.SellCurrency.Valid() {
		return NewFieldError("cross_currency", "unknown currency")
	}
	if *t.BuyCurrency == *t.SellCurrency {
		return NewFieldError("cross_currency", "buy_currency and sell_currency must differ")
	}
	if t.CashCurrency != *t.SellCurrency {
		return NewFieldError("cross_currency", "cash_currency must match sell_currency")
	}
	return nil
}

// Side derives the trade side from the quantity sign.
func (t Transaction) Side() TradeSide {
	if t.Quantity > 0 {
		return TradeSideBuy
	}
	return TradeSideSell
}

func (t Transaction) IsBuy() bool  { return t.Quantity > 0 }
func (t Transaction) IsSell() bool { return t.Quantity < 0 }
