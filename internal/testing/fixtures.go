package testing

import (
	"github.com/kabumemo/kabumemo/internal/domain"
)

// JPTrade returns a Default JPY trade on 7203.T.
func JPTrade(id, date string, qty, gross float64) domain.Transaction {
	return Trade(id, date, "7203.T", qty, gross, domain.DefaultJPYGroup, domain.CurrencyJPY, domain.MarketJP)
}

// USTrade returns a Default USD trade on a US symbol.
func USTrade(id, date, symbol string, qty, gross float64) domain.Transaction {
	return Trade(id, date, symbol, qty, gross, domain.DefaultUSDGroup, domain.CurrencyUSD, domain.MarketUS)
}

// Trade returns a fully specified trade with the default tax flag for its side.
func Trade(id, date, symbol string, qty, gross float64, group string, currency domain.Currency, market domain.Market) domain.Transaction {
	return domain.Transaction{
		ID:           id,
		TradeDate:    domain.MustParseDate(date),
		Symbol:       symbol,
		Quantity:     qty,
		GrossAmount:  gross,
		FundingGroup: group,
		CashCurrency: currency,
		Market:       market,
		Taxed:        domain.DefaultTaxStatus(qty),
	}
}

// NewFundingGroupFixtures returns one group per currency plus a named JPY fund.
func NewFundingGroupFixtures() []domain.FundingGroup {
	notes := "Long-term dividend holdings"
	return []domain.FundingGroup{
		{Name: domain.DefaultJPYGroup, Currency: domain.CurrencyJPY, InitialAmount: 0},
		{Name: domain.DefaultUSDGroup, Currency: domain.CurrencyUSD, InitialAmount: 0},
		{Name: "NISA", Currency: domain.CurrencyJPY, InitialAmount: 1200000, Notes: &notes},
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
