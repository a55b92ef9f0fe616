// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"fmt"
)

// Market identifies the exchange a security trades on
type Market string

const (
	MarketJP Market = "JP"
	MarketUS Market = "US"
)

// Valid reports whether m is a known market
func (m Market) Valid() bool {
	return m == MarketJP || m == MarketUS
}

// Currency represents a cash currency code
type Currency string

const (
	CurrencyJPY Currency = "JPY"
	CurrencyUSD Currency = "USD"
)

// Currencies lists the supported currencies in code order.
var Currencies = []Currency{CurrencyJPY, CurrencyUSD}

// Valid reports whether c is a supported currency
func (c Currency) Valid() bool {
	return c == CurrencyJPY || c == CurrencyUSD
}

// TaxStatus records whether tax has been settled for a trade
type TaxStatus string

const (
	TaxStatusYes TaxStatus = "Y"
	TaxStatusNo  TaxStatus = "N"
)

// Valid reports whether s is Y or N
func (s TaxStatus) Valid() bool {
	return s == TaxStatusYes || s == TaxStatusNo
}

// TradeSide is derived from the sign of a trade quantity
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// MarketCurrency returns the currency a market quotes prices in.
func MarketCurrency(m Market) Currency {
	if m == MarketUS {
		return CurrencyUSD
	}
	return CurrencyJPY
}

func (m *Market) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("market must be a string: %w", err)
	}
	if !Market(s).Valid() {
		return fmt.Errorf("unknown market %q", s)
	}
	*m = Market(s)
	return nil
}

func (c *Currency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("currency must be a string: %w", err)
	}
	if !Currency(s).Valid() {
		return fmt.Errorf("unknown currency %q", s)
	}
	*c = Currency(s)
	return nil
}

func (s *TaxStatus) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("tax status must be a string: %w", err)
	}
	if !TaxStatus(v).Valid() {
		return fmt.Errorf("unknown tax status %q", v)
	}
	*s = TaxStatus(v)
	return nil
}
