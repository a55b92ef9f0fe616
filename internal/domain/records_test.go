package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFxExchangeNormalize(t *testing.T) {
	tests := []struct {
		name     string
		from, to Currency
		amount   float64
		rate     float64
		expected float64
	}{
		{name: "usd to jpy multiplies", from: CurrencyUSD, to: CurrencyJPY, amount: 100, rate: 150, expected: 15000},
		{name: "jpy to usd divides", from: CurrencyJPY, to: CurrencyUSD, amount: 10000, rate: 150, expected: 66.666667},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := FxExchange{
				ID:           "fx",
				ExchangeDate: MustParseDate("2025-01-10"),
				FromCurrency: tt.from,
				ToCurrency:   tt.to,
				FromAmount:   tt.amount,
				Rate:         tt.rate,
			}
			require.NoError(t, fx.Validate())
			fx.Normalize()
			assert.Equal(t, tt.expected, fx.ToAmount)

			again := fx
			again.Normalize()
			assert.Equal(t, fx, again)
		})
	}

	same := FxExchange{ExchangeDate: MustParseDate("2025-01-10"), FromCurrency: CurrencyJPY, ToCurrency: CurrencyJPY, FromAmount: 1, Rate: 1}
	assert.True(t, IsValidation(same.Validate()))
}

func TestTaxSettlementNormalize(t *testing.T) {
	jpy := TaxSettlement{TransactionID: "t", FundingGroup: "g", Amount: 1000.004, Currency: CurrencyJPY}
	require.NoError(t, jpy.Validate())
	jpy.Normalize()
	assert.Equal(t, 1000.0, jpy.JPYEquivalent)

	rate := 150.0
	usd := TaxSettlement{TransactionID: "t", FundingGroup: "g", Amount: 10, Currency: CurrencyUSD, ExchangeRate: &rate}
	require.NoError(t, usd.Validate())
	usd.Normalize()
	assert.Equal(t, 1500.0, usd.JPYEquivalent)

	missingRate := TaxSettlement{TransactionID: "t", FundingGroup: "g", Amount: 10, Currency: CurrencyUSD}
	assert.True(t, IsValidation(missingRate.Validate()))
}

func TestFundingGroupPatch(t *testing.T) {
	g := FundingGroup{Name: "Growth", Currency: CurrencyJPY, InitialAmount: 1000}

	amount := 2500.0
	usd := CurrencyUSD
	patched, err := FundingGroupPatch{Currency: &usd, InitialAmount: &amount}.Apply(g)
	require.NoError(t, err)
	assert.Equal(t, CurrencyUSD, patched.Currency)
	assert.Equal(t, 2500.0, patched.InitialAmount)
	assert.Equal(t, "Growth", patched.Name)

	negative := -1.0
	_, err = FundingGroupPatch{InitialAmount: &negative}.Apply(g)
	assert.True(t, IsValidation(err))
}

func TestQuoteSnapshot(t *testing.T) {
	today := MustParseDate("2025-09-15")
	snap := NewQuoteSnapshot([]Quote{
		{Symbol: "AAPL", Market: MarketUS, Price: 200, Currency: CurrencyUSD, AsOf: today},
		{Symbol: "7203.T", Market: MarketJP, Price: 3000, Currency: CurrencyJPY, AsOf: today.AddDays(-1)},
	})
	assert.Equal(t, today, snap.AsOf)
	assert.False(t, snap.FreshAsOf(today))
	assert.False(t, NewQuoteSnapshot(nil).FreshAsOf(today))
	assert.NotNil(t, NewQuoteSnapshot(nil).Records)
}

func TestDate(t *testing.T) {
	d := MustParseDate("2025-12-15")
	assert.Equal(t, YearEnd(2024), MustParseDate("2024-12-31"))
	assert.Equal(t, 14, MustParseDate("2025-09-01").DaysUntil(MustParseDate("2025-09-15")))
	assert.True(t, d.After(YearEnd(2024)))
	assert.Equal(t, "2025-12-16", d.AddDays(1).String())

	var scanned Date
	require.NoError(t, scanned.Scan("2025-12-15"))
	assert.Equal(t, d, scanned)
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-12-15", v)

	_, err = ParseDate("2025-13-01")
	assert.Error(t, err)
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("failed to load: %w", NewNotFoundError("transaction", "abc"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.Equal(t, "failed to load: transaction not found: abc", wrapped.Error())

	storage := NewStorageError("write", errors.New("disk full"))
	assert.True(t, IsStorage(storage))
	assert.Same(t, storage, NewStorageError("outer", storage))
	assert.Nil(t, NewStorageError("noop", nil))

	assert.True(t, IsConflict(NewConflictError("nope")))
	assert.Equal(t, "quantity: must not be zero", NewFieldError("quantity", "must not be zero").Error())
}
