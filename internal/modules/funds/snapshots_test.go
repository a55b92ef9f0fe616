package funds

import (
	"testing"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpyGroup(name string, initial float64) domain.FundingGroup {
	return domain.FundingGroup{Name: name, Currency: domain.CurrencyJPY, InitialAmount: initial}
}

func groupTrade(id, date, group string, qty, gross float64) domain.Transaction {
	return domain.Transaction{
		ID:           id,
		TradeDate:    domain.MustParseDate(date),
		Symbol:       "7203.T",
		Quantity:     qty,
		GrossAmount:  gross,
		FundingGroup: group,
		CashCurrency: domain.CurrencyJPY,
		Market:       domain.MarketJP,
		Taxed:        domain.DefaultTaxStatus(qty),
	}
}

func findFund(t *testing.T, snaps Snapshots, name string) FundSnapshot {
	t.Helper()
	for _, f := range snaps.Funds {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "fund not found", "%s", name)
	return FundSnapshot{}
}

func TestComputeSnapshots_RoundTripCash(t *testing.T) {
	today := domain.MustParseDate("2025-10-01")
	in := SnapshotInput{
		Groups: []domain.FundingGroup{jpyGroup(domain.DefaultJPYGroup, 0)},
		Transactions: []domain.Transaction{
			groupTrade("buy", "2025-09-01", domain.DefaultJPYGroup, 10, 150000),
			groupTrade("sell", "2025-09-15", domain.DefaultJPYGroup, -5, 90000),
		},
	}

	fund := findFund(t, ComputeSnapshots(in, today), domain.DefaultJPYGroup)
	assert.Equal(t, -60000.0, fund.CashBalance)
	assert.Equal(t, 75000.0, fund.HoldingCost)
	assert.Equal(t, 15000.0, fund.CurrentTotal)
	assert.Equal(t, 15000.0, fund.TotalPL)

	in.Settlements = []domain.TaxSettlement{{
		ID:            "s1",
		TransactionID: "sell",
		FundingGroup:  domain.DefaultJPYGroup,
		Amount:        1000,
		Currency:      domain.CurrencyJPY,
		JPYEquivalent: 1000,
		RecordedAt:    today,
	}}
	fund = findFund(t, ComputeSnapshots(in, today), domain.DefaultJPYGroup)
	assert.Equal(t, -61000.0, fund.CashBalance)
	assert.Equal(t, 14000.0, fund.CurrentTotal)
}

func TestComputeSnapshots_YearlyPLWithBaseline(t *testing.T) {
	today := domain.MustParseDate("2025-06-30")
	in := SnapshotInput{
		Groups: []domain.FundingGroup{jpyGroup("Core", 1000)},
		Transactions: []domain.Transaction{
			groupTrade("a", "2024-03-01", "Core", 1, 100),
			groupTrade("b", "2024-04-01", "Core", -1, 150),
			groupTrade("c", "2025-03-01", "Core", 1, 200),
			groupTrade("d", "2025-04-01", "Core", -1, 250),
		},
	}

	fund := findFund(t, ComputeSnapshots(in, today), "Core")
	assert.Equal(t, 100.0, fund.TotalPL)
	assert.Equal(t, 50.0, fund.PreviousYearPL)
	require.NotNil(t, fund.PreviousYearPLRatio)
	assert.Equal(t, 0.05, *fund.PreviousYearPLRatio)
	assert.Equal(t, 50.0, fund.CurrentYearPL)
	require.NotNil(t, fund.CurrentYearPLRatio)
	assert.Equal(t, 0.047619, *fund.CurrentYearPLRatio)
}

func TestComputeSnapshots_CapitalAdditionMidYear(t *testing.T) {
	today := domain.MustParseDate("2025-12-15")
	in := SnapshotInput{
		Groups: []domain.FundingGroup{jpyGroup("Savings", 0)},
		Capital: []domain.CapitalAdjustment{{
			ID:            "future",
			FundingGroup:  "Savings",
			Amount:        50000,
			EffectiveDate: domain.MustParseDate("2026-01-01"),
		}},
	}

	before := findFund(t, ComputeSnapshots(in, today), "Savings")
	assert.Equal(t, 0.0, before.InitialAmount)
	assert.Equal(t, 0.0, before.CashBalance)

	in.Capital = append(in.Capital, domain.CapitalAdjustment{
		ID:            "june",
		FundingGroup:  "Savings",
		Amount:        100000,
		EffectiveDate: domain.MustParseDate("2025-06-01"),
	})
	after := findFund(t, ComputeSnapshots(in, today), "Savings")
	assert.Equal(t, 100000.0, after.InitialAmount)
	assert.Equal(t, 100000.0, after.CashBalance)
	assert.Equal(t, 0.0, after.CurrentYearPL)
	assert.Equal(t, 0.0, after.TotalPL)
	// The year-end baseline is zero, so there is no ratio.
	assert.Nil(t, after.CurrentYearPLRatio)

	// Once the future date passes it counts too.
	later := findFund(t, ComputeSnapshots(in, domain.MustParseDate("2026-01-02")), "Savings")
	assert.Equal(t, 150000.0, later.InitialAmount)
	assert.Equal(t, 0.0, later.CurrentYearPL)
}

func TestComputeSnapshots_QuietYearIsZero(t *testing.T) {
	today := domain.MustParseDate("2025-08-01")
	in := SnapshotInput{
		Groups: []domain.FundingGroup{jpyGroup("Core", 5000)},
		Transactions: []domain.Transaction{
			groupTrade("a", "2022-05-01", "Core", 2, 400),
			groupTrade("b", "2022-06-01", "Core", -1, 300),
		},
	}

	fund := findFund(t, ComputeSnapshots(in, today), "Core")
	assert.Equal(t, 0.0, fund.CurrentYearPL)
	assert.Equal(t, 0.0, fund.PreviousYearPL)
	require.NotNil(t, fund.CurrentYearPLRatio)
	assert.Equal(t, 0.0, *fund.CurrentYearPLRatio)
	assert.Equal(t, 100.0, fund.TotalPL)
}

func TestComputeSnapshots_SellWithoutInventoryStillMovesCash(t *testing.T) {
	today := domain.MustParseDate("2025-08-01")
	in := SnapshotInput{
		Groups: []domain.FundingGroup{jpyGroup("A", 0), jpyGroup("B", 0)},
		Transactions: []domain.Transaction{
			groupTrade("a", "2025-01-01", "A", 1, 100),
			groupTrade("b", "2025-01-02", "B", -1, 120),
		},
	}

	snaps := ComputeSnapshots(in, today)
	b := findFund(t, snaps, "B")
	assert.Equal(t, 120.0, b.CashBalance)
	assert.Equal(t, 0.0, b.HoldingCost)
}

func TestComputeSnapshots_AggregatesMatchFunds(t *testing.T) {
	today := domain.MustParseDate("2025-08-01")
	in := SnapshotInput{
		Groups: []domain.FundingGroup{
			jpyGroup("A", 1000),
			{Name: "Dollars", Currency: domain.CurrencyUSD, InitialAmount: 500},
			jpyGroup("B", 2500),
		},
		Transactions: []domain.Transaction{
			groupTrade("a", "2024-02-01", "A", 3, 300),
			groupTrade("b", "2025-02-01", "A", -1, 133.33),
			groupTrade("c", "2025-03-01", "B", 2, 999.99),
		},
		Capital: []domain.CapitalAdjustment{
			{ID: "c1", FundingGroup: "B", Amount: 250, EffectiveDate: domain.MustParseDate("2025-01-15")},
		},
	}

	snaps := ComputeSnapshots(in, today)

	require.Len(t, snaps.Funds, 3)
	assert.Equal(t, []string{"A", "Dollars", "B"}, []string{snaps.Funds[0].Name, snaps.Funds[1].Name, snaps.Funds[2].Name})
	require.Len(t, snaps.Aggregated, 2)
	assert.Equal(t, domain.CurrencyJPY, snaps.Aggregated[0].Currency)
	assert.Equal(t, domain.CurrencyUSD, snaps.Aggregated[1].Currency)

	jpy := snaps.Aggregated[0]
	a, b := findFund(t, snaps, "A"), findFund(t, snaps, "B")
	assert.Equal(t, 2, jpy.GroupCount)
	assert.InDelta(t, a.InitialAmount+b.InitialAmount, jpy.InitialAmount, 1e-9)
	assert.InDelta(t, a.CashBalance+b.CashBalance, jpy.CashBalance, 1e-9)
	assert.InDelta(t, a.HoldingCost+b.HoldingCost, jpy.HoldingCost, 1e-9)
	assert.InDelta(t, a.CurrentTotal+b.CurrentTotal, jpy.CurrentTotal, 1e-9)
	assert.InDelta(t, a.TotalPL+b.TotalPL, jpy.TotalPL, 1e-9)
	assert.InDelta(t, a.CurrentYearPL+b.CurrentYearPL, jpy.CurrentYearPL, 1e-9)
	assert.InDelta(t, a.PreviousYearPL+b.PreviousYearPL, jpy.PreviousYearPL, 1e-9)
}

func TestComputeSnapshots_OmitsEmptyCurrency(t *testing.T) {
	snaps := ComputeSnapshots(SnapshotInput{
		Groups: []domain.FundingGroup{jpyGroup("Only", 10)},
	}, domain.MustParseDate("2025-01-01"))

	require.Len(t, snaps.Aggregated, 1)
	assert.Equal(t, domain.CurrencyJPY, snaps.Aggregated[0].Currency)
	assert.Equal(t, 10.0, snaps.Aggregated[0].CurrentTotal)
}

func TestComputeSnapshots_NoGroups(t *testing.T) {
	snaps := ComputeSnapshots(SnapshotInput{}, domain.MustParseDate("2025-01-01"))
	assert.NotNil(t, snaps.Funds)
	assert.NotNil(t, snaps.Aggregated)
	assert.Empty(t, snaps.Funds)
	assert.Empty(t, snaps.Aggregated)
}
