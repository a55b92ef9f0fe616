package quotes

import (
	"context"
	"errors"
	"testing"

	"github.com/kabumemo/kabumemo/internal/domain"
	testingpkg "github.com/kabumemo/kabumemo/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = domain.MustParseDate("2025-09-16")

func setup(t *testing.T) (*Service, *testingpkg.MockPriceProvider) {
	t.Helper()
	repo := testingpkg.NewSeededRepository(t)

	for _, tx := range []domain.Transaction{
		testingpkg.JPTrade("t1", "2025-09-01", 10, 150000),
		testingpkg.USTrade("t2", "2025-09-02", "AAPL", 2, 400),
		testingpkg.JPTrade("t3", "2025-09-03", -5, 90000),
	} {
		_, err := repo.AddTransaction(tx)
		require.NoError(t, err)
	}

	provider := testingpkg.NewMockPriceProvider()
	return NewService(repo, provider, domain.FixedClock(today), zerolog.Nop()), provider
}

func TestRefresh_StoresLatestCloses(t *testing.T) {
	svc, provider := setup(t)
	provider.SetCloses("7203.T", []domain.PricePoint{
		{Date: domain.MustParseDate("2025-09-12"), Close: 2480},
		{Date: domain.MustParseDate("2025-09-15"), Close: 2501.1234567},
	})
	provider.SetCloses("AAPL", []domain.PricePoint{{Date: domain.MustParseDate("2025-09-15"), Close: 230.5}})

	snap, err := svc.Refresh(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, today, snap.AsOf)
	assert.Equal(t, []domain.Quote{
		{Symbol: "7203.T", Market: domain.MarketJP, Price: 2501.123457, Currency: domain.CurrencyJPY, AsOf: today},
		{Symbol: "AAPL", Market: domain.MarketUS, Price: 230.5, Currency: domain.CurrencyUSD, AsOf: today},
	}, snap.Records)

	stored, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap.Records, stored.Records)
}

func TestRefresh_FreshSnapshotIsReused(t *testing.T) {
	svc, provider := setup(t)
	provider.SetCloses("7203.T", []domain.PricePoint{{Date: today, Close: 2500}})
	provider.SetCloses("AAPL", []domain.PricePoint{{Date: today, Close: 230}})

	_, err := svc.Refresh(context.Background(), false)
	require.NoError(t, err)
	calls := len(provider.Calls())

	_, err = svc.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, provider.Calls(), calls)

	_, err = svc.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, provider.Calls(), 2*calls)
}

func TestRefresh_SkipsTickersWithoutData(t *testing.T) {
	svc, provider := setup(t)
	provider.SetCloses("AAPL", []domain.PricePoint{{Date: today, Close: 230}})

	snap, err := svc.Refresh(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "AAPL", snap.Records[0].Symbol)
}

func TestRefresh_ProviderFailureKeepsStoredSet(t *testing.T) {
	svc, provider := setup(t)
	provider.SetCloses("7203.T", []domain.PricePoint{{Date: today, Close: 2500}})
	provider.SetCloses("AAPL", []domain.PricePoint{{Date: today, Close: 230}})
	before, err := svc.Refresh(context.Background(), false)
	require.NoError(t, err)

	provider.SetError(errors.New("connection refused"))
	after, err := svc.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	stored, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before.Records, stored.Records)
}

func TestSnapshot_Empty(t *testing.T) {
	svc, _ := setup(t)

	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.NotNil(t, snap.Records)
	assert.Empty(t, snap.Records)
	assert.True(t, snap.AsOf.IsZero())
}

func TestCollectInstruments(t *testing.T) {
	txs := []domain.Transaction{
		testingpkg.USTrade("a", "2025-01-01", "MSFT", 1, 100),
		testingpkg.JPTrade("b", "2025-01-02", 1, 100),
		testingpkg.USTrade("c", "2025-01-03", "MSFT", -1, 120),
		testingpkg.Trade("d", "2025-01-04", "MSFT", 1, 100, domain.DefaultJPYGroup, domain.CurrencyJPY, domain.MarketUS),
	}

	assert.Equal(t, []domain.SymbolMarket{
		{Symbol: "MSFT", Market: domain.MarketUS},
		{Symbol: "7203.T", Market: domain.MarketJP},
	}, CollectInstruments(txs))
}
