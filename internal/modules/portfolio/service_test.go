package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) ListTransactions() ([]domain.Transaction, error) {
	args := m.Called()
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *mockRepository) ListFxExchanges() ([]domain.FxExchange, error) {
	args := m.Called()
	return args.Get(0).([]domain.FxExchange), args.Error(1)
}

type mockPrices struct {
	mock.Mock
}

func (m *mockPrices) DailyCloses(ctx context.Context, symbol string, period string) ([]domain.PricePoint, error) {
	args := m.Called(ctx, symbol, period)
	points, _ := args.Get(0).([]domain.PricePoint)
	return points, args.Error(1)
}

func TestNormalizePeriod(t *testing.T) {
	tests := map[string]string{
		"1y":    "1y",
		"1YEAR": "1y",
		" 6mo ": "6mo",
		"max":   "max",
		"10y":   DefaultHistoryPeriod,
		"":      DefaultHistoryPeriod,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePeriod(in), "period %q", in)
	}
}

func TestService_Positions(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListTransactions").Return([]domain.Transaction{
		jpTrade("buy", "2025-09-01", 10, 150000),
	}, nil)

	svc := NewService(repo, nil, zerolog.Nop())
	positions, err := svc.Positions()

	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 10.0, positions[0].Breakdown[0].Quantity)
	repo.AssertExpectations(t)
}

func TestService_PositionsRepositoryError(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListTransactions").Return([]domain.Transaction(nil), errors.New("disk gone"))

	svc := NewService(repo, nil, zerolog.Nop())
	_, err := svc.Positions()

	assert.Error(t, err)
}

func TestService_History(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListTransactions").Return([]domain.Transaction{
		jpTrade("buy", "2025-09-01", 10, 150000),
	}, nil)
	repo.On("ListFxExchanges").Return([]domain.FxExchange{}, nil)

	series := []domain.PricePoint{{Date: domain.MustParseDate("2025-09-01"), Close: 15100}}
	prices := new(mockPrices)
	prices.On("DailyCloses", mock.Anything, "7203.T", "3mo").Return(series, nil)

	svc := NewService(repo, prices, zerolog.Nop())
	history, err := svc.History(context.Background(), "7203", domain.MarketJP, "3mo")

	require.NoError(t, err)
	assert.Equal(t, "7203.T", history.Symbol)
	assert.Equal(t, domain.CurrencyJPY, history.Currency)
	assert.Equal(t, series, history.Series)
	require.Len(t, history.Markers, 1)
	assert.Equal(t, 15000.0, history.Markers[0].Price)
	prices.AssertExpectations(t)
}

func TestService_HistoryProviderFailureYieldsEmptySeries(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListTransactions").Return([]domain.Transaction{}, nil)
	repo.On("ListFxExchanges").Return([]domain.FxExchange{}, nil)

	prices := new(mockPrices)
	prices.On("DailyCloses", mock.Anything, "AAPL", DefaultHistoryPeriod).Return(nil, errors.New("timeout"))

	svc := NewService(repo, prices, zerolog.Nop())
	history, err := svc.History(context.Background(), "AAPL", domain.MarketUS, "bogus")

	require.NoError(t, err)
	assert.NotNil(t, history.Series)
	assert.Empty(t, history.Series)
	assert.Empty(t, history.Markers)
}

func TestService_HistoryRejectsEmptySymbol(t *testing.T) {
	svc := NewService(new(mockRepository), nil, zerolog.Nop())
	_, err := svc.History(context.Background(), "  ", domain.MarketUS, "1y")
	assert.True(t, domain.IsValidation(err))
}
