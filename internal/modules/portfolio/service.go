package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/rs/zerolog"
)

// Repository is the storage the portfolio service reads from.
type Repository interface {
	ListTransactions() ([]domain.Transaction, error)
	ListFxExchanges() ([]domain.FxExchange, error)
}

// PriceHistoryProvider fetches daily closes for a ticker.
type PriceHistoryProvider interface {
	DailyCloses(ctx context.Context, symbol string, period string) ([]domain.PricePoint, error)
}

// DefaultHistoryPeriod is used when the requested period is not supported.
const DefaultHistoryPeriod = "1y"

var historyPeriods = map[string]string{
	"1mo": "1mo", "3mo": "3mo", "6mo": "6mo",
	"1y": "1y", "1yr": "1y", "1year": "1y",
	"2y": "2y", "5y": "5y", "ytd": "ytd", "max": "max",
}

// NormalizePeriod maps user input to a supported chart range.
func NormalizePeriod(period string) string {
	if p, ok := historyPeriods[strings.ToLower(strings.TrimSpace(period))]; ok {
		return p
	}
	return DefaultHistoryPeriod
}

// Service derives positions and position history from stored trades.
type Service struct {
	repo   Repository
	prices PriceHistoryProvider
	log    zerolog.Logger
}

// NewService creates a portfolio service. prices may be nil, in which case
// history series are always empty.
func NewService(repo Repository, prices PriceHistoryProvider, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		prices: prices,
		log:    log.With().Str("service", "portfolio").Logger(),
	}
}

// Positions returns the derived positions for every traded symbol.
func (s *Service) Positions() ([]Position, error) {
	txs, err := s.repo.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return ComputePositions(txs), nil
}

// History returns the daily close series and trade markers for one instrument.
// Provider failures yield an empty series.
func (s *Service) History(ctx context.Context, symbol string, market domain.Market, period string) (*PositionHistory, error) {
	symbol = domain.NormalizeSymbol(symbol, market)
	if symbol == "" {
		return nil, domain.NewFieldError("symbol", "must not be empty")
	}

	txs, err := s.repo.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	fx, err := s.repo.ListFxExchanges()
	if err != nil {
		return nil, fmt.Errorf("failed to load fx exchanges: %w", err)
	}

	series := []domain.PricePoint{}
	if s.prices != nil {
		points, err := s.prices.DailyCloses(ctx, symbol, NormalizePeriod(period))
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch price history")
		} else if points != nil {
			series = points
		}
	}

	return &PositionHistory{
		Symbol:   symbol,
		Market:   market,
		Currency: domain.MarketCurrency(market),
		Series:   series,
		Markers:  BuildTradeMarkers(txs, fx, symbol, market),
	}, nil
}
