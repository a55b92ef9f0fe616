// Package quotes keeps the stored latest-close snapshot for every traded instrument.
package quotes

import (
	"context"
	"fmt"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/utils"
	"github.com/rs/zerolog"
)

// Repository is the storage the quote service reads and writes.
type Repository interface {
	ListTransactions() ([]domain.Transaction, error)
	ListQuotes() ([]domain.Quote, error)
	ReplaceQuotes(quotes []domain.Quote) error
}

// PriceProvider returns the latest daily close for a ticker.
type PriceProvider interface {
	LatestClose(ctx context.Context, symbol string) (domain.PricePoint, bool, error)
}

// Service refreshes and serves quotes.
type Service struct {
	repo     Repository
	provider PriceProvider
	clock    domain.Clock
	log      zerolog.Logger
}

// NewService creates a quote service.
func NewService(repo Repository, provider PriceProvider, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{
		repo:     repo,
		provider: provider,
		clock:    clock,
		log:      log.With().Str("service", "quotes").Logger(),
	}
}

// Snapshot returns the stored quotes.
func (s *Service) Snapshot() (domain.QuoteSnapshot, error) {
	records, err := s.repo.ListQuotes()
	if err != nil {
		return domain.QuoteSnapshot{}, fmt.Errorf("failed to load quotes: %w", err)
	}
	return domain.NewQuoteSnapshot(records), nil
}

// Refresh replaces the stored quotes with fresh closes for every traded
// instrument. A snapshot already dated today is returned as is unless force
// is set. When the provider fails the stored set is kept and returned.
func (s *Service) Refresh(ctx context.Context, force bool) (domain.QuoteSnapshot, error) {
	existing, err := s.Snapshot()
	if err != nil {
		return domain.QuoteSnapshot{}, err
	}

	today := s.clock()
	if !force && existing.FreshAsOf(today) {
		s.log.Debug().Int("quotes", len(existing.Records)).Msg("Quotes already fresh")
		return existing, nil
	}

	defer utils.OperationTimer("refresh_quotes", s.log)()

	txs, err := s.repo.ListTransactions()
	if err != nil {
		return domain.QuoteSnapshot{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	records, err := s.fetch(ctx, CollectInstruments(txs), today)
	if err != nil {
		s.log.Error().Err(err).Msg("Quote refresh failed, keeping stored quotes")
		return existing, nil
	}

	if err := s.repo.ReplaceQuotes(records); err != nil {
		return domain.QuoteSnapshot{}, err
	}
	s.log.Info().Int("quotes", len(records)).Msg("Quotes refreshed")
	return domain.NewQuoteSnapshot(records), nil
}

func (s *Service) fetch(ctx context.Context, instruments []domain.SymbolMarket, today domain.Date) ([]domain.Quote, error) {
	records := []domain.Quote{}
	for _, inst := range instruments {
		point, ok, err := s.provider.LatestClose(ctx, inst.Symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", inst.Symbol, err)
		}
		if !ok {
			s.log.Warn().Str("symbol", inst.Symbol).Msg("No close available, skipping")
			continue
		}
		records = append(records, domain.Quote{
			Symbol:   inst.Symbol,
			Market:   inst.Market,
			Price:    utils.Round6(point.Close),
			Currency: domain.MarketCurrency(inst.Market),
			AsOf:     today,
		})
	}
	return records, nil
}

// CollectInstruments returns the distinct (symbol, market) pairs in first-seen order.
func CollectInstruments(txs []domain.Transaction) []domain.SymbolMarket {
	seen := make(map[domain.SymbolMarket]bool)
	out := []domain.SymbolMarket{}
	for _, tx := range txs {
		key := domain.SymbolMarket{Symbol: tx.Symbol, Market: tx.Market}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
