// Package currency records JPY/USD conversions and links them to trades.
package currency

import (
	"sort"

	"github.com/google/uuid"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/rs/zerolog"
)

// Repository is the storage the FX service reads and writes.
type Repository interface {
	GetTransaction(id string) (domain.Transaction, error)
	ListFxExchanges() ([]domain.FxExchange, error)
	AddFxExchange(f domain.FxExchange) (domain.FxExchange, error)
	DeleteFxExchange(id string) error
}

// ExchangeRequest is a new conversion. A zero ExchangeDate means today.
type ExchangeRequest struct {
	ExchangeDate  domain.Date
	FromCurrency  domain.Currency
	ToCurrency    domain.Currency
	FromAmount    float64
	Rate          float64
	TransactionID *string
	Notes         *string
}

// Service manages FX exchange records.
type Service struct {
	repo  Repository
	clock domain.Clock
	log   zerolog.Logger
}

// NewService creates an FX service.
func NewService(repo Repository, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{
		repo:  repo,
		clock: clock,
		log:   log.With().Str("service", "currency").Logger(),
	}
}

// List returns exchanges ordered by (exchange_date, id).
func (s *Service) List() ([]domain.FxExchange, error) {
	items, err := s.repo.ListFxExchanges()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if c := items[i].ExchangeDate.Compare(items[j].ExchangeDate); c != 0 {
			return c < 0
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Create records a conversion and derives its to_amount.
func (s *Service) Create(req ExchangeRequest) (domain.FxExchange, error) {
	fx := domain.FxExchange{
		ID:            uuid.New().String(),
		ExchangeDate:  req.ExchangeDate,
		FromCurrency:  req.FromCurrency,
		ToCurrency:    req.ToCurrency,
		FromAmount:    req.FromAmount,
		Rate:          req.Rate,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	}
	if fx.ExchangeDate.IsZero() {
		fx.ExchangeDate = s.clock()
	}
	if fx.TransactionID != nil && *fx.TransactionID == "" {
		fx.TransactionID = nil
	}

	if err := fx.Validate(); err != nil {
		return domain.FxExchange{}, err
	}
	fx.Normalize()

	if fx.TransactionID != nil {
		if _, err := s.repo.GetTransaction(*fx.TransactionID); err != nil {
			return domain.FxExchange{}, err
		}
	}

	saved, err := s.repo.AddFxExchange(fx)
	if err != nil {
		return domain.FxExchange{}, err
	}
	s.log.Info().
		Str("id", saved.ID).
		Str("from", string(saved.FromCurrency)).
		Str("to", string(saved.ToCurrency)).
		Float64("rate", saved.Rate).
		Msg("FX exchange recorded")
	return saved, nil
}

// Delete removes an exchange by id.
func (s *Service) Delete(id string) error {
	return s.repo.DeleteFxExchange(id)
}
