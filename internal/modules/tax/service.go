// Package tax records tax paid against trades and keeps each trade's taxed
// flag in step with its settlements.
package tax

import (
	"github.com/google/uuid"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/rs/zerolog"
)

// Repository is the storage the tax service reads and writes.
type Repository interface {
	GetTransaction(id string) (domain.Transaction, error)
	SetTransactionTaxStatus(id string, status domain.TaxStatus) (domain.Transaction, error)
	GetFundingGroup(name string) (domain.FundingGroup, error)
	ListTaxSettlements() ([]domain.TaxSettlement, error)
	GetTaxSettlement(id string) (domain.TaxSettlement, error)
	AddTaxSettlement(s domain.TaxSettlement) (domain.TaxSettlement, error)
	UpdateTaxSettlement(s domain.TaxSettlement) (domain.TaxSettlement, error)
	DeleteTaxSettlement(id string) error
}

// SettlementRequest is a new tax payment against a trade.
type SettlementRequest struct {
	TransactionID string
	FundingGroup  string
	Amount        float64
	Currency      domain.Currency
}

// Service manages tax settlements.
type Service struct {
	repo  Repository
	clock domain.Clock
	log   zerolog.Logger
}

// NewService creates a tax service.
func NewService(repo Repository, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{
		repo:  repo,
		clock: clock,
		log:   log.With().Str("service", "tax").Logger(),
	}
}

// List returns settlements in stored order.
func (s *Service) List() ([]domain.TaxSettlement, error) {
	return s.repo.ListTaxSettlements()
}

// Record stores a settlement and marks its trade as taxed. Tax is always paid
// in JPY.
func (s *Service) Record(req SettlementRequest) (domain.TaxSettlement, error) {
	if req.Currency != domain.CurrencyJPY {
		return domain.TaxSettlement{}, domain.NewFieldError("currency", "tax payments must be made in JPY")
	}

	tx, err := s.repo.GetTransaction(req.TransactionID)
	if err != nil {
		return domain.TaxSettlement{}, err
	}
	if tx.Taxed == domain.TaxStatusYes {
		return domain.TaxSettlement{}, domain.NewConflictError("Transaction already marked as taxed")
	}
	if tx.FundingGroup != req.FundingGroup {
		return domain.TaxSettlement{}, domain.NewConflictError("Funding group does not match transaction record")
	}
	if err := s.checkGroupCurrency(req.FundingGroup, req.Currency); err != nil {
		return domain.TaxSettlement{}, err
	}

	settlement := domain.TaxSettlement{
		ID:            uuid.New().String(),
		TransactionID: req.TransactionID,
		FundingGroup:  req.FundingGroup,
		Amount:        req.Amount,
		Currency:      req.Currency,
		RecordedAt:    s.clock(),
	}
	settlement.Normalize()
	if err := settlement.Validate(); err != nil {
		return domain.TaxSettlement{}, err
	}

	if _, err := s.repo.SetTransactionTaxStatus(tx.ID, domain.TaxStatusYes); err != nil {
		return domain.TaxSettlement{}, err
	}
	saved, err := s.repo.AddTaxSettlement(settlement)
	if err != nil {
		if _, revertErr := s.repo.SetTransactionTaxStatus(tx.ID, tx.Taxed); revertErr != nil {
			s.log.Error().Err(revertErr).Str("transaction_id", tx.ID).Msg("Failed to revert taxed flag")
		}
		return domain.TaxSettlement{}, err
	}

	s.log.Info().
		Str("id", saved.ID).
		Str("transaction_id", saved.TransactionID).
		Float64("amount", saved.Amount).
		Msg("Tax settlement recorded")
	return saved, nil
}

// Update changes the group or amount of a settlement. Currency and
// recorded_at never change.
func (s *Service) Update(id string, patch domain.TaxSettlementPatch) (domain.TaxSettlement, error) {
	original, err := s.repo.GetTaxSettlement(id)
	if err != nil {
		return domain.TaxSettlement{}, err
	}
	tx, err := s.repo.GetTransaction(original.TransactionID)
	if err != nil {
		return domain.TaxSettlement{}, err
	}

	updated := original
	if patch.FundingGroup != nil && *patch.FundingGroup != "" {
		updated.FundingGroup = *patch.FundingGroup
	}
	if patch.Amount != nil {
		updated.Amount = *patch.Amount
	}

	if tx.FundingGroup != updated.FundingGroup {
		return domain.TaxSettlement{}, domain.NewConflictError("Funding group must match the transaction record")
	}
	if err := s.checkGroupCurrency(updated.FundingGroup, updated.Currency); err != nil {
		return domain.TaxSettlement{}, err
	}

	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return domain.TaxSettlement{}, err
	}
	return s.repo.UpdateTaxSettlement(updated)
}

// Delete removes a settlement and marks its trade as untaxed.
func (s *Service) Delete(id string) error {
	settlement, err := s.repo.GetTaxSettlement(id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTaxSettlement(id); err != nil {
		return err
	}
	if _, err := s.repo.SetTransactionTaxStatus(settlement.TransactionID, domain.TaxStatusNo); err != nil {
		return err
	}
	s.log.Info().Str("id", id).Str("transaction_id", settlement.TransactionID).Msg("Tax settlement deleted")
	return nil
}

func (s *Service) checkGroupCurrency(name string, currency domain.Currency) error {
	group, err := s.repo.GetFundingGroup(name)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.NewConflictError("Funding group not found")
		}
		return err
	}
	if group.Currency != currency {
		return domain.NewConflictError("Tax payment currency must match funding group currency")
	}
	return nil
}
