package trading

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/utils"
	"github.com/rs/zerolog"
)

// Repository is the storage the trading service reads and writes.
type Repository interface {
	ListTransactions() ([]domain.Transaction, error)
	GetTransaction(id string) (domain.Transaction, error)
	AddTransaction(tx domain.Transaction) (domain.Transaction, error)
	UpdateTransaction(tx domain.Transaction) (domain.Transaction, error)
	DeleteTransaction(id string) error
	GetFundingGroup(name string) (domain.FundingGroup, error)
	ListTaxSettlements() ([]domain.TaxSettlement, error)
}

// Service records, edits and removes trades.
type Service struct {
	repo  Repository
	clock domain.Clock
	log   zerolog.Logger
}

// NewService creates a trading service.
func NewService(repo Repository, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{
		repo:  repo,
		clock: clock,
		log:   log.With().Str("service", "trading").Logger(),
	}
}

// List returns trades in stored order.
func (s *Service) List() ([]domain.Transaction, error) {
	return s.repo.ListTransactions()
}

// Create records a new trade. A zero trade date means today.
func (s *Service) Create(f domain.TransactionFields) (domain.Transaction, error) {
	if f.TradeDate.IsZero() {
		f.TradeDate = s.clock()
	}
	tx, err := domain.NewTransaction(uuid.New().String(), f)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := s.checkFundingGroup(tx); err != nil {
		return domain.Transaction{}, err
	}
	if err := s.checkInventory(tx, ""); err != nil {
		return domain.Transaction{}, err
	}

	saved, err := s.repo.AddTransaction(tx)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.log.Info().
		Str("id", saved.ID).
		Str("symbol", saved.Symbol).
		Float64("quantity", saved.Quantity).
		Str("funding_group", saved.FundingGroup).
		Msg("Transaction recorded")
	return saved, nil
}

// Replace overwrites every field of an existing trade. A nil Taxed keeps the
// stored flag; a zero trade date keeps the stored date.
func (s *Service) Replace(id string, f domain.TransactionFields) (domain.Transaction, error) {
	existing, err := s.repo.GetTransaction(id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if f.TradeDate.IsZero() {
		f.TradeDate = existing.TradeDate
	}
	if f.Taxed == nil {
		taxed := existing.Taxed
		f.Taxed = &taxed
	}

	tx, err := domain.NewTransaction(id, f)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := s.checkFundingGroup(tx); err != nil {
		return domain.Transaction{}, err
	}
	if err := s.checkInventory(tx, id); err != nil {
		return domain.Transaction{}, err
	}

	settled, err := s.hasSettlement(id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if settled {
		if tx.Taxed == domain.TaxStatusNo {
			return domain.Transaction{}, domain.NewConflictError("Cannot mark transaction as untaxed while a tax settlement exists")
		}
		// Settlements are booked against the trade's group and its currency.
		if tx.FundingGroup != existing.FundingGroup || tx.CashCurrency != existing.CashCurrency {
			return domain.Transaction{}, domain.NewConflictError("Cannot change funding group or cash currency while a tax settlement exists")
		}
	}

	saved, err := s.repo.UpdateTransaction(tx)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.log.Info().Str("id", id).Msg("Transaction updated")
	return saved, nil
}

// Delete removes a trade together with its tax settlements and FX links.
func (s *Service) Delete(id string) error {
	if err := s.repo.DeleteTransaction(id); err != nil {
		return err
	}
	s.log.Info().Str("id", id).Msg("Transaction deleted")
	return nil
}

// RoundTripYield resolves ids and evaluates them as one round trip.
func (s *Service) RoundTripYield(ids []string) (*RoundTripYield, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) < 2 {
		return nil, domain.NewValidationError("Select at least two distinct transactions")
	}

	txs, err := s.repo.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	byID := make(map[string]domain.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}

	selected := make([]domain.Transaction, 0, len(unique))
	for _, id := range unique {
		tx, ok := byID[id]
		if !ok {
			return nil, domain.NewNotFoundError("transaction", id)
		}
		selected = append(selected, tx)
	}

	settlements, err := s.repo.ListTaxSettlements()
	if err != nil {
		return nil, fmt.Errorf("failed to load tax settlements: %w", err)
	}
	return ComputeRoundTripYield(selected, settlements)
}

func (s *Service) checkFundingGroup(tx domain.Transaction) error {
	if _, err := s.repo.GetFundingGroup(tx.FundingGroup); err != nil {
		if domain.IsNotFound(err) {
			return domain.NewConflictError("Funding group not found")
		}
		return err
	}
	return nil
}

// checkInventory rejects a sell larger than the quantity held for the same
// symbol, market and cash currency across all groups. exclude skips the
// trade being replaced.
func (s *Service) checkInventory(tx domain.Transaction, exclude string) error {
	if !tx.IsSell() {
		return nil
	}
	txs, err := s.repo.ListTransactions()
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	var available float64
	for _, other := range txs {
		if other.ID == exclude {
			continue
		}
		if other.Symbol == tx.Symbol && other.Market == tx.Market && other.CashCurrency == tx.CashCurrency {
			available += other.Quantity
		}
	}
	if available+tx.Quantity < -utils.QuantityEpsilon {
		return domain.NewConflictError("Insufficient position to complete sell order")
	}
	return nil
}

func (s *Service) hasSettlement(id string) (bool, error) {
	settlements, err := s.repo.ListTaxSettlements()
	if err != nil {
		return false, fmt.Errorf("failed to load tax settlements: %w", err)
	}
	for _, st := range settlements {
		if st.TransactionID == id {
			return true, nil
		}
	}
	return false, nil
}
