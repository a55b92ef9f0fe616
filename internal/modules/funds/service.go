package funds

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/rs/zerolog"
)

// Repository is the storage the funds service reads and writes.
type Repository interface {
	ListTransactions() ([]domain.Transaction, error)
	ListTaxSettlements() ([]domain.TaxSettlement, error)
	ListFundingGroups() ([]domain.FundingGroup, error)
	UpsertFundingGroup(group domain.FundingGroup) (domain.FundingGroup, error)
	PatchFundingGroup(name string, patch domain.FundingGroupPatch) (domain.FundingGroup, error)
	DeleteFundingGroup(name string) error
	ListCapitalAdjustments() ([]domain.CapitalAdjustment, error)
	AddCapitalAdjustment(adj domain.CapitalAdjustment) (domain.CapitalAdjustment, error)
	DeleteCapitalAdjustment(id string) error
}

// Service manages funding groups and capital, and evaluates fund snapshots.
type Service struct {
	repo  Repository
	clock domain.Clock
	log   zerolog.Logger
}

// NewService creates a funds service.
func NewService(repo Repository, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{
		repo:  repo,
		clock: clock,
		log:   log.With().Str("service", "funds").Logger(),
	}
}

// Snapshots evaluates every funding group as of today.
func (s *Service) Snapshots() (Snapshots, error) {
	txs, err := s.repo.ListTransactions()
	if err != nil {
		return Snapshots{}, fmt.Errorf("failed to load transactions: %w", err)
	}
	groups, err := s.repo.ListFundingGroups()
	if err != nil {
		return Snapshots{}, fmt.Errorf("failed to load funding groups: %w", err)
	}
	settlements, err := s.repo.ListTaxSettlements()
	if err != nil {
		return Snapshots{}, fmt.Errorf("failed to load tax settlements: %w", err)
	}
	capital, err := s.repo.ListCapitalAdjustments()
	if err != nil {
		return Snapshots{}, fmt.Errorf("failed to load capital adjustments: %w", err)
	}

	return ComputeSnapshots(SnapshotInput{
		Transactions: txs,
		Groups:       groups,
		Settlements:  settlements,
		Capital:      capital,
	}, s.clock()), nil
}

// ListGroups returns funding groups in stored order.
func (s *Service) ListGroups() ([]domain.FundingGroup, error) {
	return s.repo.ListFundingGroups()
}

// UpsertGroup creates a funding group or replaces the one with the same name.
func (s *Service) UpsertGroup(group domain.FundingGroup) (domain.FundingGroup, error) {
	group.Name = strings.TrimSpace(group.Name)
	if err := group.Validate(); err != nil {
		return domain.FundingGroup{}, err
	}
	saved, err := s.repo.UpsertFundingGroup(group)
	if err != nil {
		return domain.FundingGroup{}, err
	}
	s.log.Info().Str("group", saved.Name).Str("currency", string(saved.Currency)).Msg("Funding group saved")
	return saved, nil
}

// PatchGroup applies a partial update to an existing group.
func (s *Service) PatchGroup(name string, patch domain.FundingGroupPatch) (domain.FundingGroup, error) {
	return s.repo.PatchFundingGroup(name, patch)
}

// DeleteGroup removes a group and its capital adjustments. Trades that still
// reference the group are left untouched.
func (s *Service) DeleteGroup(name string) error {
	if err := s.repo.DeleteFundingGroup(name); err != nil {
		return err
	}
	s.log.Info().Str("group", name).Msg("Funding group deleted")
	return nil
}

// ListCapital returns capital adjustments ordered by (effective_date, id),
// optionally restricted to one group.
func (s *Service) ListCapital(group string) ([]domain.CapitalAdjustment, error) {
	items, err := s.repo.ListCapitalAdjustments()
	if err != nil {
		return nil, err
	}
	out := make([]domain.CapitalAdjustment, 0, len(items))
	for _, item := range items {
		if group == "" || item.FundingGroup == group {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].EffectiveDate.Compare(out[j].EffectiveDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AddCapital records a contribution to the named group.
func (s *Service) AddCapital(group string, amount float64, effective domain.Date, notes *string) (domain.CapitalAdjustment, error) {
	adj := domain.CapitalAdjustment{
		ID:            uuid.New().String(),
		FundingGroup:  group,
		Amount:        amount,
		EffectiveDate: effective,
		Notes:         notes,
	}
	if adj.EffectiveDate.IsZero() {
		adj.EffectiveDate = s.clock()
	}
	if err := adj.Validate(); err != nil {
		return domain.CapitalAdjustment{}, err
	}
	saved, err := s.repo.AddCapitalAdjustment(adj)
	if err != nil {
		return domain.CapitalAdjustment{}, err
	}
	s.log.Info().
		Str("group", group).
		Float64("amount", amount).
		Str("effective_date", saved.EffectiveDate.String()).
		Msg("Capital adjustment added")
	return saved, nil
}

// DeleteCapital removes a capital adjustment by id.
func (s *Service) DeleteCapital(id string) error {
	return s.repo.DeleteCapitalAdjustment(id)
}
