package funds

import (
	"testing"

	"github.com/kabumemo/kabumemo/internal/domain"
	testingpkg "github.com/kabumemo/kabumemo/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, today string) *Service {
	t.Helper()
	repo := testingpkg.NewSeededRepository(t)
	return NewService(repo, domain.FixedClock(domain.MustParseDate(today)), zerolog.Nop())
}

func TestService_UpsertAndListGroups(t *testing.T) {
	svc := newTestService(t, "2025-10-01")

	saved, err := svc.UpsertGroup(domain.FundingGroup{Name: "  NISA ", Currency: domain.CurrencyJPY, InitialAmount: 500000})
	require.NoError(t, err)
	assert.Equal(t, "NISA", saved.Name)

	_, err = svc.UpsertGroup(domain.FundingGroup{Name: "NISA", Currency: domain.CurrencyJPY, InitialAmount: 600000})
	require.NoError(t, err)

	groups, err := svc.ListGroups()
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, domain.DefaultJPYGroup, groups[0].Name)
	assert.Equal(t, "NISA", groups[2].Name)
	assert.Equal(t, 600000.0, groups[2].InitialAmount)
}

func TestService_UpsertGroupRejectsNegativeInitial(t *testing.T) {
	svc := newTestService(t, "2025-10-01")

	_, err := svc.UpsertGroup(domain.FundingGroup{Name: "Bad", Currency: domain.CurrencyJPY, InitialAmount: -1})
	assert.True(t, domain.IsValidation(err))
}

func TestService_PatchGroup(t *testing.T) {
	svc := newTestService(t, "2025-10-01")

	amount := 2500.0
	patched, err := svc.PatchGroup(domain.DefaultUSDGroup, domain.FundingGroupPatch{InitialAmount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, patched.InitialAmount)
	assert.Equal(t, domain.CurrencyUSD, patched.Currency)

	_, err = svc.PatchGroup("Missing", domain.FundingGroupPatch{InitialAmount: &amount})
	assert.True(t, domain.IsNotFound(err))
}

func TestService_CapitalLifecycle(t *testing.T) {
	svc := newTestService(t, "2025-12-15")

	_, err := svc.AddCapital("Missing", 100, domain.MustParseDate("2025-01-01"), nil)
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.AddCapital(domain.DefaultJPYGroup, 0, domain.MustParseDate("2025-01-01"), nil)
	assert.True(t, domain.IsValidation(err))

	late, err := svc.AddCapital(domain.DefaultJPYGroup, 50000, domain.MustParseDate("2026-01-01"), nil)
	require.NoError(t, err)
	early, err := svc.AddCapital(domain.DefaultJPYGroup, 100000, domain.MustParseDate("2025-06-01"), testingpkg.StringPtr("bonus"))
	require.NoError(t, err)
	_, err = svc.AddCapital(domain.DefaultUSDGroup, 10, domain.Date{}, nil)
	require.NoError(t, err)

	all, err := svc.ListCapital("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, early.ID, all[0].ID)

	jpy, err := svc.ListCapital(domain.DefaultJPYGroup)
	require.NoError(t, err)
	require.Len(t, jpy, 2)
	assert.Equal(t, late.ID, jpy[1].ID)

	snaps, err := svc.Snapshots()
	require.NoError(t, err)
	fund := findFund(t, snaps, domain.DefaultJPYGroup)
	assert.Equal(t, 100000.0, fund.InitialAmount)
	assert.Equal(t, 100000.0, fund.CashBalance)
	assert.Equal(t, 0.0, fund.CurrentYearPL)

	require.NoError(t, svc.DeleteCapital(early.ID))
	assert.True(t, domain.IsNotFound(svc.DeleteCapital(early.ID)))

	snaps, err = svc.Snapshots()
	require.NoError(t, err)
	assert.Equal(t, 0.0, findFund(t, snaps, domain.DefaultJPYGroup).InitialAmount)
}

func TestService_DeleteGroupCascadesCapital(t *testing.T) {
	svc := newTestService(t, "2025-10-01")

	_, err := svc.AddCapital(domain.DefaultUSDGroup, 300, domain.MustParseDate("2025-02-01"), nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGroup(domain.DefaultUSDGroup))
	assert.True(t, domain.IsNotFound(svc.DeleteGroup(domain.DefaultUSDGroup)))

	capital, err := svc.ListCapital("")
	require.NoError(t, err)
	assert.Empty(t, capital)

	snaps, err := svc.Snapshots()
	require.NoError(t, err)
	require.Len(t, snaps.Funds, 1)
	require.Len(t, snaps.Aggregated, 1)
	assert.Equal(t, domain.CurrencyJPY, snaps.Aggregated[0].Currency)
}
