package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kabumemo/kabumemo/internal/domain"
	testingpkg "github.com/kabumemo/kabumemo/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	fn   func() error
}

func (j funcJob) Name() string { return j.name }
func (j funcJob) Run() error   { return j.fn() }

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context, force bool) (domain.QuoteSnapshot, error) {
	args := m.Called(ctx, force)
	return args.Get(0).(domain.QuoteSnapshot), args.Error(1)
}

func TestRunNow_HoldsLock(t *testing.T) {
	var mu sync.Mutex
	s := New(&mu, zerolog.Nop())

	locked := false
	err := s.RunNow(funcJob{name: "probe", fn: func() error {
		locked = !mu.TryLock()
		return nil
	}})
	require.NoError(t, err)
	assert.True(t, locked)

	// Released afterwards.
	assert.True(t, mu.TryLock())
	mu.Unlock()
}

func TestRunNow_PropagatesError(t *testing.T) {
	s := New(nil, zerolog.Nop())
	err := s.RunNow(funcJob{name: "boom", fn: func() error { return errors.New("boom") }})
	assert.EqualError(t, err, "boom")
}

func TestAddJob(t *testing.T) {
	s := New(nil, zerolog.Nop())
	job := funcJob{name: "noop", fn: func() error { return nil }}

	assert.NoError(t, s.AddJob("", job))
	assert.Empty(t, s.cron.Entries())

	assert.NoError(t, s.AddJob("0 30 16 * * MON-FRI", job))
	assert.Len(t, s.cron.Entries(), 1)

	assert.Error(t, s.AddJob("every day", job))
}

func TestQuoteRefreshJob(t *testing.T) {
	refresher := new(mockRefresher)
	refresher.On("Refresh", mock.Anything, false).
		Return(domain.QuoteSnapshot{Records: []domain.Quote{{Symbol: "AAPL"}}}, nil).Once()

	job := NewQuoteRefreshJob(refresher, zerolog.Nop())
	assert.Equal(t, "quote_refresh", job.Name())
	require.NoError(t, job.Run())
	refresher.AssertExpectations(t)

	refresher.On("Refresh", mock.Anything, false).Return(domain.QuoteSnapshot{}, errors.New("disk full")).Once()
	assert.Error(t, job.Run())
}

func TestWALCheckpointJob(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, t.TempDir())
	defer cleanup()

	job := NewWALCheckpointJob(db, zerolog.Nop())
	assert.Equal(t, "wal_checkpoint", job.Name())
	assert.NoError(t, job.Run())

	assert.NoError(t, NewWALCheckpointJob(nil, zerolog.Nop()).Run())
}

func TestMirrorCheckJob_ResyncsDrift(t *testing.T) {
	repo := testingpkg.NewSeededRepository(t)
	_, err := repo.AddTransaction(testingpkg.JPTrade("t1", "2025-09-01", 10, 150000))
	require.NoError(t, err)

	db := repo.Mirror().DB()
	_, err = db.Conn().Exec("DELETE FROM transactions")
	require.NoError(t, err)

	report, err := repo.CheckSync(context.Background())
	require.NoError(t, err)
	require.False(t, report.Clean())

	job := NewMirrorCheckJob(db, repo, zerolog.Nop())
	require.NoError(t, job.Run())

	report, err = repo.CheckSync(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestMirrorCheckJob_Clean(t *testing.T) {
	repo := testingpkg.NewSeededRepository(t)
	job := NewMirrorCheckJob(repo.Mirror().DB(), repo, zerolog.Nop())
	assert.Equal(t, "mirror_check", job.Name())
	assert.NoError(t, job.Run())
}
