package clientdata

import (
	"encoding/json"
	"testing"
	"time"

	testingpkg "github.com/kabumemo/kabumemo/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedSeries struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
}

func setupRepo(t *testing.T) (*Repository, *time.Time) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, t.TempDir())
	t.Cleanup(cleanup)

	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepository(db.Conn())
	repo.now = func() time.Time { return now }
	return repo, &now
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo, _ := setupRepo(t)

	in := cachedSeries{Symbol: "7203.T", Closes: []float64{2500, 2510.5}}
	require.NoError(t, repo.Store(TablePriceHistory, "7203.T|1y", in, time.Hour))

	raw, err := repo.GetIfFresh(TablePriceHistory, "7203.T|1y")
	require.NoError(t, err)
	require.NotNil(t, raw)

	var out cachedSeries
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestGetIfFresh_Expired(t *testing.T) {
	repo, now := setupRepo(t)
	require.NoError(t, repo.Store(TablePriceHistory, "AAPL|1mo", cachedSeries{Symbol: "AAPL"}, time.Hour))

	*now = now.Add(2 * time.Hour)

	raw, err := repo.GetIfFresh(TablePriceHistory, "AAPL|1mo")
	require.NoError(t, err)
	assert.Nil(t, raw)

	// Stale data stays readable as a fallback.
	raw, err = repo.Get(TablePriceHistory, "AAPL|1mo")
	require.NoError(t, err)
	assert.NotNil(t, raw)
}

func TestGet_Missing(t *testing.T) {
	repo, _ := setupRepo(t)

	raw, err := repo.Get(TablePriceHistory, "nope")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestStore_Overwrites(t *testing.T) {
	repo, _ := setupRepo(t)
	require.NoError(t, repo.Store(TablePriceHistory, "k", cachedSeries{Symbol: "old"}, time.Hour))
	require.NoError(t, repo.Store(TablePriceHistory, "k", cachedSeries{Symbol: "new"}, time.Hour))

	raw, err := repo.Get(TablePriceHistory, "k")
	require.NoError(t, err)
	var out cachedSeries
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "new", out.Symbol)
}

func TestDelete(t *testing.T) {
	repo, _ := setupRepo(t)
	require.NoError(t, repo.Store(TablePriceHistory, "k", cachedSeries{}, time.Hour))
	require.NoError(t, repo.Delete(TablePriceHistory, "k"))

	raw, err := repo.Get(TablePriceHistory, "k")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestDeleteExpired(t *testing.T) {
	repo, now := setupRepo(t)
	require.NoError(t, repo.Store(TablePriceHistory, "short", cachedSeries{}, time.Minute))
	require.NoError(t, repo.Store(TablePriceHistory, "long", cachedSeries{}, 24*time.Hour))

	*now = now.Add(time.Hour)

	deleted, err := repo.DeleteExpired(TablePriceHistory)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	raw, err := repo.Get(TablePriceHistory, "long")
	require.NoError(t, err)
	assert.NotNil(t, raw)
}

func TestInvalidTable(t *testing.T) {
	repo, _ := setupRepo(t)

	assert.Error(t, repo.Store("transactions; DROP TABLE quotes", "k", cachedSeries{}, time.Hour))
	_, err := repo.GetIfFresh("transactions", "k")
	assert.Error(t, err)
	_, err = repo.DeleteExpired("quotes")
	assert.Error(t, err)
}
