package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kabumemo/kabumemo/internal/config"
	"github.com/kabumemo/kabumemo/internal/di"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/modules/funds"
	"github.com/kabumemo/kabumemo/internal/modules/portfolio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"gmtoffset":0},"timestamp":[1756684800],"indicators":{"quote":[{"close":[2500]}]}}],"error":null}}`

func setupServer(t *testing.T, distDir string) http.Handler {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	}))
	t.Cleanup(provider.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:          dir,
		JSONDir:          dir,
		SQLiteDir:        dir,
		DistDir:          distDir,
		Port:             8000,
		QuoteProviderURL: provider.URL,
	}
	log := zerolog.New(nil).Level(zerolog.Disabled)

	container, jobs, err := di.Wire(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	return New(Config{Log: log, Config: cfg, Container: container, Jobs: jobs}).Handler()
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createTrade(t *testing.T, h http.Handler, body string) domain.Transaction {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Transaction](t, w)
}

func fundNamed(t *testing.T, h http.Handler, name string) funds.FundSnapshot {
	t.Helper()
	w := do(t, h, http.MethodGet, "/api/funds", "")
	require.Equal(t, http.StatusOK, w.Code)
	for _, f := range decode[funds.Snapshots](t, w).Funds {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("fund %q not found", name)
	return funds.FundSnapshot{}
}

func positions(t *testing.T, h http.Handler) []portfolio.Position {
	t.Helper()
	w := do(t, h, http.MethodGet, "/api/positions", "")
	require.Equal(t, http.StatusOK, w.Code)
	return decode[[]portfolio.Position](t, w)
}

const (
	jpBuy  = `{"trade_date":"2025-09-01","symbol":"7203.T","quantity":10,"gross_amount":150000,"funding_group":"Default JPY","cash_currency":"JPY","market":"JP"}`
	jpSell = `{"trade_date":"2025-09-15","symbol":"7203.T","quantity":-5,"gross_amount":90000,"funding_group":"Default JPY","cash_currency":"JPY","market":"JP"}`
)

func TestHealth(t *testing.T) {
	h := setupServer(t, "")

	w := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestJPRoundTripSettlementAndDelete(t *testing.T) {
	h := setupServer(t, "")

	createTrade(t, h, jpBuy)
	sell := createTrade(t, h, jpSell)
	assert.Equal(t, domain.TaxStatusNo, sell.Taxed)

	pos := positions(t, h)
	require.Len(t, pos, 1)
	require.Len(t, pos[0].Breakdown, 1)
	assert.Equal(t, 5.0, pos[0].Breakdown[0].Quantity)
	assert.Equal(t, 15000.0, pos[0].Breakdown[0].RealizedPL)

	fund := fundNamed(t, h, domain.DefaultJPYGroup)
	assert.Equal(t, -60000.0, fund.CashBalance)
	assert.Equal(t, 75000.0, fund.HoldingCost)
	assert.Equal(t, 15000.0, fund.CurrentTotal)

	// Tax settlement on the sell.
	body := `{"transaction_id":"` + sell.ID + `","funding_group":"Default JPY","amount":1000,"currency":"JPY"}`
	w := do(t, h, http.MethodPost, "/api/tax/settlements", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	settlement := decode[domain.TaxSettlement](t, w)
	assert.Equal(t, 1000.0, settlement.JPYEquivalent)

	w = do(t, h, http.MethodGet, "/api/transactions", "")
	for _, tx := range decode[[]domain.Transaction](t, w) {
		if tx.ID == sell.ID {
			assert.Equal(t, domain.TaxStatusYes, tx.Taxed)
		}
	}
	assert.Equal(t, -61000.0, fundNamed(t, h, domain.DefaultJPYGroup).CashBalance)

	w = do(t, h, http.MethodPost, "/api/tax/settlements", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Deleting the sell removes its settlement.
	w = do(t, h, http.MethodDelete, "/api/transactions/"+sell.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	pos = positions(t, h)
	require.Len(t, pos, 1)
	assert.Equal(t, 10.0, pos[0].Breakdown[0].Quantity)
	assert.Equal(t, 0.0, pos[0].Breakdown[0].RealizedPL)

	w = do(t, h, http.MethodGet, "/api/tax/settlements", "")
	assert.Empty(t, decode[[]domain.TaxSettlement](t, w))
}

func TestCrossCurrencyFundingGroups(t *testing.T) {
	h := setupServer(t, "")

	createTrade(t, h, `{"trade_date":"2025-01-10","symbol":"TEST","quantity":2,"gross_amount":200,"funding_group":"Default USD","cash_currency":"USD","market":"US"}`)
	createTrade(t, h, `{"trade_date":"2025-01-11","symbol":"TEST","quantity":-1,"gross_amount":150,"funding_group":"Default USD","cash_currency":"USD","market":"US"}`)
	createTrade(t, h, `{"trade_date":"2025-01-12","symbol":"TEST","quantity":3,"gross_amount":300,"funding_group":"Default JPY","cash_currency":"JPY","market":"US"}`)

	pos := positions(t, h)
	require.Len(t, pos, 1)
	assert.Equal(t, []portfolio.PositionBreakdown{
		{Currency: domain.CurrencyJPY, Quantity: 3, AverageCost: 100, RealizedPL: 0},
		{Currency: domain.CurrencyUSD, Quantity: 1, AverageCost: 100, RealizedPL: 50},
	}, pos[0].Breakdown)
}

func TestSellWithoutInventoryIsRejected(t *testing.T) {
	h := setupServer(t, "")

	w := do(t, h, http.MethodPost, "/api/transactions", jpSell)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestErrorStatuses(t *testing.T) {
	h := setupServer(t, "")

	w := do(t, h, http.MethodPost, "/api/transactions", `{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodDelete, "/api/transactions/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"detail"`)
}

func TestQuoteRefreshAndHistory(t *testing.T) {
	h := setupServer(t, "")
	createTrade(t, h, jpBuy)

	w := do(t, h, http.MethodPost, "/api/quotes/refresh?force=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[domain.QuoteSnapshot](t, w)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, 2500.0, snap.Records[0].Price)
	assert.Equal(t, domain.CurrencyJPY, snap.Records[0].Currency)

	w = do(t, h, http.MethodGet, "/api/positions/7203.T/history?period=1y", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	history := decode[portfolio.PositionHistory](t, w)
	assert.Equal(t, domain.MarketJP, history.Market)
	assert.Len(t, history.Series, 1)
	require.Len(t, history.Markers, 1)
	assert.Equal(t, 15000.0, history.Markers[0].Price)
}

func TestSystemStatus(t *testing.T) {
	h := setupServer(t, "")
	createTrade(t, h, jpBuy)

	w := do(t, h, http.MethodGet, "/api/system/status", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := decode[SystemStatusResponse](t, w)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 1, status.Counts["transactions"])
	assert.Equal(t, 2, status.Counts["funding_groups"])
	assert.NotEmpty(t, status.Directories.Data)
	assert.Contains(t, status.Jobs, "quote_refresh")
	assert.NotNil(t, status.Mirror)
}

func TestTriggerJob(t *testing.T) {
	h := setupServer(t, "")

	w := do(t, h, http.MethodPost, "/api/system/jobs/mirror_check", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/system/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticAssets(t *testing.T) {
	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html>app</html>"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dist, "assets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "assets", "app.js"), []byte("console.log(1)"), 0644))

	h := setupServer(t, dist)

	w := do(t, h, http.MethodGet, "/assets/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")

	// Client-side routes fall back to index.html.
	w = do(t, h, http.MethodGet, "/funds/Default%20JPY", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	w = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	// API misses are not swallowed by the frontend.
	w = do(t, h, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
