package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/modules/portfolio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Positions() ([]portfolio.Position, error) {
	args := m.Called()
	positions, _ := args.Get(0).([]portfolio.Position)
	return positions, args.Error(1)
}

func (m *mockService) History(ctx context.Context, symbol string, market domain.Market, period string) (*portfolio.PositionHistory, error) {
	args := m.Called(symbol, market, period)
	history, _ := args.Get(0).(*portfolio.PositionHistory)
	return history, args.Error(1)
}

func newRouter(svc PortfolioService) *chi.Mux {
	router := chi.NewRouter()
	NewHandler(svc, zerolog.New(nil).Level(zerolog.Disabled)).RegisterRoutes(router)
	return router
}

func TestHandleGetPositions(t *testing.T) {
	svc := new(mockService)
	svc.On("Positions").Return([]portfolio.Position{{
		Symbol:         "7203.T",
		Market:         domain.MarketJP,
		Breakdown:      []portfolio.PositionBreakdown{{Currency: domain.CurrencyJPY, Quantity: 5, AverageCost: 15000, RealizedPL: 15000}},
		GroupBreakdown: []portfolio.PositionGroupBreakdown{},
	}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/positions", nil)
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "7203.T", body[0]["symbol"])
	breakdown := body[0]["breakdown"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 15000.0, breakdown["realized_pl"])
}

func TestHandleGetPositions_Error(t *testing.T) {
	svc := new(mockService)
	svc.On("Positions").Return(nil, errors.New("boom"))

	req := httptest.NewRequest(http.MethodGet, "/positions", nil)
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, w.Body.String())
}

func TestHandleGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		market   domain.Market
		period   string
		expected int
	}{
		{name: "explicit market", url: "/positions/AAPL/history?market=us&period=6mo", market: domain.MarketUS, period: "6mo", expected: http.StatusOK},
		{name: "inferred JP", url: "/positions/7203.T/history", market: domain.MarketJP, period: "", expected: http.StatusOK},
		{name: "unknown market", url: "/positions/AAPL/history?market=EU", expected: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			if tt.expected == http.StatusOK {
				svc.On("History", mock.Anything, tt.market, tt.period).Return(&portfolio.PositionHistory{
					Market:  tt.market,
					Series:  []domain.PricePoint{},
					Markers: []portfolio.TradeMarker{},
				}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	router := newRouter(new(mockService))

	patterns := []string{}
	_ = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		patterns = append(patterns, method+" "+route)
		return nil
	})
	assert.Contains(t, patterns, "GET /positions/")
	assert.Contains(t, patterns, "GET /positions/{symbol}/history")
}
