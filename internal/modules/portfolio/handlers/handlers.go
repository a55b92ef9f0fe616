// Package handlers provides HTTP handlers for positions and position history.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/httputil"
	"github.com/kabumemo/kabumemo/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// PortfolioService is the subset of portfolio.Service used by the handlers.
type PortfolioService interface {
	Positions() ([]portfolio.Position, error)
	History(ctx context.Context, symbol string, market domain.Market, period string) (*portfolio.PositionHistory, error)
}

// Handler handles position HTTP requests
type Handler struct {
	service PortfolioService
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPositions handles GET /api/positions
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.service.Positions()
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, positions, h.log)
}

// HandleGetHistory handles GET /api/positions/{symbol}/history
// The market defaults to JP for ".T" symbols and US otherwise.
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	query := r.URL.Query()

	market := domain.Market(strings.ToUpper(query.Get("market")))
	if market == "" {
		market = domain.MarketUS
		if strings.HasSuffix(strings.ToUpper(symbol), ".T") {
			market = domain.MarketJP
		}
	}
	if !market.Valid() {
		httputil.WriteError(w, &httputil.SchemaError{Message: "market: must be one of JP, US"}, h.log)
		return
	}

	history, err := h.service.History(r.Context(), symbol, market, query.Get("period"))
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history, h.log)
}
