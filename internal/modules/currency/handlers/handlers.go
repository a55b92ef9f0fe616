// Package handlers provides HTTP handlers for FX exchange records.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/httputil"
	"github.com/kabumemo/kabumemo/internal/modules/currency"
	"github.com/rs/zerolog"
)

// FxService is the subset of currency.Service used by the handlers.
type FxService interface {
	List() ([]domain.FxExchange, error)
	Create(req currency.ExchangeRequest) (domain.FxExchange, error)
	Delete(id string) error
}

// ExchangeRequest is the body of POST /fx-exchanges.
type ExchangeRequest struct {
	ExchangeDate  domain.Date     `json:"exchange_date"`
	FromCurrency  domain.Currency `json:"from_currency" validate:"required"`
	ToCurrency    domain.Currency `json:"to_currency" validate:"required,nefield=FromCurrency"`
	FromAmount    float64         `json:"from_amount" validate:"gt=0"`
	Rate          float64         `json:"rate" validate:"gt=0"`
	TransactionID *string         `json:"transaction_id"`
	Notes         *string         `json:"notes"`
}

// Handler handles FX HTTP requests
type Handler struct {
	service FxService
	log     zerolog.Logger
}

// NewHandler creates a new FX handler
func NewHandler(service FxService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "currency").Logger(),
	}
}

// HandleListExchanges handles GET /api/fx-exchanges
func (h *Handler) HandleListExchanges(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List()
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items, h.log)
}

// HandleCreateExchange handles POST /api/fx-exchanges
func (h *Handler) HandleCreateExchange(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	fx, err := h.service.Create(currency.ExchangeRequest{
		ExchangeDate:  req.ExchangeDate,
		FromCurrency:  req.FromCurrency,
		ToCurrency:    req.ToCurrency,
		FromAmount:    req.FromAmount,
		Rate:          req.Rate,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	})
	if err != nil {
		httputil.WriteIngestError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fx, h.log)
}

// HandleDeleteExchange handles DELETE /api/fx-exchanges/{id}
func (h *Handler) HandleDeleteExchange(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteNoContent(w)
}
