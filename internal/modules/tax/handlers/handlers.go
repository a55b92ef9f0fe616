// Package handlers provides HTTP handlers for tax settlements.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/httputil"
	"github.com/kabumemo/kabumemo/internal/modules/tax"
	"github.com/rs/zerolog"
)

// TaxService is the subset of tax.Service used by the handlers.
type TaxService interface {
	List() ([]domain.TaxSettlement, error)
	Record(req tax.SettlementRequest) (domain.TaxSettlement, error)
	Update(id string, patch domain.TaxSettlementPatch) (domain.TaxSettlement, error)
	Delete(id string) error
}

// SettlementRequest is the body of POST /tax/settlements.
// Settlements are JPY only, so exchange_rate must be absent or null.
type SettlementRequest struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	FundingGroup  string          `json:"funding_group" validate:"required"`
	Amount        float64         `json:"amount" validate:"gt=0"`
	Currency      domain.Currency `json:"currency" validate:"required"`
	ExchangeRate  *float64        `json:"exchange_rate" validate:"isdefault"`
}

// SettlementPatchRequest is the body of PATCH /tax/settlements/{id}.
type SettlementPatchRequest struct {
	FundingGroup *string  `json:"funding_group"`
	Amount       *float64 `json:"amount" validate:"omitempty,gt=0"`
}

// Handler handles tax settlement HTTP requests
type Handler struct {
	service TaxService
	log     zerolog.Logger
}

// NewHandler creates a new tax handler
func NewHandler(service TaxService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "tax").Logger(),
	}
}

// HandleListSettlements handles GET /api/tax/settlements
func (h *Handler) HandleListSettlements(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List()
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items, h.log)
}

// HandleRecordSettlement handles POST /api/tax/settlements
func (h *Handler) HandleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req SettlementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	settlement, err := h.service.Record(tax.SettlementRequest{
		TransactionID: req.TransactionID,
		FundingGroup:  req.FundingGroup,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		httputil.WriteIngestError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, settlement, h.log)
}

// HandleUpdateSettlement handles PATCH /api/tax/settlements/{id}
func (h *Handler) HandleUpdateSettlement(w http.ResponseWriter, r *http.Request) {
	var req SettlementPatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	settlement, err := h.service.Update(chi.URLParam(r, "id"), domain.TaxSettlementPatch{
		FundingGroup: req.FundingGroup,
		Amount:       req.Amount,
	})
	if err != nil {
		httputil.WriteIngestError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settlement, h.log)
}

// HandleDeleteSettlement handles DELETE /api/tax/settlements/{id}
func (h *Handler) HandleDeleteSettlement(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteNoContent(w)
}
