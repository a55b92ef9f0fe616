// Package handlers provides HTTP handlers for funds, funding groups and capital.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/httputil"
	"github.com/kabumemo/kabumemo/internal/modules/funds"
	"github.com/rs/zerolog"
)

// FundsService is the subset of funds.Service used by the handlers.
type FundsService interface {
	Snapshots() (funds.Snapshots, error)
	ListGroups() ([]domain.FundingGroup, error)
	UpsertGroup(group domain.FundingGroup) (domain.FundingGroup, error)
	PatchGroup(name string, patch domain.FundingGroupPatch) (domain.FundingGroup, error)
	DeleteGroup(name string) error
	ListCapital(group string) ([]domain.CapitalAdjustment, error)
	AddCapital(group string, amount float64, effective domain.Date, notes *string) (domain.CapitalAdjustment, error)
	DeleteCapital(id string) error
}

// FundingGroupRequest is the body of POST /funding-groups.
type FundingGroupRequest struct {
	Name          string          `json:"name" validate:"required"`
	Currency      domain.Currency `json:"currency" validate:"required"`
	InitialAmount float64         `json:"initial_amount" validate:"gte=0"`
	Notes         *string         `json:"notes"`
}

// FundingGroupPatchRequest is the body of PATCH /funding-groups/{name}.
type FundingGroupPatchRequest struct {
	Currency      *domain.Currency `json:"currency"`
	InitialAmount *float64         `json:"initial_amount" validate:"omitempty,gte=0"`
	Notes         *string          `json:"notes"`
}

// CapitalRequest is the body of POST /funding-groups/{name}/capital.
// A missing effective_date means today.
type CapitalRequest struct {
	Amount        float64     `json:"amount" validate:"gt=0"`
	EffectiveDate domain.Date `json:"effective_date"`
	Notes         *string     `json:"notes"`
}

// Handler handles funds HTTP requests
type Handler struct {
	service FundsService
	log     zerolog.Logger
}

// NewHandler creates a new funds handler
func NewHandler(service FundsService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "funds").Logger(),
	}
}

// HandleGetFunds handles GET /api/funds
func (h *Handler) HandleGetFunds(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.service.Snapshots()
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snaps, h.log)
}

// HandleListGroups handles GET /api/funding-groups
func (h *Handler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups()
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, groups, h.log)
}

// HandleUpsertGroup handles POST /api/funding-groups
func (h *Handler) HandleUpsertGroup(w http.ResponseWriter, r *http.Request) {
	var req FundingGroupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	group, err := h.service.UpsertGroup(domain.FundingGroup{
		Name:          req.Name,
		Currency:      req.Currency,
		InitialAmount: req.InitialAmount,
		Notes:         req.Notes,
	})
	if err != nil {
		httputil.WriteIngestError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, group, h.log)
}

// HandlePatchGroup handles PATCH /api/funding-groups/{name}
func (h *Handler) HandlePatchGroup(w http.ResponseWriter, r *http.Request) {
	var req FundingGroupPatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	group, err := h.service.PatchGroup(chi.URLParam(r, "name"), domain.FundingGroupPatch{
		Currency:      req.Currency,
		InitialAmount: req.InitialAmount,
		Notes:         req.Notes,
	})
	if err != nil {
		httputil.WriteIngestError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group, h.log)
}

// HandleDeleteGroup handles DELETE /api/funding-groups/{name}
func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGroup(chi.URLParam(r, "name")); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleListCapital handles GET /api/funding-groups/capital
func (h *Handler) HandleListCapital(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCapital(r.URL.Query().Get("funding_group"))
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items, h.log)
}

// HandleAddCapital handles POST /api/funding-groups/{name}/capital
func (h *Handler) HandleAddCapital(w http.ResponseWriter, r *http.Request) {
	var req CapitalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	adj, err := h.service.AddCapital(chi.URLParam(r, "name"), req.Amount, req.EffectiveDate, req.Notes)
	if err != nil {
		httputil.WriteIngestError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, adj, h.log)
}

// HandleDeleteCapital handles DELETE /api/funding-groups/capital/{id}
func (h *Handler) HandleDeleteCapital(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCapital(chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteNoContent(w)
}
