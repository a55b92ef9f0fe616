// Package handlers provides HTTP handlers for trade operations.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/httputil"
	"github.com/kabumemo/kabumemo/internal/modules/trading"
	"github.com/rs/zerolog"
)

// TradingService is the subset of trading.Service used by the handlers.
type TradingService interface {
	List() ([]domain.Transaction, error)
	Create(f domain.TransactionFields) (domain.Transaction, error)
	Replace(id string, f domain.TransactionFields) (domain.Transaction, error)
	Delete(id string) error
	RoundTripYield(ids []string) (*trading.RoundTripYield, error)
}

// TransactionRequest is the body of POST and PUT/PATCH /transactions.
type TransactionRequest struct {
	TradeDate     domain.Date       `json:"trade_date"`
	Symbol        string            `json:"symbol" validate:"required"`
	Quantity      float64           `json:"quantity" validate:"ne=0"`
	GrossAmount   float64           `json:"gross_amount" validate:"gt=0"`
	FundingGroup  string            `json:"funding_group" validate:"required"`
	CashCurrency  domain.Currency   `json:"cash_currency" validate:"required"`
	Market        domain.Market     `json:"market" validate:"required"`
	Taxed         *domain.TaxStatus `json:"taxed"`
	Memo          *string           `json:"memo"`
	CrossCurrency bool              `json:"cross_currency"`
	BuyCurrency   *domain.Currency  `json:"buy_currency"`
	SellCurrency  *domain.Currency  `json:"sell_currency"`
}

// Fields converts the request into transaction fields.
func (req TransactionRequest) Fields() domain.TransactionFields {
	return domain.TransactionFields{
		TradeDate:     req.TradeDate,
		Symbol:        req.Symbol,
		Quantity:      req.Quantity,
		GrossAmount:   req.GrossAmount,
		FundingGroup:  req.FundingGroup,
		CashCurrency:  req.CashCurrency,
		Market:        req.Market,
		Taxed:         req.Taxed,
		Memo:          req.Memo,
		CrossCurrency: req.CrossCurrency,
		BuyCurrency:   req.BuyCurrency,
		SellCurrency:  req.SellCurrency,
	}
}

// RoundTripRequest is the body of POST /transactions/round-yield.
type RoundTripRequest struct {
	TransactionIDs []string `json:"transaction_ids" validate:"required,min=2,dive,required"`
}

// Handler handles trade HTTP requests
type Handler struct {
	service TradingService
	log     zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(service TradingService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// HandleListTransactions handles GET /api/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.List()
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txs, h.log)
}

// HandleCreateTransaction handles POST /api/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	tx, err := h.service.Create(req.Fields())
	if err != nil {
		httputil.WriteIngestError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tx, h.log)
}

// HandleReplaceTransaction handles PUT and PATCH /api/transactions/{id}
// Both methods take a full trade body.
func (h *Handler) HandleReplaceTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	tx, err := h.service.Replace(chi.URLParam(r, "id"), req.Fields())
	if err != nil {
		httputil.WriteIngestError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx, h.log)
}

// HandleDeleteTransaction handles DELETE /api/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleRoundTripYield handles POST /api/transactions/round-yield
func (h *Handler) HandleRoundTripYield(w http.ResponseWriter, r *http.Request) {
	var req RoundTripRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	result, err := h.service.RoundTripYield(req.TransactionIDs)
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result, h.log)
}
