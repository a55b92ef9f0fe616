// Package handlers provides HTTP handlers for stored quotes.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/httputil"
	"github.com/rs/zerolog"
)

// QuoteService is the subset of quotes.Service used by the handlers.
type QuoteService interface {
	Snapshot() (domain.QuoteSnapshot, error)
	Refresh(ctx context.Context, force bool) (domain.QuoteSnapshot, error)
}

// Handler handles quote HTTP requests
type Handler struct {
	service QuoteService
	log     zerolog.Logger
}

// NewHandler creates a new quote handler
func NewHandler(service QuoteService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "quotes").Logger(),
	}
}

// HandleGetQuotes handles GET /api/quotes
func (h *Handler) HandleGetQuotes(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot()
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap, h.log)
}

// HandleRefreshQuotes handles POST /api/quotes/refresh?force=bool
func (h *Handler) HandleRefreshQuotes(w http.ResponseWriter, r *http.Request) {
	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, &httputil.SchemaError{Message: "force: must be a boolean"}, h.log)
			return
		}
		force = parsed
	}

	snap, err := h.service.Refresh(r.Context(), force)
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap, h.log)
}
