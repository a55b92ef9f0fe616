package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers tax settlement routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tax/settlements", func(r chi.Router) {
		r.Get("/", h.HandleListSettlements)
		r.Post("/", h.HandleRecordSettlement)
		r.Patch("/{id}", h.HandleUpdateSettlement)
		r.Delete("/{id}", h.HandleDeleteSettlement)
	})
}
