package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers trade routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.HandleListTransactions)
		r.Post("/", h.HandleCreateTransaction)
		r.Post("/round-yield", h.HandleRoundTripYield)

		r.Put("/{id}", h.HandleReplaceTransaction)
		r.Patch("/{id}", h.HandleReplaceTransaction)
		r.Delete("/{id}", h.HandleDeleteTransaction)
	})
}
