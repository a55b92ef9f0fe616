package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers FX exchange routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/fx-exchanges", func(r chi.Router) {
		r.Get("/", h.HandleListExchanges)
		r.Post("/", h.HandleCreateExchange)
		r.Delete("/{id}", h.HandleDeleteExchange)
	})
}
