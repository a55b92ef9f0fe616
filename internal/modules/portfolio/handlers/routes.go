package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers position routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.HandleGetPositions)
		r.Get("/{symbol}/history", h.HandleGetHistory)
	})
}
