package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers quote routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", h.HandleGetQuotes)
		r.Post("/refresh", h.HandleRefreshQuotes)
	})
}
