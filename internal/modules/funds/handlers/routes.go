package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers funds and funding group routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/funds", h.HandleGetFunds)

	r.Route("/funding-groups", func(r chi.Router) {
		r.Get("/", h.HandleListGroups)
		r.Post("/", h.HandleUpsertGroup)

		// Static segments take precedence over {name} in chi.
		r.Get("/capital", h.HandleListCapital)
		r.Delete("/capital/{id}", h.HandleDeleteCapital)

		r.Patch("/{name}", h.HandlePatchGroup)
		r.Delete("/{name}", h.HandleDeleteGroup)
		r.Post("/{name}/capital", h.HandleAddCapital)
	})
}
