package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Post("/sync", h.HandleSyncHistory)
		r.Post("/refresh", h.HandleRefreshHeld)
		r.Get("/{ticker}/latest", h.HandleLatest)
		r.Get("/{ticker}/history", h.HandleHistory)
		r.Post("/{ticker}/sync-latest", h.HandleSyncLatest)
	})
}
