package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes. Registered flat because
// other modules add their own routes under /portfolios/{name}.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios", h.HandleList)
	r.Post("/portfolios", h.HandleCreate)
	r.Get("/portfolios/{name}", h.HandleGet)
}
