package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios/{name}/valuation", h.HandleValuation)
	r.Get("/portfolios/{name}/returns", h.HandleReturns)
	r.Get("/stocks/{ticker}/stats", h.HandlePriceStats)
}
