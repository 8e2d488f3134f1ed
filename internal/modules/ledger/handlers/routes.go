package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolios/{name}/transactions", h.HandleRecordTransaction)
	r.Get("/portfolios/{name}/transactions", h.HandleListTransactions)
	r.Get("/portfolios/{name}/holdings", h.HandleListHoldings)
}
