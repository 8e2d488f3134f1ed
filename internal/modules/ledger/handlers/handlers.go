// Package handlers provides HTTP handlers for recording transactions and
// reading holdings.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	"github.com/dkaratzas/portfoliodb/internal/modules/ledger"
	"github.com/dkaratzas/portfoliodb/internal/modules/portfolio"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
)

// Handler handles transaction and holding HTTP requests
type Handler struct {
	portfolios   *portfolio.Repository
	stocks       *universe.StockRepository
	service      *ledger.Service
	transactions *ledger.TransactionRepository
	holdings     *ledger.HoldingRepository
	log          zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(
	portfolios *portfolio.Repository,
	stocks *universe.StockRepository,
	service *ledger.Service,
	transactions *ledger.TransactionRepository,
	holdings *ledger.HoldingRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		portfolios:   portfolios,
		stocks:       stocks,
		service:      service,
		transactions: transactions,
		holdings:     holdings,
		log:          log.With().Str("handler", "ledger").Logger(),
	}
}

// TransactionRequest represents a request to record a buy or sell
type TransactionRequest struct {
	Ticker      string  `json:"ticker"`
	Type        string  `json:"transaction_type"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Date        string  `json:"transaction_date,omitempty"` // YYYY-MM-DD, defaults to today
	CompanyName string  `json:"company_name,omitempty"`
}

// HandleRecordTransaction handles POST /api/portfolios/{name}/transactions
func (h *Handler) HandleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	portfolioID, err := h.portfolios.ResolveID(name)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	stockID, err := h.stocks.GetOrCreate(req.Ticker, req.CompanyName, nil)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	txn, err := h.service.Record(portfolioID, stockID, domain.TransactionKind(req.Type), req.Quantity, req.Price, req.Date)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, txn)
}

// HandleListTransactions handles GET /api/portfolios/{name}/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	portfolioID, err := h.portfolios.ResolveID(name)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	txns, err := h.transactions.ListByPortfolio(portfolioID)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txns,
		"count":        len(txns),
	})
}

// HandleListHoldings handles GET /api/portfolios/{name}/holdings
func (h *Handler) HandleListHoldings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	portfolioID, err := h.portfolios.ResolveID(name)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	rows, err := h.holdings.ListByPortfolio(portfolioID)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": rows,
		"count":    len(rows),
	})
}

// respondError maps domain errors onto HTTP status codes. Validation
// failures are the caller's fault; everything else is logged and reported
// as a server error.
func (h *Handler) respondError(w http.ResponseWriter, portfolioName string, err error) {
	switch {
	case errors.Is(err, domain.ErrPortfolioNotFound):
		http.Error(w, "portfolio not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransactionKind), errors.Is(err, domain.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInsufficientShares), errors.Is(err, domain.ErrIntegrityViolation):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error().Err(err).Str("portfolio", portfolioName).Msg("Ledger request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
