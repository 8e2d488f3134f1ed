// Package handlers provides HTTP handlers for price queries and feed syncs.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/modules/prices"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
	"github.com/dkaratzas/portfoliodb/internal/services"
)

// Handler handles price HTTP requests
type Handler struct {
	stocks *universe.StockRepository
	prices *prices.Repository
	sync   *services.PriceSyncService
	log    zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(stocks *universe.StockRepository, priceRepo *prices.Repository, sync *services.PriceSyncService, log zerolog.Logger) *Handler {
	return &Handler{
		stocks: stocks,
		prices: priceRepo,
		sync:   sync,
		log:    log.With().Str("handler", "prices").Logger(),
	}
}

// SyncRequest represents a request to sync price history from the feed
type SyncRequest struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`         // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"` // YYYY-MM-DD, defaults to today
}

// HandleLatest handles GET /api/prices/{ticker}/latest
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	stock, err := h.stocks.GetByTicker(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to look up stock")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if stock == nil {
		http.Error(w, "stock not found", http.StatusNotFound)
		return
	}

	latest, err := h.prices.Latest(stock.ID)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", stock.Ticker).Msg("Failed to read latest price")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if latest == nil {
		http.Error(w, "no stored prices", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":      stock.Ticker,
		"date":        latest.Date,
		"close_price": latest.ClosePrice,
	})
}

// HandleHistory handles GET /api/prices/{ticker}/history?limit=N
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	stock, err := h.stocks.GetByTicker(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to look up stock")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if stock == nil {
		http.Error(w, "stock not found", http.StatusNotFound)
		return
	}

	history, err := h.prices.History(stock.ID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", stock.Ticker).Msg("Failed to read price history")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": stock.Ticker,
		"prices": history,
		"count":  len(history),
	})
}

// HandleSyncHistory handles POST /api/prices/sync
func (h *Handler) HandleSyncHistory(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Ticker == "" || req.StartDate == "" {
		http.Error(w, "ticker and start_date are required", http.StatusBadRequest)
		return
	}

	result, err := h.sync.SyncHistory(req.Ticker, req.StartDate, req.EndDate)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", req.Ticker).Msg("Price sync failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleSyncLatest handles POST /api/prices/{ticker}/sync-latest
func (h *Handler) HandleSyncLatest(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	quote, err := h.sync.SyncLatest(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Latest price sync failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if quote == nil {
		http.Error(w, "feed returned no usable price", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":      universe.NormalizeTicker(ticker),
		"date":        quote.Date,
		"close_price": quote.Close,
	})
}

// HandleRefreshHeld handles POST /api/prices/refresh
func (h *Handler) HandleRefreshHeld(w http.ResponseWriter, r *http.Request) {
	updated, err := h.sync.RefreshHeld()
	if err != nil {
		h.log.Error().Err(err).Msg("Held-stock price refresh failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated": updated,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
