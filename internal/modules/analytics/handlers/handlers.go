// Package handlers provides HTTP handlers for valuation and returns reports.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	"github.com/dkaratzas/portfoliodb/internal/modules/analytics"
	"github.com/dkaratzas/portfoliodb/internal/modules/reports"
)

// Handler handles analytics HTTP requests
type Handler struct {
	analytics *analytics.Service
	stats     *analytics.StatsService
	log       zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(analyticsService *analytics.Service, stats *analytics.StatsService, log zerolog.Logger) *Handler {
	return &Handler{
		analytics: analyticsService,
		stats:     stats,
		log:       log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleValuation handles GET /api/portfolios/{name}/valuation.
// Pass ?format=csv to download the report as CSV.
func (h *Handler) HandleValuation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rows, err := h.analytics.Valuation(name)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.serveCSV(w, fmt.Sprintf("%s_valuation.csv", name), valuationHeaders, valuationCells(rows))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": name,
		"valuation": rows,
		"count":     len(rows),
	})
}

// HandleReturns handles GET /api/portfolios/{name}/returns.
// Pass ?format=csv to download the report as CSV.
func (h *Handler) HandleReturns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rows, err := h.analytics.Returns(name)
	if err != nil {
		h.respondError(w, name, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.serveCSV(w, fmt.Sprintf("%s_returns.csv", name), returnsHeaders, returnsCells(rows))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": name,
		"returns":   rows,
		"count":     len(rows),
	})
}

// HandlePriceStats handles GET /api/stocks/{ticker}/stats
func (h *Handler) HandlePriceStats(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	stats, err := h.stats.PriceStats(ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

var valuationHeaders = []string{"ticker", "total_quantity", "average_cost", "last_price", "cost_basis", "market_value", "unrealized_pl"}

func valuationCells(rows []analytics.ValuationRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, v := range rows {
		out = append(out, []string{
			v.Ticker,
			reports.Float(v.TotalQuantity),
			reports.Float(v.AverageCost),
			reports.Float(v.LastPrice),
			reports.Float(v.CostBasis),
			reports.Float(v.MarketValue),
			reports.Float(v.UnrealizedPL),
		})
	}
	return out
}

var returnsHeaders = []string{"ticker", "qty_bought", "qty_sold", "total_cost", "total_proceeds", "last_price", "qty_remaining", "remaining_value", "realized_pl", "unrealized_pl"}

func returnsCells(rows []analytics.ReturnsRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, v := range rows {
		out = append(out, []string{
			v.Ticker,
			reports.Float(v.QtyBought),
			reports.Float(v.QtySold),
			reports.Float(v.TotalCost),
			reports.Float(v.TotalProceeds),
			reports.Float(v.LastPrice),
			reports.Float(v.QtyRemaining),
			reports.Float(v.RemainingValue),
			reports.Float(v.RealizedPL),
			reports.Float(v.UnrealizedPL),
		})
	}
	return out
}

func (h *Handler) serveCSV(w http.ResponseWriter, filename string, headers []string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := reports.CSV(w, headers, rows); err != nil {
		h.log.Error().Err(err).Msg("Failed to stream CSV report")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, portfolioName string, err error) {
	if errors.Is(err, domain.ErrPortfolioNotFound) {
		http.Error(w, "portfolio not found", http.StatusNotFound)
		return
	}
	h.log.Error().Err(err).Str("portfolio", portfolioName).Msg("Report query failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
