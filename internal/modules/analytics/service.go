// Package analytics implements the read-side valuation and returns reports.
// Everything here is pure aggregation over the ledger, holdings, and price
// tables; nothing in this package mutates state.
package analytics

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/modules/portfolio"
)

// Service runs the aggregation queries for a portfolio.
type Service struct {
	db         *sql.DB
	portfolios *portfolio.Repository
	log        zerolog.Logger
}

// NewService creates a new analytics service
func NewService(db *sql.DB, portfolios *portfolio.Repository, log zerolog.Logger) *Service {
	return &Service{
		db:         db,
		portfolios: portfolios,
		log:        log.With().Str("service", "analytics").Logger(),
	}
}

// ValuationRow is one holding valued at the latest stored close.
type ValuationRow struct {
	Ticker        string  `json:"ticker"`
	TotalQuantity float64 `json:"total_quantity"`
	AverageCost   float64 `json:"average_cost"`
	LastPrice     float64 `json:"last_price"`
	CostBasis     float64 `json:"cost_basis"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
}

// Valuation returns cost basis, market value, and unrealized P/L per holding,
// ordered by ticker. Holdings without any stored price value at zero. A
// portfolio with no holdings yields an empty result, not an error; an unknown
// portfolio name fails with ErrPortfolioNotFound before any aggregation runs.
func (s *Service) Valuation(portfolioName string) ([]ValuationRow, error) {
	pid, err := s.portfolios.ResolveID(portfolioName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		WITH latest AS (
			SELECT p.stock_id, p.close_price, p.price_date
			FROM prices p
			JOIN (
				SELECT stock_id, MAX(price_date) AS maxd
				FROM prices GROUP BY stock_id
			) m ON m.stock_id = p.stock_id AND m.maxd = p.price_date
		)
		SELECT s.ticker,
		       h.total_quantity,
		       h.average_cost,
		       COALESCE(l.close_price, 0) AS last_price,
		       (h.total_quantity * h.average_cost) AS cost_basis,
		       (h.total_quantity * COALESCE(l.close_price, 0)) AS market_value,
		       ((h.total_quantity * COALESCE(l.close_price, 0)) - (h.total_quantity * h.average_cost)) AS unrealized_pl
		FROM current_holdings h
		JOIN stocks s ON s.stock_id = h.stock_id
		LEFT JOIN latest l ON l.stock_id = h.stock_id
		WHERE h.portfolio_id = ?
		ORDER BY s.ticker
	`, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuation: %w", err)
	}
	defer rows.Close()

	var result []ValuationRow
	for rows.Next() {
		var v ValuationRow
		if err := rows.Scan(&v.Ticker, &v.TotalQuantity, &v.AverageCost, &v.LastPrice,
			&v.CostBasis, &v.MarketValue, &v.UnrealizedPL); err != nil {
			return nil, fmt.Errorf("failed to scan valuation row: %w", err)
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating valuation rows: %w", err)
	}

	return result, nil
}

// ReturnsRow aggregates realized and unrealized P/L per stock ever traded
// in the portfolio.
type ReturnsRow struct {
	Ticker         string  `json:"ticker"`
	QtyBought      float64 `json:"qty_bought"`
	QtySold        float64 `json:"qty_sold"`
	TotalCost      float64 `json:"total_cost"`
	TotalProceeds  float64 `json:"total_proceeds"`
	LastPrice      float64 `json:"last_price"`
	QtyRemaining   float64 `json:"qty_remaining"`
	RemainingValue float64 `json:"remaining_value"`
	RealizedPL     float64 `json:"realized_pl"`
	UnrealizedPL   float64 `json:"unrealized_pl"`
}

// Returns computes per-stock realized and unrealized P/L from the ledger,
// the live holding, and the latest close. The realized figure is a known
// approximation: it values the remaining cost basis at the holding's current
// average cost rather than per-lot historical cost, so partially closed
// positions conflate the two. For fully closed positions the holding row is
// gone and the cost-basis term vanishes, degenerating to proceeds minus cost.
func (s *Service) Returns(portfolioName string) ([]ReturnsRow, error) {
	pid, err := s.portfolios.ResolveID(portfolioName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		WITH txn AS (
			SELECT t.stock_id, t.transaction_type, t.quantity, t.price
			FROM transactions t
			WHERE t.portfolio_id = ?
		),
		buys AS (
			SELECT stock_id, SUM(quantity) AS qty_bought, SUM(quantity*price) AS cost
			FROM txn WHERE transaction_type = 'BUY' GROUP BY stock_id
		),
		sells AS (
			SELECT stock_id, SUM(quantity) AS qty_sold, SUM(quantity*price) AS proceeds
			FROM txn WHERE transaction_type = 'SELL' GROUP BY stock_id
		),
		latest AS (
			SELECT p.stock_id, p.close_price
			FROM prices p
			JOIN (
				SELECT stock_id, MAX(price_date) AS maxd FROM prices GROUP BY stock_id
			) m ON m.stock_id = p.stock_id AND m.maxd = p.price_date
		)
		SELECT s.ticker,
		       COALESCE(b.qty_bought, 0) AS qty_bought,
		       COALESCE(sll.qty_sold, 0) AS qty_sold,
		       COALESCE(b.cost, 0) AS total_cost,
		       COALESCE(sll.proceeds, 0) AS total_proceeds,
		       COALESCE(l.close_price, 0) AS last_price,
		       COALESCE(h.total_quantity, 0) AS qty_remaining,
		       COALESCE(h.total_quantity, 0) * COALESCE(l.close_price, 0) AS remaining_value,
		       COALESCE(sll.proceeds, 0) - (COALESCE(b.cost, 0) - COALESCE(h.total_quantity, 0) * COALESCE(h.average_cost, 0)) AS realized_pl,
		       (COALESCE(h.total_quantity, 0) * COALESCE(l.close_price, 0)) - (COALESCE(h.total_quantity, 0) * COALESCE(h.average_cost, 0)) AS unrealized_pl
		FROM stocks s
		LEFT JOIN buys b ON b.stock_id = s.stock_id
		LEFT JOIN sells sll ON sll.stock_id = s.stock_id
		LEFT JOIN current_holdings h ON h.stock_id = s.stock_id AND h.portfolio_id = ?
		LEFT JOIN latest l ON l.stock_id = s.stock_id
		WHERE (COALESCE(b.qty_bought, 0) + COALESCE(sll.qty_sold, 0)) > 0
		ORDER BY s.ticker
	`, pid, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to query returns: %w", err)
	}
	defer rows.Close()

	var result []ReturnsRow
	for rows.Next() {
		var r ReturnsRow
		if err := rows.Scan(&r.Ticker, &r.QtyBought, &r.QtySold, &r.TotalCost, &r.TotalProceeds,
			&r.LastPrice, &r.QtyRemaining, &r.RemainingValue, &r.RealizedPL, &r.UnrealizedPL); err != nil {
			return nil, fmt.Errorf("failed to scan returns row: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating returns rows: %w", err)
	}

	return result, nil
}
