package ledger

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/domain"
)

// HoldingRepository maintains the one-row-per-(portfolio, stock) aggregate.
// All mutating methods take *sql.Tx: a holding never changes outside the
// transaction that records the ledger entry driving the change.
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
	}
}

// GetTx loads the holding for (portfolio, stock) inside a transaction scope.
// Returns (nil, nil) when no position is open.
func (r *HoldingRepository) GetTx(tx *sql.Tx, portfolioID, stockID int64) (*domain.Holding, error) {
	var h domain.Holding
	err := tx.QueryRow(`
		SELECT holding_id, portfolio_id, stock_id, total_quantity, average_cost, last_updated
		FROM current_holdings
		WHERE portfolio_id = ? AND stock_id = ?
	`, portfolioID, stockID).Scan(&h.ID, &h.PortfolioID, &h.StockID, &h.TotalQuantity, &h.AverageCost, &h.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

// Get loads the holding for (portfolio, stock) outside any transaction.
// Returns (nil, nil) when no position is open.
func (r *HoldingRepository) Get(portfolioID, stockID int64) (*domain.Holding, error) {
	var h domain.Holding
	err := r.db.QueryRow(`
		SELECT holding_id, portfolio_id, stock_id, total_quantity, average_cost, last_updated
		FROM current_holdings
		WHERE portfolio_id = ? AND stock_id = ?
	`, portfolioID, stockID).Scan(&h.ID, &h.PortfolioID, &h.StockID, &h.TotalQuantity, &h.AverageCost, &h.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

// CreateTx opens a new position.
func (r *HoldingRepository) CreateTx(tx *sql.Tx, portfolioID, stockID int64, quantity, averageCost float64) error {
	_, err := tx.Exec(`
		INSERT INTO current_holdings (portfolio_id, stock_id, total_quantity, average_cost)
		VALUES (?, ?, ?, ?)
	`, portfolioID, stockID, quantity, averageCost)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	return nil
}

// UpdateTx rewrites quantity and average cost for an existing holding row
// and refreshes last_updated.
func (r *HoldingRepository) UpdateTx(tx *sql.Tx, holdingID int64, quantity, averageCost float64) error {
	_, err := tx.Exec(`
		UPDATE current_holdings
		SET total_quantity = ?, average_cost = ?, last_updated = datetime('now')
		WHERE holding_id = ?
	`, quantity, averageCost, holdingID)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return nil
}

// DeleteTx removes a holding row. Called when a sell closes the position:
// a flat position must not linger as a zero-quantity row.
func (r *HoldingRepository) DeleteTx(tx *sql.Tx, holdingID int64) error {
	_, err := tx.Exec("DELETE FROM current_holdings WHERE holding_id = ?", holdingID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

// HoldingRow is a holding joined with its stock and the latest known close.
type HoldingRow struct {
	Ticker        string   `json:"ticker"`
	CompanyName   string   `json:"company_name"`
	TotalQuantity float64  `json:"total_quantity"`
	AverageCost   float64  `json:"average_cost"`
	LastClose     *float64 `json:"last_close,omitempty"`
	LastUpdated   string   `json:"last_updated"`
}

// ListByPortfolio returns all holdings of a portfolio joined with stock info
// and the latest stored close price, ordered by ticker.
func (r *HoldingRepository) ListByPortfolio(portfolioID int64) ([]HoldingRow, error) {
	rows, err := r.db.Query(`
		SELECT s.ticker, s.company_name, h.total_quantity, h.average_cost,
		       lp.close_price AS last_close,
		       h.last_updated
		FROM current_holdings h
		JOIN stocks s ON s.stock_id = h.stock_id
		LEFT JOIN (
			SELECT stock_id, close_price, price_date
			FROM prices
			WHERE (stock_id, price_date) IN (
				SELECT stock_id, MAX(price_date) FROM prices GROUP BY stock_id
			)
		) AS lp ON lp.stock_id = s.stock_id
		WHERE h.portfolio_id = ?
		ORDER BY s.ticker
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []HoldingRow
	for rows.Next() {
		var h HoldingRow
		var lastClose sql.NullFloat64
		if err := rows.Scan(&h.Ticker, &h.CompanyName, &h.TotalQuantity, &h.AverageCost, &lastClose, &h.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		if lastClose.Valid {
			h.LastClose = &lastClose.Float64
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}
