// Package prices provides the closing-price time series store.
package prices

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/database"
	"github.com/dkaratzas/portfoliodb/internal/domain"
)

// Repository maintains at most one close per (stock, date). Later writes for
// the same date overwrite earlier ones; backfilling older dates never
// disturbs newer observations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// Upsert inserts or overwrites the close for (stock, date).
// Rejects non-positive prices with ErrInvalidAmount.
func (r *Repository) Upsert(stockID int64, date string, closePrice float64) error {
	if closePrice <= 0 {
		return domain.ErrInvalidAmount
	}

	_, err := r.db.Exec(`
		INSERT INTO prices (stock_id, price_date, close_price)
		VALUES (?, ?, ?)
		ON CONFLICT(stock_id, price_date) DO UPDATE SET close_price = excluded.close_price
	`, stockID, date, closePrice)
	if err != nil {
		if database.IsConstraintViolation(err) {
			return fmt.Errorf("price for stock %d: %w", stockID, domain.ErrIntegrityViolation)
		}
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	return nil
}

// Latest returns the observation with the maximum date for a stock, or
// (nil, nil) if none exist. Date ordering decides, not insertion order:
// ISO dates compare lexically.
func (r *Repository) Latest(stockID int64) (*domain.PriceObservation, error) {
	var p domain.PriceObservation
	err := r.db.QueryRow(`
		SELECT stock_id, price_date, close_price
		FROM prices
		WHERE stock_id = ?
		ORDER BY price_date DESC
		LIMIT 1
	`, stockID).Scan(&p.StockID, &p.Date, &p.ClosePrice)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price: %w", err)
	}
	return &p, nil
}

// History returns stored observations for a stock ordered by date ascending,
// optionally limited to the most recent n (limit <= 0 means all).
func (r *Repository) History(stockID int64, limit int) ([]domain.PriceObservation, error) {
	query := `
		SELECT stock_id, price_date, close_price
		FROM prices
		WHERE stock_id = ?
		ORDER BY price_date ASC
	`
	args := []interface{}{stockID}
	if limit > 0 {
		// Most recent n, still returned oldest-first
		query = `
			SELECT stock_id, price_date, close_price FROM (
				SELECT stock_id, price_date, close_price
				FROM prices
				WHERE stock_id = ?
				ORDER BY price_date DESC
				LIMIT ?
			)
			ORDER BY price_date ASC
		`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var observations []domain.PriceObservation
	for rows.Next() {
		var p domain.PriceObservation
		if err := rows.Scan(&p.StockID, &p.Date, &p.ClosePrice); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		observations = append(observations, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return observations, nil
}

// Count returns the number of stored observations for a stock.
func (r *Repository) Count(stockID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM prices WHERE stock_id = ?", stockID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count prices: %w", err)
	}
	return count, nil
}
