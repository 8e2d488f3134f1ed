// Package universe provides the repository for the instruments the system
// knows about. Stocks enter the universe lazily, on first reference by a
// transaction or a price fetch.
package universe

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/domain"
)

// StockRepository handles stock database operations
type StockRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *sql.DB, log zerolog.Logger) *StockRepository {
	return &StockRepository{
		db:  db,
		log: log.With().Str("repo", "stocks").Logger(),
	}
}

// NormalizeTicker upper-cases and trims a ticker symbol. All storage and
// lookups key on the normalized form.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// GetByTicker retrieves a stock by normalized ticker.
// Returns (nil, nil) when the ticker is unknown.
func (r *StockRepository) GetByTicker(ticker string) (*domain.Stock, error) {
	var s domain.Stock
	var sector sql.NullString

	err := r.db.QueryRow(
		"SELECT stock_id, ticker, company_name, sector FROM stocks WHERE ticker = ?",
		NormalizeTicker(ticker),
	).Scan(&s.ID, &s.Ticker, &s.CompanyName, &sector)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}

	if sector.Valid {
		s.Sector = &sector.String
	}
	return &s, nil
}

// GetOrCreate returns the stock ID for a ticker, inserting a new row if the
// ticker has never been seen. The company name defaults to the ticker itself
// when not provided.
func (r *StockRepository) GetOrCreate(ticker, companyName string, sector *string) (int64, error) {
	t := NormalizeTicker(ticker)
	if t == "" {
		return 0, fmt.Errorf("ticker must not be empty")
	}

	existing, err := r.GetByTicker(t)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	if companyName == "" {
		companyName = t
	}

	result, err := r.db.Exec(
		"INSERT INTO stocks (ticker, company_name, sector) VALUES (?, ?, ?)",
		t, companyName, sector,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert stock %s: %w", t, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	r.log.Debug().Str("ticker", t).Int64("stock_id", id).Msg("Created stock")
	return id, nil
}

// List returns all stocks ordered by ticker.
func (r *StockRepository) List() ([]domain.Stock, error) {
	rows, err := r.db.Query("SELECT stock_id, ticker, company_name, sector FROM stocks ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		var s domain.Stock
		var sector sql.NullString
		if err := rows.Scan(&s.ID, &s.Ticker, &s.CompanyName, &sector); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		if sector.Valid {
			s.Sector = &sector.String
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return stocks, nil
}

// ListHeldTickers returns the tickers of every stock referenced by any
// current holding. The price refresh job uses this to know what to fetch.
func (r *StockRepository) ListHeldTickers() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT s.ticker
		FROM stocks s
		JOIN current_holdings h ON h.stock_id = s.stock_id
		ORDER BY s.ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query held tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}
