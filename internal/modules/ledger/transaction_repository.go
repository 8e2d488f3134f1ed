// Package ledger implements the immutable transaction ledger and the
// incrementally maintained holdings that derive from it.
package ledger

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/domain"
)

// TransactionRepository handles ledger entries. Rows are append-only: there
// is no update or delete path, matching the audit-trail contract.
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// InsertTx appends one transaction row inside the caller's transaction scope.
// Used by the ledger service so the insert commits or rolls back together
// with the holding update.
func (r *TransactionRepository) InsertTx(tx *sql.Tx, t *domain.Transaction) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO transactions (portfolio_id, stock_id, transaction_type, quantity, price, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.PortfolioID, t.StockID, string(t.Kind), t.Quantity, t.Price, t.Date)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// ListByPortfolio returns all transactions for a portfolio ordered by date
// then insertion order.
func (r *TransactionRepository) ListByPortfolio(portfolioID int64) ([]domain.Transaction, error) {
	rows, err := r.db.Query(`
		SELECT transaction_id, portfolio_id, stock_id, transaction_type, quantity, price, transaction_date
		FROM transactions
		WHERE portfolio_id = ?
		ORDER BY transaction_date ASC, transaction_id ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.StockID, &kind, &t.Quantity, &t.Price, &t.Date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Kind = domain.TransactionKind(kind)
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}

// CountByPortfolio returns the number of ledger entries for a portfolio.
func (r *TransactionRepository) CountByPortfolio(portfolioID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM transactions WHERE portfolio_id = ?", portfolioID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
