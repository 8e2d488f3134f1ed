package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/database"
	"github.com/dkaratzas/portfoliodb/internal/domain"
)

// Service records buy/sell transactions and keeps holdings consistent with
// the ledger. The transaction insert and the holding update form one atomic
// unit: either both commit or neither does. Sells that exceed the held
// quantity abort the whole operation, including the already-staged insert.
type Service struct {
	db           *sql.DB
	transactions *TransactionRepository
	holdings     *HoldingRepository
	log          zerolog.Logger
}

// NewService creates a new ledger service
func NewService(db *sql.DB, transactions *TransactionRepository, holdings *HoldingRepository, log zerolog.Logger) *Service {
	return &Service{
		db:           db,
		transactions: transactions,
		holdings:     holdings,
		log:          log.With().Str("service", "ledger").Logger(),
	}
}

// Record validates and persists a transaction, updating the aggregated
// holding under the weighted-average-cost rule.
//
// BUY on an open position recomputes the average as the quantity-weighted
// mean of the prior position and the new lot. SELL leaves average cost
// untouched (cost basis is realized proportionally); selling the full
// quantity deletes the holding row. Date defaults to today when empty.
func (s *Service) Record(portfolioID, stockID int64, kind domain.TransactionKind, quantity, price float64, date string) (*domain.Transaction, error) {
	parsedKind, err := domain.ParseTransactionKind(string(kind))
	if err != nil {
		return nil, err
	}
	if quantity <= 0 || price <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	txn := &domain.Transaction{
		PortfolioID: portfolioID,
		StockID:     stockID,
		Kind:        parsedKind,
		Quantity:    quantity,
		Price:       price,
		Date:        date,
	}

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		id, err := s.transactions.InsertTx(tx, txn)
		if err != nil {
			if database.IsConstraintViolation(err) {
				return fmt.Errorf("%w: %v", domain.ErrIntegrityViolation, err)
			}
			return err
		}
		txn.ID = id

		holding, err := s.holdings.GetTx(tx, portfolioID, stockID)
		if err != nil {
			return err
		}

		switch parsedKind {
		case domain.Buy:
			return s.applyBuy(tx, holding, portfolioID, stockID, quantity, price)
		case domain.Sell:
			return s.applySell(tx, holding, quantity)
		}
		return domain.ErrInvalidTransactionKind
	})
	if err != nil {
		// WithTransaction wraps; keep the taxonomy reachable via errors.Is
		// and report the failure once at this boundary.
		s.log.Debug().Err(err).
			Int64("portfolio_id", portfolioID).
			Int64("stock_id", stockID).
			Str("kind", string(parsedKind)).
			Msg("Transaction rolled back")
		return nil, err
	}

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Int64("stock_id", stockID).
		Str("kind", string(parsedKind)).
		Float64("quantity", quantity).
		Float64("price", price).
		Msg("Recorded transaction")

	return txn, nil
}

// applyBuy opens a position or folds the new lot into the weighted average:
// new_avg = (old_qty*old_avg + qty*price) / (old_qty + qty).
func (s *Service) applyBuy(tx *sql.Tx, holding *domain.Holding, portfolioID, stockID int64, quantity, price float64) error {
	if holding == nil {
		return s.holdings.CreateTx(tx, portfolioID, stockID, quantity, price)
	}

	newTotal := holding.TotalQuantity + quantity
	newAvgCost := (holding.TotalQuantity*holding.AverageCost + quantity*price) / newTotal
	return s.holdings.UpdateTx(tx, holding.ID, newTotal, newAvgCost)
}

// applySell reduces the position. Selling exactly everything closes the
// position by deleting the row; average cost is never recomputed on sells.
func (s *Service) applySell(tx *sql.Tx, holding *domain.Holding, quantity float64) error {
	if holding == nil || holding.TotalQuantity < quantity {
		return domain.ErrInsufficientShares
	}

	remaining := holding.TotalQuantity - quantity
	if remaining == 0 {
		return s.holdings.DeleteTx(tx, holding.ID)
	}
	return s.holdings.UpdateTx(tx, holding.ID, remaining, holding.AverageCost)
}
