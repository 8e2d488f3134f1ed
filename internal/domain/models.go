// Package domain holds the core entities of the portfolio database.
// The domain layer is pure: no infrastructure dependencies.
package domain

import "strings"

// TransactionKind is the type of a ledger entry.
type TransactionKind string

const (
	// Buy adds shares to a holding at the transaction price.
	Buy TransactionKind = "BUY"
	// Sell removes shares from a holding; average cost is unchanged.
	Sell TransactionKind = "SELL"
)

// ParseTransactionKind normalizes a raw transaction type string.
// Accepts any casing; returns ErrInvalidTransactionKind for anything
// other than BUY or SELL.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", ErrInvalidTransactionKind
	}
}

// Portfolio is a named container for transactions and holdings.
// Never mutated after creation.
type Portfolio struct {
	ID          int64  `json:"portfolio_id"`
	Name        string `json:"name"`
	CreatedDate string `json:"created_date"` // YYYY-MM-DD
}

// Stock is an instrument identified by its upper-cased ticker.
// Created lazily on first reference.
type Stock struct {
	ID          int64   `json:"stock_id"`
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	Sector      *string `json:"sector,omitempty"`
}

// Transaction is one immutable ledger entry, the sole source of truth
// for cost flow.
type Transaction struct {
	ID          int64           `json:"transaction_id"`
	PortfolioID int64           `json:"portfolio_id"`
	StockID     int64           `json:"stock_id"`
	Kind        TransactionKind `json:"transaction_type"`
	Quantity    float64         `json:"quantity"`
	Price       float64         `json:"price"`
	Date        string          `json:"transaction_date"` // YYYY-MM-DD
}

// Holding is the aggregated current position for one stock within one
// portfolio, maintained incrementally from transactions. A holding row is
// deleted outright when its quantity reaches zero; the average cost of a
// flat position is meaningless and must not be readable.
type Holding struct {
	ID            int64   `json:"holding_id"`
	PortfolioID   int64   `json:"portfolio_id"`
	StockID       int64   `json:"stock_id"`
	TotalQuantity float64 `json:"total_quantity"`
	AverageCost   float64 `json:"average_cost"`
	LastUpdated   string  `json:"last_updated"`
}

// PriceObservation is one closing-price sample per trading day, unique per
// (stock, date). Later writes for the same date overwrite earlier ones.
type PriceObservation struct {
	StockID    int64   `json:"stock_id"`
	Date       string  `json:"date"` // YYYY-MM-DD
	ClosePrice float64 `json:"close_price"`
}
