package domain

import "errors"

// Stable error taxonomy for ledger and query operations. Callers (CLI, HTTP
// handlers) match these with errors.Is to decide how to report the failure.
var (
	// ErrPortfolioNotFound - a lookup by portfolio name matched nothing.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrInvalidTransactionKind - transaction type is not BUY or SELL.
	ErrInvalidTransactionKind = errors.New("transaction type must be BUY or SELL")

	// ErrInvalidAmount - quantity, price, or close price is not strictly positive.
	ErrInvalidAmount = errors.New("quantity and price must be positive")

	// ErrInsufficientShares - a sell exceeds the currently held quantity.
	ErrInsufficientShares = errors.New("cannot sell more shares than currently held")

	// ErrIntegrityViolation - the storage layer rejected a constraint
	// (foreign key, uniqueness, CHECK).
	ErrIntegrityViolation = errors.New("storage integrity violation")
)
