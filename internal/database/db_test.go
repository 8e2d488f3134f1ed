package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test_db_*.db")
	require.NoError(t, err)
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := New(Config{Path: tmpPath})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	return db, func() {
		_ = db.Close()
		_ = os.Remove(tmpPath)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	// Second run must not fail on existing tables
	require.NoError(t, db.Migrate())

	_, err := db.Exec(`INSERT INTO portfolios (name) VALUES ('p1')`)
	require.NoError(t, err)
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO portfolios (name) VALUES ('committed')`)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM portfolios`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	errBoom := errors.New("boom")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO portfolios (name) VALUES ('doomed')`); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM portfolios`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec(`INSERT INTO portfolios (name) VALUES ('doomed')`)
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM portfolios`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestIsConstraintViolation(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	_, err := db.Exec(`INSERT INTO portfolios (name) VALUES ('dup')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO portfolios (name) VALUES ('dup')`)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err), "unique violation should be detected: %v", err)

	assert.False(t, IsConstraintViolation(errors.New("disk I/O error")))
	assert.False(t, IsConstraintViolation(nil))
}

func TestCheckConstraints_RejectBadRows(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	_, err := db.Exec(`INSERT INTO portfolios (name) VALUES ('p')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO stocks (ticker, company_name) VALUES ('AAPL', 'Apple')`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO transactions (portfolio_id, stock_id, transaction_type, quantity, price, transaction_date)
		VALUES (1, 1, 'BUY', -5, 100, '2024-01-02')
	`)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))
}

func TestHealthCheck(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	assert.NoError(t, db.HealthCheck(context.Background()))
}
