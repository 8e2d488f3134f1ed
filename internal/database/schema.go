package database

// Schema is the single source of truth for the portfolio database layout.
// Five core tables plus a job-history table for price sync runs. All value
// constraints live here as CHECK clauses so the storage layer rejects bad
// rows even if a caller bypasses validation.
const Schema = `
CREATE TABLE IF NOT EXISTS portfolios (
    portfolio_id   INTEGER PRIMARY KEY,
    name           TEXT NOT NULL UNIQUE,
    created_date   TEXT NOT NULL DEFAULT (date('now'))
);

CREATE TABLE IF NOT EXISTS stocks (
    stock_id      INTEGER PRIMARY KEY,
    ticker        TEXT NOT NULL UNIQUE,
    company_name  TEXT NOT NULL,
    sector        TEXT
);

CREATE TABLE IF NOT EXISTS transactions (
    transaction_id   INTEGER PRIMARY KEY,
    portfolio_id     INTEGER NOT NULL,
    stock_id         INTEGER NOT NULL,
    transaction_type TEXT NOT NULL CHECK (transaction_type IN ('BUY','SELL')),
    quantity         REAL NOT NULL CHECK (quantity > 0),
    price            REAL NOT NULL CHECK (price > 0),
    transaction_date TEXT NOT NULL,
    FOREIGN KEY (portfolio_id) REFERENCES portfolios(portfolio_id) ON DELETE CASCADE,
    FOREIGN KEY (stock_id) REFERENCES stocks(stock_id) ON DELETE RESTRICT
);

CREATE TABLE IF NOT EXISTS prices (
    price_id     INTEGER PRIMARY KEY,
    stock_id     INTEGER NOT NULL,
    price_date   TEXT NOT NULL,
    close_price  REAL NOT NULL CHECK (close_price > 0),
    UNIQUE(stock_id, price_date),
    FOREIGN KEY (stock_id) REFERENCES stocks(stock_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS current_holdings (
    holding_id     INTEGER PRIMARY KEY,
    portfolio_id   INTEGER NOT NULL,
    stock_id       INTEGER NOT NULL,
    total_quantity REAL NOT NULL CHECK (total_quantity >= 0),
    average_cost   REAL NOT NULL CHECK (average_cost >= 0),
    last_updated   TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(portfolio_id, stock_id),
    FOREIGN KEY (portfolio_id) REFERENCES portfolios(portfolio_id) ON DELETE CASCADE,
    FOREIGN KEY (stock_id) REFERENCES stocks(stock_id) ON DELETE RESTRICT
);

CREATE TABLE IF NOT EXISTS price_sync_runs (
    run_id       TEXT PRIMARY KEY,
    ticker       TEXT NOT NULL,
    rows_stored  INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    started_at   TEXT NOT NULL,
    finished_at  TEXT
);

CREATE INDEX IF NOT EXISTS idx_txn_portfolio_date ON transactions(portfolio_id, transaction_date);
CREATE INDEX IF NOT EXISTS idx_txn_stock ON transactions(stock_id);
CREATE INDEX IF NOT EXISTS idx_prices_stock_date ON prices(stock_id, price_date);
CREATE INDEX IF NOT EXISTS idx_holdings_portfolio ON current_holdings(portfolio_id);
`
