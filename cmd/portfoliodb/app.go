package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/clients/yahoo"
	"github.com/dkaratzas/portfoliodb/internal/config"
	"github.com/dkaratzas/portfoliodb/internal/database"
	"github.com/dkaratzas/portfoliodb/internal/modules/analytics"
	"github.com/dkaratzas/portfoliodb/internal/modules/ledger"
	"github.com/dkaratzas/portfoliodb/internal/modules/portfolio"
	"github.com/dkaratzas/portfoliodb/internal/modules/prices"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
	"github.com/dkaratzas/portfoliodb/internal/services"
	"github.com/dkaratzas/portfoliodb/pkg/logger"
)

// app bundles the wired-up dependencies every CLI command needs.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	db  *database.DB

	portfolios   *portfolio.Repository
	stocks       *universe.StockRepository
	transactions *ledger.TransactionRepository
	holdings     *ledger.HoldingRepository
	prices       *prices.Repository

	ledger    *ledger.Service
	analytics *analytics.Service
	stats     *analytics.StatsService
	sync      *services.PriceSyncService
}

// openApp loads configuration, opens the database, and wires the full
// dependency graph. The schema migration is idempotent, so every command
// runs against a ready store. Logging defaults to warnings so command
// output stays clean.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := cfg.LogLevel
	if logLevel == "" || logLevel == "info" {
		logLevel = "warn"
	}
	log := logger.New(logger.Config{Level: logLevel, Pretty: true})

	db, err := database.New(database.Config{Path: cfg.DatabasePath})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a := &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		portfolios:   portfolio.NewRepository(db.Conn(), log),
		stocks:       universe.NewStockRepository(db.Conn(), log),
		transactions: ledger.NewTransactionRepository(db.Conn(), log),
		holdings:     ledger.NewHoldingRepository(db.Conn(), log),
		prices:       prices.NewRepository(db.Conn(), log),
	}

	a.ledger = ledger.NewService(db.Conn(), a.transactions, a.holdings, log)
	a.analytics = analytics.NewService(db.Conn(), a.portfolios, log)
	a.stats = analytics.NewStatsService(a.stocks, a.prices)

	feed := yahoo.NewClient(cfg.PriceFeed.BaseURL, yahoo.RetryPolicy{
		Attempts:      cfg.PriceFeed.Retries,
		Delay:         cfg.PriceFeed.RetryDelay,
		FallbackRange: yahoo.DefaultRetryPolicy().FallbackRange,
	}, log)
	a.sync = services.NewPriceSyncService(db.Conn(), feed, a.stocks, a.prices, log)

	return a, nil
}

// close releases the database.
func (a *app) close() {
	_ = a.db.Close()
}
