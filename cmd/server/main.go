// Package main is the entry point for the portfolio tracker HTTP server.
// It wires configuration, the SQLite store, repositories, services, the
// price feed client, the daily refresh scheduler, and the API server, then
// waits for a shutdown signal.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkaratzas/portfoliodb/internal/clients/yahoo"
	"github.com/dkaratzas/portfoliodb/internal/config"
	"github.com/dkaratzas/portfoliodb/internal/database"
	"github.com/dkaratzas/portfoliodb/internal/modules/analytics"
	analyticshandlers "github.com/dkaratzas/portfoliodb/internal/modules/analytics/handlers"
	"github.com/dkaratzas/portfoliodb/internal/modules/ledger"
	ledgerhandlers "github.com/dkaratzas/portfoliodb/internal/modules/ledger/handlers"
	"github.com/dkaratzas/portfoliodb/internal/modules/portfolio"
	portfoliohandlers "github.com/dkaratzas/portfoliodb/internal/modules/portfolio/handlers"
	"github.com/dkaratzas/portfoliodb/internal/modules/prices"
	priceshandlers "github.com/dkaratzas/portfoliodb/internal/modules/prices/handlers"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
	"github.com/dkaratzas/portfoliodb/internal/scheduler"
	"github.com/dkaratzas/portfoliodb/internal/server"
	"github.com/dkaratzas/portfoliodb/internal/services"
	"github.com/dkaratzas/portfoliodb/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("database", cfg.DatabasePath).Msg("Starting portfolio tracker")

	db, err := database.New(database.Config{Path: cfg.DatabasePath})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Repositories
	portfolioRepo := portfolio.NewRepository(db.Conn(), log)
	stockRepo := universe.NewStockRepository(db.Conn(), log)
	transactionRepo := ledger.NewTransactionRepository(db.Conn(), log)
	holdingRepo := ledger.NewHoldingRepository(db.Conn(), log)
	priceRepo := prices.NewRepository(db.Conn(), log)

	// Services
	ledgerService := ledger.NewService(db.Conn(), transactionRepo, holdingRepo, log)
	analyticsService := analytics.NewService(db.Conn(), portfolioRepo, log)
	statsService := analytics.NewStatsService(stockRepo, priceRepo)

	feed := yahoo.NewClient(cfg.PriceFeed.BaseURL, yahoo.RetryPolicy{
		Attempts:      cfg.PriceFeed.Retries,
		Delay:         cfg.PriceFeed.RetryDelay,
		FallbackRange: yahoo.DefaultRetryPolicy().FallbackRange,
	}, log)
	syncService := services.NewPriceSyncService(db.Conn(), feed, stockRepo, priceRepo, log)

	// Daily price refresh
	refreshJob := scheduler.NewPriceRefreshJob(syncService, log)
	sched, err := scheduler.New(cfg.SyncSchedule, refreshJob, log)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SyncSchedule).Msg("Invalid price refresh schedule")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:               log,
		Config:            cfg,
		DB:                db,
		PortfolioHandlers: portfoliohandlers.NewHandler(portfolioRepo, log),
		LedgerHandlers:    ledgerhandlers.NewHandler(portfolioRepo, stockRepo, ledgerService, transactionRepo, holdingRepo, log),
		PricesHandlers:    priceshandlers.NewHandler(stockRepo, priceRepo, syncService, log),
		AnalyticsHandlers: analyticshandlers.NewHandler(analyticsService, statsService, log),
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	if err := db.WALCheckpoint("TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("Final WAL checkpoint failed")
	}

	log.Info().Msg("Shutdown complete")
}
