// Package services contains application services that glue repositories,
// clients, and jobs together.
package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/clients/yahoo"
	"github.com/dkaratzas/portfoliodb/internal/modules/prices"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
)

// PriceFeed is the contract the sync service needs from the external market
// data source. Defined here so tests can substitute a fake feed.
type PriceFeed interface {
	FetchHistory(ticker, start, end string) ([]yahoo.Quote, error)
	FetchLatest(ticker string) (*yahoo.Quote, error)
}

// PriceSyncService ingests feed data into the price store. Each run is
// recorded in price_sync_runs with a generated ID so operators can audit
// what was fetched and when. A failed fetch stores nothing; existing prices
// are never touched by failures.
type PriceSyncService struct {
	db     *sql.DB
	feed   PriceFeed
	stocks *universe.StockRepository
	prices *prices.Repository
	log    zerolog.Logger
}

// NewPriceSyncService creates a new price sync service
func NewPriceSyncService(db *sql.DB, feed PriceFeed, stocks *universe.StockRepository, priceRepo *prices.Repository, log zerolog.Logger) *PriceSyncService {
	return &PriceSyncService{
		db:     db,
		feed:   feed,
		stocks: stocks,
		prices: priceRepo,
		log:    log.With().Str("service", "price_sync").Logger(),
	}
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	RunID      string `json:"run_id"`
	Ticker     string `json:"ticker"`
	RowsStored int    `json:"rows_stored"`
	Status     string `json:"status"` // "ok" or "empty"
}

// SyncHistory fetches daily closes for [start, end] and upserts them,
// creating the stock on first reference. An unreachable feed yields an
// "empty" run, not an error.
func (s *PriceSyncService) SyncHistory(ticker, start, end string) (*SyncResult, error) {
	runID, startedAt := s.beginRun(ticker)

	quotes, err := s.feed.FetchHistory(ticker, start, end)
	if err != nil {
		s.finishRun(runID, 0, "error")
		return nil, fmt.Errorf("price feed history fetch for %s: %w", ticker, err)
	}
	if len(quotes) == 0 {
		s.finishRun(runID, 0, "empty")
		return &SyncResult{RunID: runID, Ticker: universe.NormalizeTicker(ticker), Status: "empty"}, nil
	}

	stockID, err := s.stocks.GetOrCreate(ticker, "", nil)
	if err != nil {
		s.finishRun(runID, 0, "error")
		return nil, err
	}

	stored := 0
	for _, q := range quotes {
		if q.Close <= 0 {
			continue
		}
		if err := s.prices.Upsert(stockID, q.Date, q.Close); err != nil {
			s.finishRun(runID, stored, "error")
			return nil, err
		}
		stored++
	}

	s.finishRun(runID, stored, "ok")
	s.log.Info().
		Str("run_id", runID).
		Str("ticker", universe.NormalizeTicker(ticker)).
		Int("rows", stored).
		Dur("took", time.Since(startedAt)).
		Msg("Synced price history")

	return &SyncResult{
		RunID:      runID,
		Ticker:     universe.NormalizeTicker(ticker),
		RowsStored: stored,
		Status:     "ok",
	}, nil
}

// SyncLatest fetches and stores the most recent close for a ticker.
// Returns the stored observation date and price, or nil when the feed had
// nothing usable.
func (s *PriceSyncService) SyncLatest(ticker string) (*yahoo.Quote, error) {
	quote, err := s.feed.FetchLatest(ticker)
	if err != nil {
		return nil, fmt.Errorf("price feed latest fetch for %s: %w", ticker, err)
	}
	if quote == nil || quote.Close <= 0 {
		return nil, nil
	}

	stockID, err := s.stocks.GetOrCreate(ticker, "", nil)
	if err != nil {
		return nil, err
	}

	if err := s.prices.Upsert(stockID, quote.Date, quote.Close); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("ticker", universe.NormalizeTicker(ticker)).
		Str("date", quote.Date).
		Float64("close", quote.Close).
		Msg("Stored latest price")

	return quote, nil
}

// RefreshHeld syncs the latest price for every stock referenced by a
// current holding. Feed failures for one ticker do not stop the rest.
func (s *PriceSyncService) RefreshHeld() (int, error) {
	tickers, err := s.stocks.ListHeldTickers()
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, t := range tickers {
		quote, err := s.SyncLatest(t)
		if err != nil {
			s.log.Error().Err(err).Str("ticker", t).Msg("Failed to refresh price")
			continue
		}
		if quote != nil {
			updated++
		}
	}
	return updated, nil
}

// beginRun records the start of a sync run and returns its ID.
func (s *PriceSyncService) beginRun(ticker string) (string, time.Time) {
	runID := uuid.New().String()
	startedAt := time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO price_sync_runs (run_id, ticker, status, started_at)
		VALUES (?, ?, 'running', ?)
	`, runID, universe.NormalizeTicker(ticker), startedAt.Format(time.RFC3339))
	if err != nil {
		// Run history is best-effort; the sync itself must not fail on it.
		s.log.Warn().Err(err).Msg("Failed to record sync run start")
	}
	return runID, startedAt
}

// finishRun closes out a sync run record.
func (s *PriceSyncService) finishRun(runID string, rows int, status string) {
	_, err := s.db.Exec(`
		UPDATE price_sync_runs
		SET rows_stored = ?, status = ?, finished_at = ?
		WHERE run_id = ?
	`, rows, status, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		s.log.Warn().Err(err).Str("run_id", runID).Msg("Failed to record sync run finish")
	}
}
