package analytics

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkaratzas/portfoliodb/internal/modules/prices"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
	testdb "github.com/dkaratzas/portfoliodb/internal/testing"
)

func newStatsFixture(t *testing.T) (*StatsService, *universe.StockRepository, *prices.Repository, func()) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db, cleanup := testdb.NewTestDB(t)

	stockRepo := universe.NewStockRepository(db.Conn(), log)
	priceRepo := prices.NewRepository(db.Conn(), log)
	return NewStatsService(stockRepo, priceRepo), stockRepo, priceRepo, cleanup
}

func TestPriceStats_ComputesReturnsAndDrawdown(t *testing.T) {
	svc, stocks, priceRepo, cleanup := newStatsFixture(t)
	defer cleanup()

	stockID, err := stocks.GetOrCreate("AAPL", "", nil)
	require.NoError(t, err)

	closes := []struct {
		date  string
		price float64
	}{
		{"2024-01-02", 100.0},
		{"2024-01-03", 110.0},
		{"2024-01-04", 99.0},
		{"2024-01-05", 104.0},
	}
	for _, c := range closes {
		require.NoError(t, priceRepo.Upsert(stockID, c.date, c.price))
	}

	stats, err := svc.PriceStats("aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", stats.Ticker)
	assert.Equal(t, 4, stats.Observations)
	assert.Equal(t, "2024-01-02", stats.FirstDate)
	assert.Equal(t, "2024-01-05", stats.LastDate)
	assert.Equal(t, 104.0, stats.LastClose)

	// Daily returns: +10%, -10%, +5.0505%
	expectedMean := (0.10 - 0.10 + 5.0/99.0) / 3
	assert.InDelta(t, expectedMean, stats.MeanDailyReturn, 1e-9)

	// Peak 110 to trough 99
	assert.InDelta(t, 0.10, stats.MaxDrawdown, 1e-9)

	assert.InDelta(t, stats.DailyVolatility*math.Sqrt(TradingDaysPerYear), stats.AnnualVolatility, 1e-9)
	assert.Greater(t, stats.DailyVolatility, 0.0)
}

func TestPriceStats_RequiresTwoObservations(t *testing.T) {
	svc, stocks, priceRepo, cleanup := newStatsFixture(t)
	defer cleanup()

	stockID, err := stocks.GetOrCreate("MSFT", "", nil)
	require.NoError(t, err)
	require.NoError(t, priceRepo.Upsert(stockID, "2024-01-02", 400.0))

	_, err = svc.PriceStats("MSFT")
	assert.Error(t, err)
}

func TestPriceStats_UnknownTickerFails(t *testing.T) {
	svc, _, _, cleanup := newStatsFixture(t)
	defer cleanup()

	_, err := svc.PriceStats("NOPE")
	assert.Error(t, err)
}
