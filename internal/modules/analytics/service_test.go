package analytics

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	"github.com/dkaratzas/portfoliodb/internal/modules/ledger"
	"github.com/dkaratzas/portfoliodb/internal/modules/portfolio"
	"github.com/dkaratzas/portfoliodb/internal/modules/prices"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
	testdb "github.com/dkaratzas/portfoliodb/internal/testing"
)

type analyticsFixture struct {
	service *Service
	ledger  *ledger.Service
	stocks  *universe.StockRepository
	prices  *prices.Repository
	cleanup func()

	portfolioID int64
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db, cleanup := testdb.NewTestDB(t)

	portfolioRepo := portfolio.NewRepository(db.Conn(), log)
	stockRepo := universe.NewStockRepository(db.Conn(), log)
	transactionRepo := ledger.NewTransactionRepository(db.Conn(), log)
	holdingRepo := ledger.NewHoldingRepository(db.Conn(), log)

	p, err := portfolioRepo.Create("growth")
	require.NoError(t, err)

	return &analyticsFixture{
		service:     NewService(db.Conn(), portfolioRepo, log),
		ledger:      ledger.NewService(db.Conn(), transactionRepo, holdingRepo, log),
		stocks:      stockRepo,
		prices:      prices.NewRepository(db.Conn(), log),
		cleanup:     cleanup,
		portfolioID: p.ID,
	}
}

func (f *analyticsFixture) trade(t *testing.T, ticker string, kind domain.TransactionKind, qty, price float64, date string) {
	t.Helper()
	stockID, err := f.stocks.GetOrCreate(ticker, "", nil)
	require.NoError(t, err)
	_, err = f.ledger.Record(f.portfolioID, stockID, kind, qty, price, date)
	require.NoError(t, err)
}

func (f *analyticsFixture) close(t *testing.T, ticker, date string, price float64) {
	t.Helper()
	stockID, err := f.stocks.GetOrCreate(ticker, "", nil)
	require.NoError(t, err)
	require.NoError(t, f.prices.Upsert(stockID, date, price))
}

func TestValuation_ValuesHoldingsAtLatestClose(t *testing.T) {
	f := newAnalyticsFixture(t)
	defer f.cleanup()

	f.trade(t, "AAPL", domain.Buy, 10, 150.0, "2024-01-02")
	f.trade(t, "AAPL", domain.Buy, 5, 200.0, "2024-01-03")
	f.close(t, "AAPL", "2024-01-03", 180.0)
	f.close(t, "AAPL", "2024-01-04", 190.0)

	rows, err := f.service.Valuation("growth")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	v := rows[0]
	assert.Equal(t, "AAPL", v.Ticker)
	assert.Equal(t, 15.0, v.TotalQuantity)
	assert.InDelta(t, 166.6667, v.AverageCost, 0.0001)
	assert.Equal(t, 190.0, v.LastPrice)
	assert.InDelta(t, 2500.0, v.CostBasis, 0.0001)
	assert.InDelta(t, 2850.0, v.MarketValue, 0.0001)
	assert.InDelta(t, 350.0, v.UnrealizedPL, 0.0001)
}

func TestValuation_NoStoredPriceValuesAtZero(t *testing.T) {
	f := newAnalyticsFixture(t)
	defer f.cleanup()

	f.trade(t, "AAPL", domain.Buy, 10, 150.0, "2024-01-02")

	rows, err := f.service.Valuation("growth")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].LastPrice)
	assert.Equal(t, 0.0, rows[0].MarketValue)
	assert.InDelta(t, -1500.0, rows[0].UnrealizedPL, 0.0001)
}

func TestValuation_EmptyPortfolioReturnsEmpty(t *testing.T) {
	f := newAnalyticsFixture(t)
	defer f.cleanup()

	rows, err := f.service.Valuation("growth")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestValuation_UnknownPortfolioFails(t *testing.T) {
	f := newAnalyticsFixture(t)
	defer f.cleanup()

	_, err := f.service.Valuation("nope")
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestValuation_ClosedPositionsExcluded(t *testing.T) {
	f := newAnalyticsFixture(t)
	defer f.cleanup()

	f.trade(t, "MSFT", domain.Buy, 5, 100.0, "2024-01-02")
	f.trade(t, "MSFT", domain.Sell, 5, 120.0, "2024-01-03")

	rows, err := f.service.Valuation("growth")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReturns_OpenAndClosedPositions(t *testing.T) {
	f := newAnalyticsFixture(t)
	defer f.cleanup()

	// Open position: 15 shares at weighted average 166.67
	f.trade(t, "AAPL", domain.Buy, 10, 150.0, "2024-01-02")
	f.trade(t, "AAPL", domain.Buy, 5, 200.0, "2024-01-03")
	f.close(t, "AAPL", "2024-01-04", 190.0)

	// Closed position: bought for 500, sold for 600
	f.trade(t, "MSFT", domain.Buy, 5, 100.0, "2024-01-02")
	f.trade(t, "MSFT", domain.Sell, 5, 120.0, "2024-01-03")

	rows, err := f.service.Returns("growth")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	aapl := rows[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.Equal(t, 15.0, aapl.QtyBought)
	assert.Equal(t, 0.0, aapl.QtySold)
	assert.InDelta(t, 2500.0, aapl.TotalCost, 0.0001)
	assert.Equal(t, 15.0, aapl.QtyRemaining)
	assert.InDelta(t, 2850.0, aapl.RemainingValue, 0.0001)
	// No sells yet: remaining basis equals total cost, so nothing realized
	assert.InDelta(t, 0.0, aapl.RealizedPL, 0.0001)
	assert.InDelta(t, 350.0, aapl.UnrealizedPL, 0.0001)

	msft := rows[1]
	assert.Equal(t, "MSFT", msft.Ticker)
	assert.Equal(t, 5.0, msft.QtyBought)
	assert.Equal(t, 5.0, msft.QtySold)
	assert.Equal(t, 0.0, msft.QtyRemaining)
	// Fully closed: proceeds minus cost
	assert.InDelta(t, 100.0, msft.RealizedPL, 0.0001)
	assert.InDelta(t, 0.0, msft.UnrealizedPL, 0.0001)
}

func TestReturns_PartialSellRealizesProportionally(t *testing.T) {
	f := newAnalyticsFixture(t)
	defer f.cleanup()

	f.trade(t, "AAPL", domain.Buy, 10, 100.0, "2024-01-02")
	f.trade(t, "AAPL", domain.Sell, 4, 130.0, "2024-01-03")

	rows, err := f.service.Returns("growth")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	// proceeds 520 - (cost 1000 - remaining 6*100) = 120
	assert.InDelta(t, 120.0, r.RealizedPL, 0.0001)
	assert.Equal(t, 6.0, r.QtyRemaining)
}

func TestReturns_UnknownPortfolioFails(t *testing.T) {
	f := newAnalyticsFixture(t)
	defer f.cleanup()

	_, err := f.service.Returns("nope")
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}
