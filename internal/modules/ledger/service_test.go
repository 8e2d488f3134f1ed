package ledger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	"github.com/dkaratzas/portfoliodb/internal/modules/portfolio"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
	testdb "github.com/dkaratzas/portfoliodb/internal/testing"
)

type ledgerFixture struct {
	service      *Service
	transactions *TransactionRepository
	holdings     *HoldingRepository
	portfolioID  int64
	stockID      int64
	cleanup      func()
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db, cleanup := testdb.NewTestDB(t)

	portfolioRepo := portfolio.NewRepository(db.Conn(), log)
	stockRepo := universe.NewStockRepository(db.Conn(), log)
	transactions := NewTransactionRepository(db.Conn(), log)
	holdings := NewHoldingRepository(db.Conn(), log)

	p, err := portfolioRepo.Create("growth")
	require.NoError(t, err)

	stockID, err := stockRepo.GetOrCreate("AAPL", "Apple Inc.", nil)
	require.NoError(t, err)

	return &ledgerFixture{
		service:      NewService(db.Conn(), transactions, holdings, log),
		transactions: transactions,
		holdings:     holdings,
		portfolioID:  p.ID,
		stockID:      stockID,
		cleanup:      cleanup,
	}
}

func TestRecord_BuyOpensPosition(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	txn, err := f.service.Record(f.portfolioID, f.stockID, domain.Buy, 10, 150.0, "2024-01-02")
	require.NoError(t, err)
	assert.NotZero(t, txn.ID)
	assert.Equal(t, domain.Buy, txn.Kind)

	holding, err := f.holdings.Get(f.portfolioID, f.stockID)
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, 10.0, holding.TotalQuantity)
	assert.Equal(t, 150.0, holding.AverageCost)
}

func TestRecord_BuyRecomputesWeightedAverage(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	_, err := f.service.Record(f.portfolioID, f.stockID, domain.Buy, 10, 150.0, "2024-01-02")
	require.NoError(t, err)
	_, err = f.service.Record(f.portfolioID, f.stockID, domain.Buy, 5, 200.0, "2024-01-03")
	require.NoError(t, err)

	holding, err := f.holdings.Get(f.portfolioID, f.stockID)
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, 15.0, holding.TotalQuantity)
	// (10*150 + 5*200) / 15
	assert.InDelta(t, 166.6667, holding.AverageCost, 0.0001)
}

func TestRecord_SellLeavesAverageCostUntouched(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	_, err := f.service.Record(f.portfolioID, f.stockID, domain.Buy, 10, 150.0, "2024-01-02")
	require.NoError(t, err)
	_, err = f.service.Record(f.portfolioID, f.stockID, domain.Buy, 5, 200.0, "2024-01-03")
	require.NoError(t, err)

	_, err = f.service.Record(f.portfolioID, f.stockID, domain.Sell, 3, 210.0, "2024-01-04")
	require.NoError(t, err)

	holding, err := f.holdings.Get(f.portfolioID, f.stockID)
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, 12.0, holding.TotalQuantity)
	assert.InDelta(t, 166.6667, holding.AverageCost, 0.0001)
}

func TestRecord_SellingEverythingDeletesHolding(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	_, err := f.service.Record(f.portfolioID, f.stockID, domain.Buy, 10, 150.0, "2024-01-02")
	require.NoError(t, err)
	_, err = f.service.Record(f.portfolioID, f.stockID, domain.Sell, 10, 180.0, "2024-01-05")
	require.NoError(t, err)

	holding, err := f.holdings.Get(f.portfolioID, f.stockID)
	require.NoError(t, err)
	assert.Nil(t, holding, "closed position must not leave a holding row")
}

func TestRecord_OversellRollsBackTransaction(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	_, err := f.service.Record(f.portfolioID, f.stockID, domain.Buy, 5, 100.0, "2024-01-02")
	require.NoError(t, err)

	before, err := f.transactions.CountByPortfolio(f.portfolioID)
	require.NoError(t, err)

	_, err = f.service.Record(f.portfolioID, f.stockID, domain.Sell, 8, 120.0, "2024-01-03")
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	// The staged transaction insert must be rolled back with the failure
	after, err := f.transactions.CountByPortfolio(f.portfolioID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	holding, err := f.holdings.Get(f.portfolioID, f.stockID)
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, 5.0, holding.TotalQuantity)
}

func TestRecord_SellWithNoPositionFails(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	_, err := f.service.Record(f.portfolioID, f.stockID, domain.Sell, 1, 100.0, "2024-01-02")
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	count, err := f.transactions.CountByPortfolio(f.portfolioID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRecord_RejectsInvalidKind(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	_, err := f.service.Record(f.portfolioID, f.stockID, "HOLD", 1, 100.0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionKind)
}

func TestRecord_KindIsCaseInsensitive(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	txn, err := f.service.Record(f.portfolioID, f.stockID, "buy", 2, 50.0, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, domain.Buy, txn.Kind)
}

func TestRecord_RejectsNonPositiveAmounts(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	cases := []struct {
		name     string
		quantity float64
		price    float64
	}{
		{"zero quantity", 0, 100},
		{"negative quantity", -1, 100},
		{"zero price", 10, 0},
		{"negative price", 10, -5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Record(f.portfolioID, f.stockID, domain.Buy, tc.quantity, tc.price, "")
			assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		})
	}
}

func TestRecord_DateDefaultsToToday(t *testing.T) {
	f := newLedgerFixture(t)
	defer f.cleanup()

	txn, err := f.service.Record(f.portfolioID, f.stockID, domain.Buy, 1, 10.0, "")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, txn.Date)
}

func TestRecord_BuyAverageIsOrderIndependent(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	run := func(t *testing.T, lots [][2]float64) float64 {
		db, cleanup := testdb.NewTestDB(t)
		defer cleanup()

		portfolioRepo := portfolio.NewRepository(db.Conn(), log)
		stockRepo := universe.NewStockRepository(db.Conn(), log)
		transactions := NewTransactionRepository(db.Conn(), log)
		holdings := NewHoldingRepository(db.Conn(), log)
		service := NewService(db.Conn(), transactions, holdings, log)

		p, err := portfolioRepo.Create("p")
		require.NoError(t, err)
		stockID, err := stockRepo.GetOrCreate("MSFT", "", nil)
		require.NoError(t, err)

		for _, lot := range lots {
			_, err := service.Record(p.ID, stockID, domain.Buy, lot[0], lot[1], "2024-01-02")
			require.NoError(t, err)
		}

		holding, err := holdings.Get(p.ID, stockID)
		require.NoError(t, err)
		require.NotNil(t, holding)
		return holding.AverageCost
	}

	forward := run(t, [][2]float64{{10, 150}, {5, 200}, {20, 90}})
	reversed := run(t, [][2]float64{{20, 90}, {5, 200}, {10, 150}})
	assert.InDelta(t, forward, reversed, 1e-9)
}
