package prices

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
	testdb "github.com/dkaratzas/portfoliodb/internal/testing"
)

func newPricesFixture(t *testing.T) (*Repository, int64, func()) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db, cleanup := testdb.NewTestDB(t)

	stockRepo := universe.NewStockRepository(db.Conn(), log)
	stockID, err := stockRepo.GetOrCreate("AAPL", "Apple Inc.", nil)
	require.NoError(t, err)

	return NewRepository(db.Conn(), log), stockID, cleanup
}

func TestUpsert_SameDayOverwritesInPlace(t *testing.T) {
	repo, stockID, cleanup := newPricesFixture(t)
	defer cleanup()

	require.NoError(t, repo.Upsert(stockID, "2024-01-02", 185.5))
	require.NoError(t, repo.Upsert(stockID, "2024-01-02", 186.25))

	count, err := repo.Count(stockID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same (stock, date) must stay a single row")

	latest, err := repo.Latest(stockID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 186.25, latest.ClosePrice)
}

func TestUpsert_RejectsNonPositiveClose(t *testing.T) {
	repo, stockID, cleanup := newPricesFixture(t)
	defer cleanup()

	assert.ErrorIs(t, repo.Upsert(stockID, "2024-01-02", 0), domain.ErrInvalidAmount)
	assert.ErrorIs(t, repo.Upsert(stockID, "2024-01-02", -3.5), domain.ErrInvalidAmount)

	count, err := repo.Count(stockID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLatest_PicksMaxDateNotInsertionOrder(t *testing.T) {
	repo, stockID, cleanup := newPricesFixture(t)
	defer cleanup()

	// Inserted newest first on purpose
	require.NoError(t, repo.Upsert(stockID, "2024-01-05", 190.0))
	require.NoError(t, repo.Upsert(stockID, "2024-01-02", 185.0))
	require.NoError(t, repo.Upsert(stockID, "2024-01-03", 187.0))

	latest, err := repo.Latest(stockID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-01-05", latest.Date)
	assert.Equal(t, 190.0, latest.ClosePrice)
}

func TestLatest_NoObservationsReturnsNil(t *testing.T) {
	repo, stockID, cleanup := newPricesFixture(t)
	defer cleanup()

	latest, err := repo.Latest(stockID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestHistory_AscendingWithLimitKeepingNewest(t *testing.T) {
	repo, stockID, cleanup := newPricesFixture(t)
	defer cleanup()

	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
	for i, d := range dates {
		require.NoError(t, repo.Upsert(stockID, d, 100.0+float64(i)))
	}

	full, err := repo.History(stockID, 0)
	require.NoError(t, err)
	require.Len(t, full, 4)
	assert.Equal(t, "2024-01-02", full[0].Date)
	assert.Equal(t, "2024-01-05", full[3].Date)

	limited, err := repo.History(stockID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	// The two newest, still in ascending order
	assert.Equal(t, "2024-01-04", limited[0].Date)
	assert.Equal(t, "2024-01-05", limited[1].Date)
}
