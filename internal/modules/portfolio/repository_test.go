package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	testdb "github.com/dkaratzas/portfoliodb/internal/testing"
)

func newPortfolioRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db, cleanup := testdb.NewTestDB(t)
	return NewRepository(db.Conn(), log), cleanup
}

func TestCreate_AndGetByName(t *testing.T) {
	repo, cleanup := newPortfolioRepo(t)
	defer cleanup()

	created, err := repo.Create("retirement")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "retirement", created.Name)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, created.CreatedDate)

	found, err := repo.GetByName("retirement")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestCreate_DuplicateNameFails(t *testing.T) {
	repo, cleanup := newPortfolioRepo(t)
	defer cleanup()

	_, err := repo.Create("retirement")
	require.NoError(t, err)

	_, err = repo.Create("retirement")
	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
}

func TestGetByName_UnknownReturnsNil(t *testing.T) {
	repo, cleanup := newPortfolioRepo(t)
	defer cleanup()

	found, err := repo.GetByName("nope")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestResolveID_UnknownFailsWithNotFound(t *testing.T) {
	repo, cleanup := newPortfolioRepo(t)
	defer cleanup()

	_, err := repo.ResolveID("nope")
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestList_OrderedByName(t *testing.T) {
	repo, cleanup := newPortfolioRepo(t)
	defer cleanup()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := repo.Create(name)
		require.NoError(t, err)
	}

	portfolios, err := repo.List()
	require.NoError(t, err)
	require.Len(t, portfolios, 3)
	assert.Equal(t, "alpha", portfolios[0].Name)
	assert.Equal(t, "mid", portfolios[1].Name)
	assert.Equal(t, "zeta", portfolios[2].Name)
}
