package pg

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
)

// openTestDB connects to a real Postgres instance described by the
// NOMMIE_TEST_PG_* env vars. Unlike internal/repo/sqlite, there is no
// in-memory Postgres to stand up inline, so these tests skip rather than
// fail when no test database has been configured.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	host := os.Getenv("NOMMIE_TEST_PG_HOST")
	if host == "" {
		t.Skip("NOMMIE_TEST_PG_HOST not set, skipping postgres-backed test")
	}
	cfg := Config{
		Host:     host,
		Port:     os.Getenv("NOMMIE_TEST_PG_PORT"),
		DBName:   os.Getenv("NOMMIE_TEST_PG_DBNAME"),
		User:     os.Getenv("NOMMIE_TEST_PG_USER"),
		Password: os.Getenv("NOMMIE_TEST_PG_PASSWORD"),
	}
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCards(t *testing.T, tokens ...string) []domain.Card {
	t.Helper()
	cards, err := domain.ParseCards(tokens)
	require.NoError(t, err)
	return cards
}

func TestCreateGameAndDealRound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	game, err := db.CreateGame(ctx, 99, 0)
	require.NoError(t, err)
	assert.Equal(t, repo.GameStatusLobby, game.Status)

	var hands [domain.NumSeats][]domain.Card
	hands[0] = mustCards(t, "2C")
	hands[1] = mustCards(t, "3D")
	hands[2] = mustCards(t, "4H")
	hands[3] = mustCards(t, "5S")

	round, game, err := db.DealRound(ctx, game.ID, 1, 1, 0, hands, game.Version)
	require.NoError(t, err)
	assert.Equal(t, 1, game.CurrentRoundNo)
	assert.Equal(t, "BIDDING", round.Phase)

	loaded, err := db.GetHands(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, loaded, domain.NumSeats)
}

func TestStartGameFailsOnStaleVersionPG(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	game, err := db.CreateGame(ctx, 1, 0)
	require.NoError(t, err)

	_, err = db.StartGame(ctx, game.ID, game.Version+1)
	require.Error(t, err)

	started, err := db.StartGame(ctx, game.ID, game.Version)
	require.NoError(t, err)
	assert.Equal(t, repo.GameStatusInProgress, started.Status)
}
