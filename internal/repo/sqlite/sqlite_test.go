package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
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

func TestCreateGameAndSeatAllFourMemberships(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	game, err := db.CreateGame(ctx, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, repo.GameStatusLobby, game.Status)
	assert.EqualValues(t, 1, game.Version)

	aiProfileID := int64(1)
	for seat := 0; seat < domain.NumSeats; seat++ {
		var profile *int64
		if seat != 0 {
			profile = &aiProfileID
		}
		_, err := db.AddMembership(ctx, game.ID, seat, int64(seat+100), profile)
		require.NoError(t, err)
	}

	ms, err := db.GetMemberships(ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, ms[0].AIProfileID)
	for seat := 1; seat < domain.NumSeats; seat++ {
		require.NotNil(t, ms[seat].AIProfileID)
		assert.Equal(t, aiProfileID, *ms[seat].AIProfileID)
	}
}

func TestStartGameFailsOnStaleVersion(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	game, err := db.CreateGame(ctx, 1, 0)
	require.NoError(t, err)

	_, err = db.StartGame(ctx, game.ID, game.Version+1)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOptimisticLock, apperrors.CodeOf(err))

	started, err := db.StartGame(ctx, game.ID, game.Version)
	require.NoError(t, err)
	assert.Equal(t, repo.GameStatusInProgress, started.Status)
	assert.Equal(t, game.Version+1, started.Version)
}

func TestDealRoundPersistsHandsAndBumpsCurrentRound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	game, err := db.CreateGame(ctx, 7, 0)
	require.NoError(t, err)

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
	for _, h := range loaded {
		assert.Equal(t, hands[h.Seat], h.Cards)
	}
}

// TestFullRoundLifecycle drives one hand_size=1 round through bidding,
// trump selection, a single trick, and scoring, checking the phase column
// advances at each step and the final cumulative score lands correctly.
func TestFullRoundLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	game, err := db.CreateGame(ctx, 7, 3)
	require.NoError(t, err)
	for seat := 0; seat < domain.NumSeats; seat++ {
		_, err := db.AddMembership(ctx, game.ID, seat, int64(seat), nil)
		require.NoError(t, err)
	}

	var hands [domain.NumSeats][]domain.Card
	hands[0] = mustCards(t, "2C")
	hands[1] = mustCards(t, "3D")
	hands[2] = mustCards(t, "4H")
	hands[3] = mustCards(t, "5S")
	round, game, err := db.DealRound(ctx, game.ID, 1, 1, 3, hands, game.Version)
	require.NoError(t, err)

	for seat := 0; seat < domain.NumSeats; seat++ {
		game, err = db.SaveBid(ctx, game.ID, round.ID, seat, 1, game.Version)
		require.NoError(t, err)
	}
	round, err = db.GetRound(ctx, game.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "TRUMP_SELECT", round.Phase)

	game, err = db.SaveTrump(ctx, game.ID, round.ID, domain.TrumpOf(domain.Clubs), game.Version)
	require.NoError(t, err)
	round, err = db.GetRound(ctx, game.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "TRICK_PLAY", round.Phase)
	require.NotNil(t, round.Trump)
	assert.Equal(t, domain.TrumpOf(domain.Clubs), *round.Trump)

	plays := []struct {
		seat int
		card string
	}{{0, "2C"}, {1, "3D"}, {2, "4H"}, {3, "5S"}}
	for i, p := range plays {
		card, err := domain.ParseCard(p.card)
		require.NoError(t, err)
		game, err = db.SavePlay(ctx, game.ID, round.ID, 1, p.seat, card, i, game.Version)
		require.NoError(t, err)
	}
	require.NoError(t, db.SaveTrickResult(ctx, round.ID, 1, 0, 0))

	round, err = db.GetRound(ctx, game.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "SCORING", round.Phase, "the round's only trick just completed")

	var scores [domain.NumSeats]int32
	scores[0] = 11
	game, err = db.SaveRoundScores(ctx, game.ID, round.ID, scores, game.Version)
	require.NoError(t, err)

	game, err = db.CompleteGame(ctx, game.ID, game.Version)
	require.NoError(t, err)
	assert.Equal(t, repo.GameStatusCompleted, game.Status)

	cumulative, err := db.GetCumulativeScores(ctx, game.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 11, cumulative[0])
	assert.EqualValues(t, 0, cumulative[1])
}
