package round

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo/sqlite"
)

// TestLoadGameStateReconstructsMidTrickHands drives a real SQLite-backed
// round partway through trick play, then checks LoadGameState rebuilds a
// RoundState whose hands reflect the cards already played and whose
// CurrentTrick holds exactly the cards played into the trick in progress.
func TestLoadGameStateReconstructsMidTrickHands(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	game, err := db.CreateGame(ctx, 5, 3)
	require.NoError(t, err)
	for seat := 0; seat < domain.NumSeats; seat++ {
		_, err := db.AddMembership(ctx, game.ID, seat, int64(seat), nil)
		require.NoError(t, err)
	}

	var hands [domain.NumSeats][]domain.Card
	hands[0] = mustCards(t, "2C", "7C")
	hands[1] = mustCards(t, "3D", "8D")
	hands[2] = mustCards(t, "4H", "9H")
	hands[3] = mustCards(t, "5S", "TS")
	roundRow, game, err := db.DealRound(ctx, game.ID, 1, 2, 3, hands, game.Version)
	require.NoError(t, err)

	for seat := 0; seat < domain.NumSeats; seat++ {
		game, err = db.SaveBid(ctx, game.ID, roundRow.ID, seat, 0, game.Version)
		require.NoError(t, err)
	}
	game, err = db.SaveTrump(ctx, game.ID, roundRow.ID, domain.TrumpOf(domain.Clubs), game.Version)
	require.NoError(t, err)

	card0, err := domain.ParseCard("2C")
	require.NoError(t, err)
	game, err = db.SavePlay(ctx, game.ID, roundRow.ID, 1, 0, card0, 0, game.Version)
	require.NoError(t, err)
	card1, err := domain.ParseCard("3D")
	require.NoError(t, err)
	_, err = db.SavePlay(ctx, game.ID, roundRow.ID, 1, 1, card1, 1, game.Version)
	require.NoError(t, err)

	loaded, _, err := LoadGameState(ctx, db, game.ID, 1)
	require.NoError(t, err)
	rs := loaded.State

	assert.Equal(t, PhaseTrickPlay, rs.Phase)
	assert.Equal(t, 1, rs.CurrentTrickNo)
	require.Len(t, rs.CurrentTrick, 2)
	assert.Equal(t, card0, rs.CurrentTrick[0].Card)
	assert.Equal(t, card1, rs.CurrentTrick[1].Card)
	assert.Equal(t, mustCards(t, "7C"), rs.Hands[0])
	assert.Equal(t, mustCards(t, "8D"), rs.Hands[1])
	assert.Equal(t, mustCards(t, "4H", "9H"), rs.Hands[2])

	require.True(t, rs.TrumpSet)
	assert.Equal(t, domain.TrumpOf(domain.Clubs), rs.Trump)

	for seat := 0; seat < domain.NumSeats; seat++ {
		require.NotNil(t, rs.Bids[seat])
		assert.Equal(t, 0, *rs.Bids[seat])
	}
}
