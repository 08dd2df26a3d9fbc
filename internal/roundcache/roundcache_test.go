package roundcache

import (
	"context"
	"testing"

	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal in-memory repo.Store stub used only to exercise
// RoundCache.Load and BuildCurrentRoundInfo without a real database.
type fakeStore struct {
	repo.Store
	round  repo.Round
	hands  []repo.Hand
	bids   []repo.Bid
	scores [domain.NumSeats]int32
	plays  []repo.Play
	tricks []repo.Trick
	ms     [domain.NumSeats]repo.Membership
}

func (f *fakeStore) GetRound(ctx context.Context, gameID int64, roundNo int) (repo.Round, error) {
	return f.round, nil
}
func (f *fakeStore) GetHands(ctx context.Context, roundID int64) ([]repo.Hand, error) {
	return f.hands, nil
}
func (f *fakeStore) GetBids(ctx context.Context, roundID int64) ([]repo.Bid, error) {
	return f.bids, nil
}
func (f *fakeStore) GetCumulativeScores(ctx context.Context, gameID int64) ([domain.NumSeats]int32, error) {
	return f.scores, nil
}
func (f *fakeStore) GetMemberships(ctx context.Context, gameID int64) ([domain.NumSeats]repo.Membership, error) {
	return f.ms, nil
}
func (f *fakeStore) GetAIProfile(ctx context.Context, profileID int64) (repo.AIProfile, error) {
	return repo.AIProfile{ID: profileID, Name: "heuristic"}, nil
}
func (f *fakeStore) GetAllPlaysForRound(ctx context.Context, roundID int64) ([]repo.Play, error) {
	return f.plays, nil
}
func (f *fakeStore) GetTricks(ctx context.Context, roundID int64) ([]repo.Trick, error) {
	return f.tricks, nil
}

func TestLoadAndBuildCurrentRoundInfo(t *testing.T) {
	hand0 := mustCards(t, "AS", "2S", "3S")
	store := &fakeStore{
		round: repo.Round{ID: 1, GameID: 10, RoundNo: 3, HandSize: 3, DealerPos: 0},
		hands: []repo.Hand{{RoundID: 1, Seat: 0, Cards: hand0}},
		bids:  []repo.Bid{{RoundID: 1, Seat: 1, Bid: 2}},
		plays: []repo.Play{
			{RoundID: 1, TrickNo: 1, Seat: 1, Card: mustCards(t, "4S")[0], PlayOrder: 0},
			{RoundID: 1, TrickNo: 1, Seat: 2, Card: mustCards(t, "5S")[0], PlayOrder: 1},
			{RoundID: 1, TrickNo: 1, Seat: 3, Card: mustCards(t, "6S")[0], PlayOrder: 2},
			{RoundID: 1, TrickNo: 1, Seat: 0, Card: mustCards(t, "AS")[0], PlayOrder: 3},
		},
		tricks: []repo.Trick{{RoundID: 1, TrickNo: 1, LeaderSeat: 1, WinnerSeat: 0}},
	}

	rc, err := Load(context.Background(), store, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, rc.HandSize)
	assert.Equal(t, hand0, rc.Hands[0])

	info, err := rc.BuildCurrentRoundInfo(context.Background(), store, "TRICK_PLAY")
	require.NoError(t, err)
	// Seat 0 played AS in trick 1, so its remaining hand drops that card.
	assert.ElementsMatch(t, mustCards(t, "2S", "3S"), info.RemainingHands[0])
	// Trick 1 is complete (4 plays) and hand_size is 3, so we roll to trick 2.
	assert.Equal(t, 2, info.CurrentTrickNo)
	assert.Empty(t, info.CurrentTrick)
	assert.Equal(t, 0, info.CurrentTrickLead) // seat 0 won trick 1
}

func mustCards(t *testing.T, tokens ...string) []domain.Card {
	t.Helper()
	cards, err := domain.ParseCards(tokens)
	require.NoError(t, err)
	return cards
}
