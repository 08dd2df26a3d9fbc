package orchestrator

import (
	"context"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robpatriot/nommie/internal/ai"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
)

// fakeStore is a minimal in-memory repo.Store good enough to drive
// ProcessGameState through a single small round, tracking call counts so
// tests can assert the loop stopped where expected instead of acting past
// a human turn or a finished game.
type fakeStore struct {
	repo.Store

	game  repo.Game
	round repo.Round
	hands map[int64][]repo.Hand
	ms    [domain.NumSeats]repo.Membership

	bids   []repo.Bid
	plays  []repo.Play
	tricks []repo.Trick

	saveBidCalls   int
	saveTrumpCalls int
	savePlayCalls  int
	completeCalls  int
	getRoundCalls  int
}

func (f *fakeStore) GetGame(ctx context.Context, gameID int64) (repo.Game, error) {
	return f.game, nil
}
func (f *fakeStore) GetMemberships(ctx context.Context, gameID int64) ([domain.NumSeats]repo.Membership, error) {
	return f.ms, nil
}
func (f *fakeStore) GetAIProfile(ctx context.Context, profileID int64) (repo.AIProfile, error) {
	return repo.AIProfile{ID: profileID, Name: "heuristic"}, nil
}
func (f *fakeStore) GetRound(ctx context.Context, gameID int64, roundNo int) (repo.Round, error) {
	f.getRoundCalls++
	return f.round, nil
}
func (f *fakeStore) GetHands(ctx context.Context, roundID int64) ([]repo.Hand, error) {
	return f.hands[roundID], nil
}
func (f *fakeStore) GetBids(ctx context.Context, roundID int64) ([]repo.Bid, error) {
	return f.bids, nil
}
func (f *fakeStore) GetCumulativeScores(ctx context.Context, gameID int64) ([domain.NumSeats]int32, error) {
	return [domain.NumSeats]int32{}, nil
}
func (f *fakeStore) GetAllPlaysForRound(ctx context.Context, roundID int64) ([]repo.Play, error) {
	return f.plays, nil
}
func (f *fakeStore) GetTricks(ctx context.Context, roundID int64) ([]repo.Trick, error) {
	return f.tricks, nil
}

func (f *fakeStore) SaveBid(ctx context.Context, gameID, roundID int64, seat, bid int, expectedVersion int32) (repo.Game, error) {
	f.saveBidCalls++
	f.bids = append(f.bids, repo.Bid{RoundID: roundID, Seat: seat, Bid: bid})
	if len(f.bids) == domain.NumSeats {
		f.round.Phase = "TRUMP_SELECT"
	}
	f.game.Version++
	return f.game, nil
}

func (f *fakeStore) SaveTrump(ctx context.Context, gameID, roundID int64, trump domain.Trump, expectedVersion int32) (repo.Game, error) {
	f.saveTrumpCalls++
	f.round.Trump = &trump
	f.round.Phase = "TRICK_PLAY"
	f.game.Version++
	return f.game, nil
}

func (f *fakeStore) SavePlay(ctx context.Context, gameID, roundID int64, trickNo, seat int, card domain.Card, playOrder int, expectedVersion int32) (repo.Game, error) {
	f.savePlayCalls++
	f.plays = append(f.plays, repo.Play{RoundID: roundID, TrickNo: trickNo, Seat: seat, Card: card, PlayOrder: playOrder})
	if len(f.plays) == domain.NumSeats {
		f.round.Phase = "SCORING"
	}
	f.game.Version++
	return f.game, nil
}

func (f *fakeStore) SaveTrickResult(ctx context.Context, roundID int64, trickNo, leaderSeat, winnerSeat int) error {
	f.tricks = append(f.tricks, repo.Trick{RoundID: roundID, TrickNo: trickNo, LeaderSeat: leaderSeat, WinnerSeat: winnerSeat})
	return nil
}

func (f *fakeStore) SaveRoundScores(ctx context.Context, gameID, roundID int64, roundScores [domain.NumSeats]int32, expectedVersion int32) (repo.Game, error) {
	f.game.Version++
	return f.game, nil
}

func (f *fakeStore) CompleteGame(ctx context.Context, gameID int64, expectedVersion int32) (repo.Game, error) {
	f.completeCalls++
	f.game.Status = repo.GameStatusCompleted
	f.game.Version++
	return f.game, nil
}

func (f *fakeStore) AppendHistory(ctx context.Context, gameID int64, roundNo, seat int, action, detail string) error {
	return nil
}

func mustCard(t *testing.T, token string) domain.Card {
	t.Helper()
	cards, err := domain.ParseCards([]string{token})
	require.NoError(t, err)
	return cards[0]
}

func allAIMemberships() [domain.NumSeats]repo.Membership {
	var ms [domain.NumSeats]repo.Membership
	for seat := range ms {
		id := int64(seat + 1)
		ms[seat] = repo.Membership{ID: id, Seat: seat, HumanUserOrSeatID: id, IsReady: true, AIProfileID: &id}
	}
	return ms
}

func TestProcessGameStateStopsWhenGameAlreadyCompleted(t *testing.T) {
	store := &fakeStore{game: repo.Game{ID: 1, Status: repo.GameStatusCompleted}}
	o := New(store, &ai.Heuristic{}, slog.Disabled)
	err := o.ProcessGameState(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, store.getRoundCalls, "a completed game must never touch the round cache")
}

func TestProcessGameStateStopsAtHumanTurn(t *testing.T) {
	ms := allAIMemberships()
	ms[0].AIProfileID = nil // seat 0 is human and bids first (dealer is seat 3)

	store := &fakeStore{
		game:  repo.Game{ID: 1, Status: repo.GameStatusInProgress, CurrentRoundNo: 1},
		round: repo.Round{ID: 1, GameID: 1, RoundNo: 1, HandSize: 1, DealerPos: 3, Phase: "BIDDING"},
		hands: map[int64][]repo.Hand{
			1: {
				{RoundID: 1, Seat: 0, Cards: []domain.Card{mustCard(t, "2C")}},
				{RoundID: 1, Seat: 1, Cards: []domain.Card{mustCard(t, "3D")}},
				{RoundID: 1, Seat: 2, Cards: []domain.Card{mustCard(t, "4H")}},
				{RoundID: 1, Seat: 3, Cards: []domain.Card{mustCard(t, "5S")}},
			},
		},
		ms: ms,
	}

	o := New(store, &ai.Heuristic{}, slog.Disabled)
	err := o.ProcessGameState(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, store.saveBidCalls, "must stop before acting for the human seat")
}

// TestProcessGameStateAdvancesAllAIRound drives a hand_size=1 round at the
// final round number through bidding, trump selection, the single trick,
// and scoring with every seat AI-controlled, and checks the game is marked
// Completed at the end. Each seat holds exactly one card of a distinct
// suit so the heuristic's decisions are fully determined: a one-card hand
// always estimates a bid that clamps to 1, so all four bids tie and the
// tie-break makes the earliest bidder trump chooser, whose lone card then
// wins its own trick.
func TestProcessGameStateAdvancesAllAIRound(t *testing.T) {
	store := &fakeStore{
		game:  repo.Game{ID: 1, Status: repo.GameStatusInProgress, CurrentRoundNo: domain.TotalRounds},
		round: repo.Round{ID: 1, GameID: 1, RoundNo: domain.TotalRounds, HandSize: 1, DealerPos: 3, Phase: "BIDDING"},
		hands: map[int64][]repo.Hand{
			1: {
				{RoundID: 1, Seat: 0, Cards: []domain.Card{mustCard(t, "2C")}},
				{RoundID: 1, Seat: 1, Cards: []domain.Card{mustCard(t, "3D")}},
				{RoundID: 1, Seat: 2, Cards: []domain.Card{mustCard(t, "4H")}},
				{RoundID: 1, Seat: 3, Cards: []domain.Card{mustCard(t, "5S")}},
			},
		},
		ms: allAIMemberships(),
	}

	o := New(store, &ai.Heuristic{}, slog.Disabled)
	err := o.ProcessGameState(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, domain.NumSeats, store.saveBidCalls)
	assert.Equal(t, 1, store.saveTrumpCalls)
	assert.Equal(t, domain.NumSeats, store.savePlayCalls)
	assert.Equal(t, 1, store.completeCalls)
	assert.Equal(t, repo.GameStatusCompleted, store.game.Status)
	require.Len(t, store.tricks, 1)
	assert.Equal(t, 0, store.tricks[0].WinnerSeat, "seat 0 led with 2C, the only trump-suit card in the trick")
}
