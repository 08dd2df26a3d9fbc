package repo

import (
	"context"

	"github.com/robpatriot/nommie/internal/domain"
)

// Store is the repository contract the game-flow engine is built against.
// Every mutating method that touches a Game row takes the caller's
// expectedVersion and fails with apperrors.CodeOptimisticLock (carrying
// {expected, actual}) if the stored version has moved on — this is the
// module's sole concurrency control mechanism, there is no row locking.
type Store interface {
	GetGame(ctx context.Context, gameID int64) (Game, error)
	GetMemberships(ctx context.Context, gameID int64) ([domain.NumSeats]Membership, error)
	GetAIProfile(ctx context.Context, profileID int64) (AIProfile, error)

	GetRound(ctx context.Context, gameID int64, roundNo int) (Round, error)
	GetHands(ctx context.Context, roundID int64) ([]Hand, error)
	GetBids(ctx context.Context, roundID int64) ([]Bid, error)
	GetCumulativeScores(ctx context.Context, gameID int64) ([domain.NumSeats]int32, error)
	GetPlays(ctx context.Context, roundID int64, trickNo int) ([]Play, error)
	GetAllPlaysForRound(ctx context.Context, roundID int64) ([]Play, error)
	GetTricks(ctx context.Context, roundID int64) ([]Trick, error)

	CreateGame(ctx context.Context, seed int64, startingDealerPos int) (Game, error)
	AddMembership(ctx context.Context, gameID int64, seat int, humanUserOrSeatID int64, aiProfileID *int64) (Membership, error)
	SetMembershipReady(ctx context.Context, gameID int64, seat int, ready bool) error
	StartGame(ctx context.Context, gameID int64, expectedVersion int32) (Game, error)

	DealRound(ctx context.Context, gameID int64, roundNo, handSize, dealerPos int, hands [domain.NumSeats][]domain.Card, expectedVersion int32) (Round, Game, error)
	SaveBid(ctx context.Context, gameID, roundID int64, seat, bid int, expectedVersion int32) (Game, error)
	SaveTrump(ctx context.Context, gameID, roundID int64, trump domain.Trump, expectedVersion int32) (Game, error)
	SavePlay(ctx context.Context, gameID, roundID int64, trickNo, seat int, card domain.Card, playOrder int, expectedVersion int32) (Game, error)
	SaveTrickResult(ctx context.Context, roundID int64, trickNo, leaderSeat, winnerSeat int) error
	SaveRoundScores(ctx context.Context, gameID, roundID int64, roundScores [domain.NumSeats]int32, expectedVersion int32) (Game, error)

	AdvanceRound(ctx context.Context, gameID int64, nextRoundNo int, expectedVersion int32) (Game, error)
	CompleteGame(ctx context.Context, gameID int64, expectedVersion int32) (Game, error)
	AbandonGame(ctx context.Context, gameID int64, expectedVersion int32) (Game, error)

	AppendHistory(ctx context.Context, gameID int64, roundNo, seat int, action, detail string) error
}
