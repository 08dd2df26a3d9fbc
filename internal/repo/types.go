// Package repo defines the repository interfaces and row types the
// game-flow engine persists through. Two concrete implementations exist:
// internal/repo/sqlite (test/dev) and internal/repo/pg (production),
// selected by the composition root based on the configured database URL.
package repo

import (
	"time"

	"github.com/robpatriot/nommie/internal/domain"
)

// GameStatus is the lifecycle state of a Game row.
type GameStatus string

const (
	GameStatusLobby      GameStatus = "LOBBY"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusCompleted  GameStatus = "COMPLETED"
	GameStatusAbandoned  GameStatus = "ABANDONED"
)

// Game is the root aggregate for one 26-round match.
type Game struct {
	ID                int64
	Status            GameStatus
	Version           int32
	Seed              int64
	StartingDealerPos int
	CurrentRoundNo    int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Membership binds a seat at the table to either a human user id or an AI
// profile. AIProfileID is nil for a human-controlled seat.
type Membership struct {
	ID                  int64
	GameID              int64
	Seat                int
	HumanUserOrSeatID   int64
	IsReady             bool
	AIProfileID         *int64
	ConsecutiveZeroBids int
}

// AIProfile names a deterministic AI personality a seat can be bound to.
type AIProfile struct {
	ID         int64
	Name       string
	Difficulty string
}

// Round is one of a game's 26 rounds.
type Round struct {
	ID        int64
	GameID    int64
	RoundNo   int
	HandSize  int
	DealerPos int
	Trump     *domain.Trump
	Phase     string
}

// Hand is the as-dealt set of cards for one seat in one round. It is never
// mutated — played cards are tracked separately via Play rows, and the
// player's remaining hand is computed as Hand.Cards minus played cards.
type Hand struct {
	RoundID int64
	Seat    int
	Cards   []domain.Card
}

// Bid is one seat's bid for one round.
type Bid struct {
	RoundID int64
	Seat    int
	Bid     int
}

// Trick is one of a round's HandSize tricks.
type Trick struct {
	RoundID    int64
	TrickNo    int
	LeaderSeat int
	WinnerSeat int
}

// Play is one card played into one trick.
type Play struct {
	RoundID   int64
	TrickNo   int
	Seat      int
	Card      domain.Card
	PlayOrder int
}

// Score is one seat's score for one round, plus their running total.
type Score struct {
	GameID          int64
	RoundID         int64
	Seat            int
	RoundScore      int32
	CumulativeScore int32
}

// GameHistory is an append-only audit trail of actions taken in a game.
// Rows are written through Store.AppendHistory; the Store has no method
// that reads them back.
type GameHistory struct {
	ID        int64
	GameID    int64
	RoundNo   int
	Seat      int
	Action    string
	Detail    string
	CreatedAt time.Time
}
