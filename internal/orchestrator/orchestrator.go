// Package orchestrator drives AI turns autonomously between human
// actions. ProcessGameState is the heart of the engine: it repeatedly
// determines whose turn it is and, while that seat is AI-controlled,
// asks the AI player for a decision and persists it, stopping as soon as
// a human must act or the game ends.
package orchestrator

import (
	"context"

	"github.com/decred/slog"

	"github.com/robpatriot/nommie/internal/ai"
	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/playerview"
	"github.com/robpatriot/nommie/internal/repo"
	"github.com/robpatriot/nommie/internal/roundcache"
)

// MaxIterations bounds ProcessGameState's loop. A complete game is at
// most 26 rounds * (4 bids + 1 trump + 13 plays*4 + 1 scoring) worst case
// (the largest hand size is 13) which is comfortably under 1560 steps;
// 2000 leaves about 28% margin for retries without risking a runaway loop
// on a bug that keeps returning the same phase.
const MaxIterations = 2000

// Orchestrator wires a repository and an AI decision strategy together.
// Every AI seat at every table uses the same Orchestrator and the same
// Player instance — AI behavior is a pure function of game state, not of
// which seat is asking.
type Orchestrator struct {
	Store repo.Store
	AI    ai.Player
	Log   slog.Logger
}

// New builds an Orchestrator.
func New(store repo.Store, aiPlayer ai.Player, log slog.Logger) *Orchestrator {
	return &Orchestrator{Store: store, AI: aiPlayer, Log: log}
}

// CheckAndStartGameIfReady starts a Lobby game once every seat has marked
// itself ready, deals round 1, and immediately runs the orchestrator loop
// so any AI seats can act before returning control to the caller. It is a
// no-op if the game isn't in Lobby or not every seat is ready yet.
func (o *Orchestrator) CheckAndStartGameIfReady(ctx context.Context, gameID int64) error {
	game, err := o.Store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != repo.GameStatusLobby {
		return nil
	}
	memberships, err := o.Store.GetMemberships(ctx, gameID)
	if err != nil {
		return err
	}
	for _, m := range memberships {
		if !m.IsReady {
			return nil
		}
	}

	game, err = o.Store.StartGame(ctx, gameID, game.Version)
	if err != nil {
		return err
	}

	handSize, ok := domain.HandSizeForRound(1)
	if !ok {
		return apperrors.New(apperrors.CodeInternalError, "no hand size for round 1")
	}
	hands, err := domain.DealRound(game.Seed, 1, domain.NumSeats, handSize)
	if err != nil {
		return err
	}
	var handsArr [domain.NumSeats][]domain.Card
	copy(handsArr[:], hands)
	if _, _, err := o.Store.DealRound(ctx, gameID, 1, handSize, game.StartingDealerPos, handsArr, game.Version); err != nil {
		return err
	}

	return o.ProcessGameState(ctx, gameID)
}

// ProcessGameState is the bounded AI-turn loop, ported from
// original_source's process_game_state: reload the round cache only when
// the round number changes, re-fetch the Game row after every AI action,
// and stop as soon as the next seat to act is human or the game is over.
func (o *Orchestrator) ProcessGameState(ctx context.Context, gameID int64) error {
	var cached *roundcache.RoundCache

	for i := 0; i < MaxIterations; i++ {
		game, err := o.Store.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if game.Status == repo.GameStatusCompleted || game.Status == repo.GameStatusAbandoned {
			return nil
		}

		if cached == nil || cached.IsStale(game.CurrentRoundNo) {
			cached, err = roundcache.Load(ctx, o.Store, gameID, game.CurrentRoundNo)
			if err != nil {
				return err
			}
		} else {
			round, err := o.Store.GetRound(ctx, gameID, game.CurrentRoundNo)
			if err != nil {
				return err
			}
			cached.Sync(round)
		}

		if cached.Phase == "SCORING" {
			acted, err := o.applyScoringAndAdvance(ctx, cached, game)
			if err != nil {
				return err
			}
			if acted {
				cached = nil
				continue
			}
			return nil
		}

		info, err := cached.BuildCurrentRoundInfo(ctx, o.Store, cached.Phase)
		if err != nil {
			return err
		}

		nextSeat := playerview.NextToAct(cached, info)
		membership := cached.Players[nextSeat]
		if membership.AIProfileID == nil {
			return nil
		}

		acted, err := o.actForSeat(ctx, cached, info, nextSeat, game)
		if err != nil {
			return err
		}
		if !acted {
			return nil
		}
	}

	return apperrors.Newf(apperrors.CodeInternalError, "process_game_state exceeded %d iterations for game %d", MaxIterations, gameID)
}
