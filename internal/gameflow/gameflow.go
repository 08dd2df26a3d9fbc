// Package gameflow is the public service boundary a future transport calls
// into. Each operation validates the caller's action against the pure
// internal/round state machine, persists the result through internal/repo
// inside the store's own transaction, and runs internal/orchestrator so any
// AI seats act immediately afterward, matching the teacher's
// lock-mutate-broadcast request shape (pkg/server/server.go) minus the
// broadcast, which internal/realtime owns.
package gameflow

import (
	"context"
	"strconv"

	"github.com/decred/slog"

	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/orchestrator"
	"github.com/robpatriot/nommie/internal/repo"
	"github.com/robpatriot/nommie/internal/round"
)

// Service wraps a repository and an orchestrator into the five public
// mutations spec.md §4.8 names.
type Service struct {
	Store        repo.Store
	Orchestrator *orchestrator.Orchestrator
	Log          slog.Logger
}

// New builds a Service.
func New(store repo.Store, orch *orchestrator.Orchestrator, log slog.Logger) *Service {
	return &Service{Store: store, Orchestrator: orch, Log: log}
}

// findSeat returns the seat callerID occupies in gameID, or CodeNotAMember.
func findSeat(memberships [domain.NumSeats]repo.Membership, callerID int64) (int, error) {
	for seat, m := range memberships {
		if m.AIProfileID == nil && m.HumanUserOrSeatID == callerID {
			return seat, nil
		}
	}
	return 0, apperrors.New(apperrors.CodeNotAMember, "caller is not a member of this game")
}

// SetReadyStatus flips callerID's ready flag and, if every seat is now
// ready, deals round 1 and runs the orchestrator — see
// internal/orchestrator.CheckAndStartGameIfReady, the operation
// original_source splits out of set_ready_status that this wraps.
func (s *Service) SetReadyStatus(ctx context.Context, gameID int64, callerID int64, ready bool) (repo.Game, error) {
	game, err := s.Store.GetGame(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	if game.Status != repo.GameStatusLobby {
		return repo.Game{}, apperrors.Newf(apperrors.CodePhaseMismatch, "game %d is not in the lobby", gameID)
	}
	memberships, err := s.Store.GetMemberships(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	seat, err := findSeat(memberships, callerID)
	if err != nil {
		return repo.Game{}, err
	}
	if err := s.Store.SetMembershipReady(ctx, gameID, seat, ready); err != nil {
		return repo.Game{}, err
	}
	if err := s.Orchestrator.CheckAndStartGameIfReady(ctx, gameID); err != nil {
		return repo.Game{}, err
	}
	return s.Store.GetGame(ctx, gameID)
}

// DealRound advances a game that has finished its current round (or has not
// yet started one) into the next round: Lobby → round 1, or a round left in
// Done → the next round, up to the 26th.
func (s *Service) DealRound(ctx context.Context, gameID int64, expectedVersion int32) (repo.Game, error) {
	game, err := s.Store.GetGame(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	if game.Status != repo.GameStatusLobby && game.Status != repo.GameStatusInProgress {
		return repo.Game{}, apperrors.Newf(apperrors.CodePhaseMismatch, "game %d is %s, cannot deal a round", gameID, game.Status)
	}
	nextRoundNo := game.CurrentRoundNo + 1
	if nextRoundNo > domain.TotalRounds {
		return repo.Game{}, apperrors.Newf(apperrors.CodePhaseMismatch, "game %d has already played all %d rounds", gameID, domain.TotalRounds)
	}
	if game.CurrentRoundNo > 0 {
		current, err := s.Store.GetRound(ctx, gameID, game.CurrentRoundNo)
		if err != nil {
			return repo.Game{}, err
		}
		if current.Phase != "DONE" {
			return repo.Game{}, apperrors.Newf(apperrors.CodePhaseMismatch, "round %d is still in progress", game.CurrentRoundNo)
		}
	}

	handSize, ok := domain.HandSizeForRound(nextRoundNo)
	if !ok {
		return repo.Game{}, apperrors.Newf(apperrors.CodeInternalError, "no hand size for round %d", nextRoundNo)
	}
	dealerPos := domain.DealerForRound(game.StartingDealerPos, nextRoundNo)
	hands, err := domain.DealRound(game.Seed, uint8(nextRoundNo), domain.NumSeats, handSize)
	if err != nil {
		return repo.Game{}, err
	}
	var handsArr [domain.NumSeats][]domain.Card
	copy(handsArr[:], hands)

	if _, _, err := s.Store.DealRound(ctx, gameID, nextRoundNo, handSize, dealerPos, handsArr, expectedVersion); err != nil {
		return repo.Game{}, err
	}
	if game.Status == repo.GameStatusLobby {
		updated, err := s.Store.GetGame(ctx, gameID)
		if err != nil {
			return repo.Game{}, err
		}
		if _, err := s.Store.StartGame(ctx, gameID, updated.Version); err != nil {
			return repo.Game{}, err
		}
	}
	if err := s.Orchestrator.ProcessGameState(ctx, gameID); err != nil {
		return repo.Game{}, err
	}
	return s.Store.GetGame(ctx, gameID)
}

// SubmitBid validates and persists callerID's bid for their own seat, then
// lets the orchestrator run any AI turns that immediately follow.
func (s *Service) SubmitBid(ctx context.Context, gameID int64, callerID int64, bid int, expectedVersion int32) (repo.Game, error) {
	game, err := s.Store.GetGame(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	memberships, err := s.Store.GetMemberships(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	seat, err := findSeat(memberships, callerID)
	if err != nil {
		return repo.Game{}, err
	}

	loaded, roundRow, err := round.LoadGameState(ctx, s.Store, gameID, game.CurrentRoundNo)
	if err != nil {
		return repo.Game{}, err
	}
	if err := loaded.PlaceBid(seat, bid, nil); err != nil {
		return repo.Game{}, err
	}

	if _, err := s.Store.SaveBid(ctx, gameID, roundRow.ID, seat, bid, expectedVersion); err != nil {
		return repo.Game{}, err
	}
	if err := s.Store.AppendHistory(ctx, gameID, game.CurrentRoundNo, seat, "BID", strconv.Itoa(bid)); err != nil {
		return repo.Game{}, err
	}
	if err := s.Orchestrator.ProcessGameState(ctx, gameID); err != nil {
		return repo.Game{}, err
	}
	return s.Store.GetGame(ctx, gameID)
}

// SetTrump validates and persists the trump chooser's declared trump.
func (s *Service) SetTrump(ctx context.Context, gameID int64, callerID int64, trump domain.Trump, expectedVersion int32) (repo.Game, error) {
	game, err := s.Store.GetGame(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	memberships, err := s.Store.GetMemberships(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	seat, err := findSeat(memberships, callerID)
	if err != nil {
		return repo.Game{}, err
	}

	loaded, roundRow, err := round.LoadGameState(ctx, s.Store, gameID, game.CurrentRoundNo)
	if err != nil {
		return repo.Game{}, err
	}
	if err := loaded.SetTrump(seat, trump, nil); err != nil {
		return repo.Game{}, err
	}

	if _, err := s.Store.SaveTrump(ctx, gameID, roundRow.ID, trump, expectedVersion); err != nil {
		return repo.Game{}, err
	}
	if err := s.Store.AppendHistory(ctx, gameID, game.CurrentRoundNo, seat, "TRUMP", trump.String()); err != nil {
		return repo.Game{}, err
	}
	if err := s.Orchestrator.ProcessGameState(ctx, gameID); err != nil {
		return repo.Game{}, err
	}
	return s.Store.GetGame(ctx, gameID)
}

// PlayCard validates and persists callerID's card, closes out the trick
// (and, via the orchestrator, the round) when it was the fourth card.
func (s *Service) PlayCard(ctx context.Context, gameID int64, callerID int64, card domain.Card, expectedVersion int32) (repo.Game, error) {
	game, err := s.Store.GetGame(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	memberships, err := s.Store.GetMemberships(ctx, gameID)
	if err != nil {
		return repo.Game{}, err
	}
	seat, err := findSeat(memberships, callerID)
	if err != nil {
		return repo.Game{}, err
	}

	loaded, roundRow, err := round.LoadGameState(ctx, s.Store, gameID, game.CurrentRoundNo)
	if err != nil {
		return repo.Game{}, err
	}
	rs := loaded.State
	trickNo := rs.CurrentTrickNo
	playOrder := len(rs.CurrentTrick)
	leader := rs.TrickLeader
	wonBefore := rs.TricksWonBySeat

	if err := loaded.PlayCard(seat, card, nil); err != nil {
		return repo.Game{}, err
	}

	if _, err := s.Store.SavePlay(ctx, gameID, roundRow.ID, trickNo, seat, card, playOrder, expectedVersion); err != nil {
		return repo.Game{}, err
	}
	if err := s.Store.AppendHistory(ctx, gameID, game.CurrentRoundNo, seat, "PLAY", card.String()); err != nil {
		return repo.Game{}, err
	}

	winner := -1
	for checkedSeat, after := range rs.TricksWonBySeat {
		if after != wonBefore[checkedSeat] {
			winner = checkedSeat
			break
		}
	}
	if winner >= 0 {
		if err := s.Store.SaveTrickResult(ctx, roundRow.ID, trickNo, leader, winner); err != nil {
			return repo.Game{}, err
		}
	}

	if err := s.Orchestrator.ProcessGameState(ctx, gameID); err != nil {
		return repo.Game{}, err
	}
	return s.Store.GetGame(ctx, gameID)
}
