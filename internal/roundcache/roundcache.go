// Package roundcache holds the per-round immutable snapshot the
// orchestrator and player-view builder read from repeatedly without
// re-querying the repository on every turn. It is scoped to a single
// orchestrator invocation and reloaded whenever the round number changes.
package roundcache

import (
	"context"

	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
)

// RoundCache mirrors the fields original_source's RoundCache loads once
// per round: dealt hands, placed bids, trump, cumulative scores, the
// player roster, and the AI profiles of AI-controlled seats, keyed by the
// membership's HumanUserOrSeatID (human seats have no entry).
type RoundCache struct {
	GameID    int64
	RoundNo   int
	RoundID   int64
	HandSize  int
	DealerPos int
	Trump     *domain.Trump

	// Phase mirrors the round's current phase. Unlike the other fields it
	// is refreshed every orchestrator iteration (not just on round_no
	// change) by Sync, since a round's phase advances without its
	// round_no changing.
	Phase string

	Hands  [domain.NumSeats][]domain.Card
	Bids   [domain.NumSeats]*int
	Scores [domain.NumSeats]int32

	Players    [domain.NumSeats]repo.Membership
	AIProfiles map[int64]repo.AIProfile
}

// Load batch-fetches everything a round needs from the repository in one
// pass, matching round_cache.rs's load().
func Load(ctx context.Context, store repo.Store, gameID int64, roundNo int) (*RoundCache, error) {
	round, err := store.GetRound(ctx, gameID, roundNo)
	if err != nil {
		return nil, err
	}
	hands, err := store.GetHands(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	bids, err := store.GetBids(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	scores, err := store.GetCumulativeScores(ctx, gameID)
	if err != nil {
		return nil, err
	}
	players, err := store.GetMemberships(ctx, gameID)
	if err != nil {
		return nil, err
	}

	aiProfiles := make(map[int64]repo.AIProfile)
	for _, p := range players {
		if p.AIProfileID == nil {
			continue
		}
		profile, err := store.GetAIProfile(ctx, *p.AIProfileID)
		if err != nil {
			return nil, err
		}
		aiProfiles[p.HumanUserOrSeatID] = profile
	}

	rc := &RoundCache{
		GameID:     gameID,
		RoundNo:    roundNo,
		RoundID:    round.ID,
		HandSize:   round.HandSize,
		DealerPos:  round.DealerPos,
		Phase:      round.Phase,
		Scores:     scores,
		AIProfiles: aiProfiles,
	}
	if round.Trump != nil {
		rc.Trump = round.Trump
	}
	rc.Players = players
	for _, h := range hands {
		rc.Hands[h.Seat] = h.Cards
	}
	for _, b := range bids {
		bid := b.Bid
		rc.Bids[b.Seat] = &bid
	}
	return rc, nil
}

// IsStale reports whether this cache was built for a round other than
// roundNo, signalling the orchestrator must reload it.
func (rc *RoundCache) IsStale(roundNo int) bool {
	return rc.RoundNo != roundNo
}

// Sync refreshes the fields that change within a round without a round_no
// bump: phase and trump. Call it once per orchestrator iteration after
// confirming the cache isn't stale.
func (rc *RoundCache) Sync(round repo.Round) {
	rc.Phase = round.Phase
	rc.Trump = round.Trump
}

// Hand returns seat's cached dealt hand. It errors on an out-of-range
// seat rather than silently returning an empty hand.
func (rc *RoundCache) Hand(seat int) ([]domain.Card, error) {
	if seat < 0 || seat >= domain.NumSeats {
		return nil, apperrors.Newf(apperrors.CodeInvalidSeat, "seat %d out of range", seat)
	}
	return rc.Hands[seat], nil
}
