package roundcache

import (
	"context"

	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
)

// CurrentRoundInfo is the mutable slice of round state the cache does not
// hold immutably: the current trick's plays, the bids placed so far (in
// every phase), and each seat's remaining hand after subtracting played
// cards. It is rebuilt on every orchestrator iteration from fresh reads.
type CurrentRoundInfo struct {
	Bids             [domain.NumSeats]*int
	RemainingHands   [domain.NumSeats][]domain.Card
	CurrentTrickNo   int
	CurrentTrickLead int
	CurrentTrick     []repo.Play
	TricksWonBySeat  [domain.NumSeats]int
}

// BuildCurrentRoundInfo re-reads what can change within a round (bids and
// plays) and combines it with the cache's immutable hands to derive each
// seat's remaining hand, matching original_source's split between cached
// load() and a fresh build_current_round_info() call on every orchestrator
// pass. Bids are always re-read rather than only while phase == "BIDDING":
// the cache's own Bids field is a point-in-time snapshot from Load and
// would otherwise read stale (even empty) once bidding finishes, breaking
// trump-chooser and bid-aware play logic in later phases.
func (rc *RoundCache) BuildCurrentRoundInfo(ctx context.Context, store repo.Store, phase string) (*CurrentRoundInfo, error) {
	bids, err := store.GetBids(ctx, rc.RoundID)
	if err != nil {
		return nil, err
	}
	var fresh [domain.NumSeats]*int
	for _, b := range bids {
		bid := b.Bid
		fresh[b.Seat] = &bid
	}
	info := &CurrentRoundInfo{Bids: fresh}

	plays, err := store.GetAllPlaysForRound(ctx, rc.RoundID)
	if err != nil {
		return nil, err
	}

	played := [domain.NumSeats]map[domain.Card]bool{}
	for s := range played {
		played[s] = make(map[domain.Card]bool)
	}
	maxTrickNo := 0
	for _, p := range plays {
		played[p.Seat][p.Card] = true
		if p.TrickNo > maxTrickNo {
			maxTrickNo = p.TrickNo
		}
	}
	for seat, hand := range rc.Hands {
		remaining := make([]domain.Card, 0, len(hand))
		for _, c := range hand {
			if !played[seat][c] {
				remaining = append(remaining, c)
			}
		}
		info.RemainingHands[seat] = remaining
	}

	currentTrickNo := maxTrickNo
	if currentTrickNo == 0 {
		currentTrickNo = 1
	}
	var currentTrick []repo.Play
	for _, p := range plays {
		if p.TrickNo == currentTrickNo {
			currentTrick = append(currentTrick, p)
		}
	}
	// A finished trick (4 plays) with more tricks left in the hand rolls
	// over to the next trick number, which starts empty.
	if len(currentTrick) == domain.NumSeats && currentTrickNo < rc.HandSize {
		currentTrickNo++
		currentTrick = nil
	}
	tricks, err := store.GetTricks(ctx, rc.RoundID)
	if err != nil {
		return nil, err
	}
	var tricksWon [domain.NumSeats]int
	for _, t := range tricks {
		tricksWon[t.WinnerSeat]++
	}
	info.TricksWonBySeat = tricksWon
	info.CurrentTrickNo = currentTrickNo
	info.CurrentTrick = currentTrick
	info.CurrentTrickLead = DetermineTrickLeader(rc.DealerPos, currentTrickNo, tricks)
	return info, nil
}

// DetermineTrickLeader returns the seat that leads trickNo: the seat left
// of the dealer for trick 1, otherwise the winner of trick (trickNo-1) as
// recorded in its persisted Trick row. Callers tracking an in-flight round
// in memory should prefer round.RoundState.TrickLeader; this helper exists
// for reconstructing the leader purely from persisted tricks, e.g. after a
// process restart mid-round.
func DetermineTrickLeader(dealerPos, trickNo int, completedTricks []repo.Trick) int {
	if trickNo <= 1 {
		return (dealerPos + 1) % domain.NumSeats
	}
	prevTrickNo := trickNo - 1
	for _, t := range completedTricks {
		if t.TrickNo == prevTrickNo {
			return t.WinnerSeat
		}
	}
	return (dealerPos + 1) % domain.NumSeats
}
