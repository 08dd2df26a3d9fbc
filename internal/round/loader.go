package round

import (
	"context"
	"sort"

	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
)

// parsePhase is the inverse of Phase.String, for reconstructing a round's
// phase from its persisted text column.
func parsePhase(s string) (Phase, error) {
	switch s {
	case "BIDDING":
		return PhaseBidding, nil
	case "TRUMP_SELECT":
		return PhaseTrumpSelect, nil
	case "TRICK_PLAY":
		return PhaseTrickPlay, nil
	case "SCORING":
		return PhaseScoring, nil
	case "DONE":
		return PhaseDone, nil
	default:
		return 0, apperrors.Newf(apperrors.CodeInternalError, "unknown persisted phase %q", s)
	}
}

// LoadGameState reads a round's persisted rows and reconstructs the
// in-memory RoundState a Round needs to validate the next action, the way
// original_source's state loader rebuilds game state from storage rows
// rather than keeping a long-lived in-process instance per round. Played
// cards are subtracted from each seat's dealt hand so RoundState.Hands
// always reflects what is still in hand.
func LoadGameState(ctx context.Context, store repo.Store, gameID int64, roundNo int) (*Round, repo.Round, error) {
	roundRow, err := store.GetRound(ctx, gameID, roundNo)
	if err != nil {
		return nil, repo.Round{}, err
	}
	hands, err := store.GetHands(ctx, roundRow.ID)
	if err != nil {
		return nil, repo.Round{}, err
	}
	bids, err := store.GetBids(ctx, roundRow.ID)
	if err != nil {
		return nil, repo.Round{}, err
	}
	memberships, err := store.GetMemberships(ctx, gameID)
	if err != nil {
		return nil, repo.Round{}, err
	}
	tricks, err := store.GetTricks(ctx, roundRow.ID)
	if err != nil {
		return nil, repo.Round{}, err
	}
	plays, err := store.GetAllPlaysForRound(ctx, roundRow.ID)
	if err != nil {
		return nil, repo.Round{}, err
	}

	var priorZero [domain.NumSeats]int
	for _, m := range memberships {
		priorZero[m.Seat] = m.ConsecutiveZeroBids
	}
	var dealt [domain.NumSeats][]domain.Card
	for _, h := range hands {
		dealt[h.Seat] = h.Cards
	}

	rs := NewRoundState(roundRow.DealerPos, roundRow.HandSize, dealt, priorZero)

	// membership.ConsecutiveZeroBids is already the up-to-date persisted
	// count (SaveBid bumps it the moment a bid lands), so it is used as-is
	// here rather than re-derived from bids — a seat that already bid this
	// round will never have PlaceBid called on it again, so the field is
	// only ever consulted for seats that have not bid yet.
	for _, b := range bids {
		bid := b.Bid
		rs.Bids[b.Seat] = &bid
	}
	if bidsPlaced(rs) == domain.NumSeats {
		rs.TrumpChooser = highestBidder(rs)
	}

	if roundRow.Trump != nil {
		rs.Trump = *roundRow.Trump
		rs.TrumpSet = true
	}

	sort.Slice(tricks, func(i, j int) bool { return tricks[i].TrickNo < tricks[j].TrickNo })
	for _, t := range tricks {
		rs.TricksWonBySeat[t.WinnerSeat]++
	}

	playsByTrick := map[int][]repo.Play{}
	for _, p := range plays {
		playsByTrick[p.TrickNo] = append(playsByTrick[p.TrickNo], p)
	}
	for trickNo, trickPlays := range playsByTrick {
		sort.Slice(trickPlays, func(i, j int) bool { return trickPlays[i].PlayOrder < trickPlays[j].PlayOrder })
		converted := make([]TrickPlay, len(trickPlays))
		for i, p := range trickPlays {
			converted[i] = TrickPlay{Seat: p.Seat, Card: p.Card}
		}
		resolved := false
		for _, t := range tricks {
			if t.TrickNo == trickNo {
				resolved = true
				break
			}
		}
		if resolved {
			rs.CompletedTricks = append(rs.CompletedTricks, converted)
			continue
		}
		// The one unresolved trick in progress, subtract its cards from hand
		// and remember it as CurrentTrick below.
		rs.CurrentTrick = converted
		rs.CurrentTrickNo = trickNo
	}
	for seat, hand := range rs.Hands {
		for _, p := range plays {
			if p.Seat != seat {
				continue
			}
			if remaining, ok := removeCard(hand, p.Card); ok {
				hand = remaining
			}
		}
		rs.Hands[seat] = hand
	}

	switch {
	case rs.CurrentTrickNo != 0:
		if len(tricks) > 0 {
			rs.TrickLeader = tricks[len(tricks)-1].WinnerSeat
		} else {
			rs.TrickLeader = (rs.DealerPos + 1) % domain.NumSeats
		}
	case roundRow.Phase == "TRICK_PLAY" || roundRow.Phase == "SCORING" || roundRow.Phase == "DONE":
		rs.CurrentTrickNo = len(tricks) + 1
		if len(tricks) > 0 {
			rs.TrickLeader = tricks[len(tricks)-1].WinnerSeat
		} else {
			rs.TrickLeader = (rs.DealerPos + 1) % domain.NumSeats
		}
	}

	phase, err := parsePhase(roundRow.Phase)
	if err != nil {
		return nil, repo.Round{}, err
	}
	rs.Phase = phase

	return NewRound(rs), roundRow, nil
}
