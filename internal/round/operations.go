package round

import (
	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/pkg/statemachine"
)

// PlaceBid records seat's bid and, once all four seats have bid, advances
// the round to TrumpSelect with the highest bidder (ties broken by
// earliest position in bidding order) as trump chooser.
func (r *Round) PlaceBid(seat, bid int, callback func(string, statemachine.StateEvent)) error {
	rs := r.State
	if err := requirePhase(rs, PhaseBidding); err != nil {
		return err
	}
	if seat < 0 || seat >= domain.NumSeats {
		return apperrors.Newf(apperrors.CodeInvalidSeat, "seat %d out of range", seat)
	}
	expectedSeat := rs.BidOrder[bidsPlaced(rs)]
	if seat != expectedSeat {
		return apperrors.Newf(apperrors.CodeOutOfTurn, "seat %d bid out of turn, expected seat %d", seat, expectedSeat)
	}
	if rs.Bids[seat] != nil {
		return apperrors.Newf(apperrors.CodeOutOfTurn, "seat %d has already bid", seat)
	}

	isDealer := domain.IsDealer(seat, rs.DealerPos)
	if err := domain.ValidateBid(bid, rs.HandSize, isDealer, bidsSum(rs), rs.PriorConsecutiveZeroBids[seat]); err != nil {
		return err
	}

	b := bid
	rs.Bids[seat] = &b
	if bid == 0 {
		rs.PriorConsecutiveZeroBids[seat]++
	} else {
		rs.PriorConsecutiveZeroBids[seat] = 0
	}

	if bidsPlaced(rs) == domain.NumSeats {
		rs.TrumpChooser = highestBidder(rs)
		rs.Phase = PhaseTrumpSelect
	}

	r.notify(callback)
	return nil
}

// highestBidder returns the seat with the highest bid, ties broken by
// earliest position in the round's bidding order.
func highestBidder(rs *RoundState) int {
	best := rs.BidOrder[0]
	bestBid := *rs.Bids[best]
	for _, seat := range rs.BidOrder[1:] {
		if *rs.Bids[seat] > bestBid {
			best = seat
			bestBid = *rs.Bids[seat]
		}
	}
	return best
}

// SetTrump is called by the trump chooser to declare trump, which opens
// trick play led by the seat to the dealer's left.
func (r *Round) SetTrump(seat int, trump domain.Trump, callback func(string, statemachine.StateEvent)) error {
	rs := r.State
	if err := requirePhase(rs, PhaseTrumpSelect); err != nil {
		return err
	}
	if seat != rs.TrumpChooser {
		return apperrors.Newf(apperrors.CodeOutOfTurn, "seat %d is not the trump chooser (seat %d)", seat, rs.TrumpChooser)
	}
	rs.Trump = trump
	rs.TrumpSet = true
	rs.Phase = PhaseTrickPlay
	rs.CurrentTrickNo = 1
	rs.TrickLeader = (rs.DealerPos + 1) % domain.NumSeats
	rs.CurrentTrick = nil

	r.notify(callback)
	return nil
}

func removeCard(hand []domain.Card, card domain.Card) ([]domain.Card, bool) {
	for i, c := range hand {
		if c == card {
			return append(hand[:i:i], hand[i+1:]...), true
		}
	}
	return hand, false
}

// PlayCard records seat playing card into the current trick, enforcing
// turn order, hand membership, and follow-suit. When the fourth card of a
// trick is played it resolves the winner and either opens the next trick
// or, if this was the round's final trick, advances to Scoring.
func (r *Round) PlayCard(seat int, card domain.Card, callback func(string, statemachine.StateEvent)) error {
	rs := r.State
	if err := requirePhase(rs, PhaseTrickPlay); err != nil {
		return err
	}
	if seat < 0 || seat >= domain.NumSeats {
		return apperrors.Newf(apperrors.CodeInvalidSeat, "seat %d out of range", seat)
	}
	position := len(rs.CurrentTrick)
	expectedSeat := (rs.TrickLeader + position) % domain.NumSeats
	if seat != expectedSeat {
		return apperrors.Newf(apperrors.CodeOutOfTurn, "seat %d played out of turn, expected seat %d", seat, expectedSeat)
	}

	if position > 0 {
		leadSuit := rs.CurrentTrick[0].Card.Suit
		if card.Suit != leadSuit && domain.HandHasSuit(rs.Hands[seat], leadSuit) {
			return apperrors.Newf(apperrors.CodeMustFollowSuit, "seat %d must follow suit %s", seat, leadSuit)
		}
	}

	remaining, ok := removeCard(rs.Hands[seat], card)
	if !ok {
		return apperrors.Newf(apperrors.CodeCardNotInHand, "seat %d does not hold %s", seat, card)
	}
	rs.Hands[seat] = remaining
	rs.CurrentTrick = append(rs.CurrentTrick, TrickPlay{Seat: seat, Card: card})

	if len(rs.CurrentTrick) == domain.NumSeats {
		winner := resolveTrick(rs)
		rs.TricksWonBySeat[winner]++
		rs.CompletedTricks = append(rs.CompletedTricks, rs.CurrentTrick)
		if rs.CurrentTrickNo == rs.HandSize {
			rs.Phase = PhaseScoring
		} else {
			rs.CurrentTrickNo++
			rs.TrickLeader = winner
			rs.CurrentTrick = nil
		}
	}

	r.notify(callback)
	return nil
}

// resolveTrick determines which seat won the just-completed trick.
func resolveTrick(rs *RoundState) int {
	leadSuit := rs.CurrentTrick[0].Card.Suit
	winner := rs.CurrentTrick[0].Seat
	best := rs.CurrentTrick[0].Card
	for _, play := range rs.CurrentTrick[1:] {
		if domain.CardBeats(play.Card, best, leadSuit, rs.Trump) {
			best = play.Card
			winner = play.Seat
		}
	}
	return winner
}

// RoundScore is tricks_won, plus a 10-point bonus if tricks_won == bid.
func RoundScore(bid, tricksWon int) int {
	if tricksWon == bid {
		return tricksWon + 10
	}
	return tricksWon
}

// ApplyRoundScoring computes each seat's round score and advances the
// round to Done. It may only be called while the round is in Scoring,
// except that calling it again once it has already scored is a no-op
// that returns the same scores rather than a PhaseMismatch error —
// applying it twice must equal applying it once, since a caller that
// retried a persist after a partial failure has no way to know whether
// the scoring step itself already ran.
func (r *Round) ApplyRoundScoring(callback func(string, statemachine.StateEvent)) ([domain.NumSeats]int, error) {
	rs := r.State
	if rs.Phase == PhaseDone && rs.Scored {
		return rs.Scores, nil
	}
	if err := requirePhase(rs, PhaseScoring); err != nil {
		return [domain.NumSeats]int{}, err
	}
	var scores [domain.NumSeats]int
	for seat := 0; seat < domain.NumSeats; seat++ {
		bid := *rs.Bids[seat]
		scores[seat] = RoundScore(bid, rs.TricksWonBySeat[seat])
	}
	rs.Scores = scores
	rs.Scored = true
	rs.Phase = PhaseDone
	r.notify(callback)
	return scores, nil
}
