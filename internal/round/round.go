// Package round implements the per-round phase state machine: bidding,
// trump selection, trick play, and scoring, over a fixed 4-seat table.
package round

import (
	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/pkg/statemachine"
)

// Phase names the five states a round passes through in order.
type Phase int

const (
	PhaseBidding Phase = iota
	PhaseTrumpSelect
	PhaseTrickPlay
	PhaseScoring
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseBidding:
		return "BIDDING"
	case PhaseTrumpSelect:
		return "TRUMP_SELECT"
	case PhaseTrickPlay:
		return "TRICK_PLAY"
	case PhaseScoring:
		return "SCORING"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN_PHASE"
	}
}

// TrickPlay records one seat's card in the current or a completed trick.
type TrickPlay struct {
	Seat int
	Card domain.Card
}

// RoundState is the mutable state one round's state machine operates on.
// It is not safe for concurrent use without external synchronization — the
// caller (internal/orchestrator / internal/gameflow) holds one at a time
// inside a single DB transaction.
type RoundState struct {
	HandSize  int
	DealerPos int

	Hands [domain.NumSeats][]domain.Card

	BidOrder                 []int
	Bids                     [domain.NumSeats]*int
	PriorConsecutiveZeroBids [domain.NumSeats]int

	Trump        domain.Trump
	TrumpSet     bool
	TrumpChooser int

	CurrentTrickNo   int
	TrickLeader      int
	CurrentTrick     []TrickPlay
	CompletedTricks  [][]TrickPlay
	TricksWonBySeat  [domain.NumSeats]int

	Scored bool
	Scores [domain.NumSeats]int

	Phase Phase
}

// NewRoundState builds the initial state for a round: bidding starts at
// the seat left of the dealer and proceeds around the table, dealer last.
func NewRoundState(dealerPos, handSize int, hands [domain.NumSeats][]domain.Card, priorConsecutiveZeroBids [domain.NumSeats]int) *RoundState {
	order := make([]int, 0, domain.NumSeats)
	for i := 1; i <= domain.NumSeats; i++ {
		order = append(order, (dealerPos+i)%domain.NumSeats)
	}
	return &RoundState{
		HandSize:                 handSize,
		DealerPos:                dealerPos,
		Hands:                    hands,
		BidOrder:                 order,
		PriorConsecutiveZeroBids: priorConsecutiveZeroBids,
		Phase:                    PhaseBidding,
	}
}

// Round wraps a RoundState with the generic Rob-Pike state machine,
// notifying a caller-supplied callback every time the round transitions
// phase. The state machine's own entity is the RoundState; the phase
// functions in statefns.go do no mutation themselves, they only reflect whatever
// phase the operations in operations.go already moved rs.Phase to.
type Round struct {
	State *RoundState
	sm    *statemachine.StateMachine[RoundState]
}

// NewRound builds a Round whose state machine starts at state.Phase.
func NewRound(state *RoundState) *Round {
	r := &Round{State: state}
	r.sm = statemachine.NewStateMachine(state, stateFnFor(state.Phase))
	return r
}

// notify advances the wrapped state machine to match rs.Phase and invokes
// callback (which may be nil) once per transition, in the teacher's
// StateEntered/StateExited idiom.
func (r *Round) notify(callback func(stateName string, event statemachine.StateEvent)) {
	r.sm.Dispatch(callback)
}

func bidsPlaced(rs *RoundState) int {
	n := 0
	for _, b := range rs.Bids {
		if b != nil {
			n++
		}
	}
	return n
}

func bidsSum(rs *RoundState) int {
	sum := 0
	for _, b := range rs.Bids {
		if b != nil {
			sum += *b
		}
	}
	return sum
}

func requirePhase(rs *RoundState, want Phase) error {
	if rs.Phase != want {
		return apperrors.Newf(apperrors.CodePhaseMismatch, "expected phase %s, round is in %s", want, rs.Phase)
	}
	return nil
}
