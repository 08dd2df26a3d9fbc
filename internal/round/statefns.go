package round

import "github.com/robpatriot/nommie/pkg/statemachine"

// stateFnFor returns the StateFn corresponding to phase p. Each function
// inspects rs.Phase (already mutated by the operations in operations.go)
// and returns whichever StateFn matches the new phase, firing the
// transition callback when the phase actually changed.
func stateFnFor(p Phase) statemachine.StateFn[RoundState] {
	switch p {
	case PhaseBidding:
		return biddingStateFn
	case PhaseTrumpSelect:
		return trumpSelectStateFn
	case PhaseTrickPlay:
		return trickPlayStateFn
	case PhaseScoring:
		return scoringStateFn
	default:
		return doneStateFn
	}
}

func transition(rs *RoundState, from Phase, callback func(string, statemachine.StateEvent)) statemachine.StateFn[RoundState] {
	if callback != nil && rs.Phase != from {
		callback(from.String(), statemachine.StateExited)
		callback(rs.Phase.String(), statemachine.StateEntered)
	}
	return stateFnFor(rs.Phase)
}

func biddingStateFn(rs *RoundState, callback func(string, statemachine.StateEvent)) statemachine.StateFn[RoundState] {
	return transition(rs, PhaseBidding, callback)
}

func trumpSelectStateFn(rs *RoundState, callback func(string, statemachine.StateEvent)) statemachine.StateFn[RoundState] {
	return transition(rs, PhaseTrumpSelect, callback)
}

func trickPlayStateFn(rs *RoundState, callback func(string, statemachine.StateEvent)) statemachine.StateFn[RoundState] {
	return transition(rs, PhaseTrickPlay, callback)
}

func scoringStateFn(rs *RoundState, callback func(string, statemachine.StateEvent)) statemachine.StateFn[RoundState] {
	return transition(rs, PhaseScoring, callback)
}

func doneStateFn(rs *RoundState, callback func(string, statemachine.StateEvent)) statemachine.StateFn[RoundState] {
	return transition(rs, PhaseDone, callback)
}
