package domain

import "github.com/robpatriot/nommie/internal/apperrors"

// MaxConsecutiveZeroBids is how many rounds running a seat may bid 0
// before it is forced to bid nonzero (see DESIGN.md Open Question
// decisions: fixed at N=2, so a third consecutive zero bid is illegal).
const MaxConsecutiveZeroBids = 2

// IsDealer reports whether seat is the dealer for a round whose dealer
// position is dealerPos.
func IsDealer(seat, dealerPos int) bool {
	return seat == dealerPos
}

// ValidateBid checks a proposed bid for seat against the standard bidding
// rules:
//   - bid must be in [0, handSize]
//   - if seat is the dealer (last to bid), the sum of all bids including
//     this one must not equal handSize
//   - a seat may not bid 0 in three consecutive rounds
func ValidateBid(bid, handSize int, isDealer bool, priorBidsSum int, consecutiveZeroBids int) error {
	min, max := ValidBidRange(handSize)
	if bid < min || bid > max {
		return apperrors.Newf(apperrors.CodeInvalidBid, "bid %d out of range [%d,%d]", bid, min, max)
	}
	if isDealer && priorBidsSum+bid == handSize {
		return apperrors.Newf(apperrors.CodeInvalidBid,
			"dealer bid %d would make total bids equal hand size %d", bid, handSize)
	}
	if bid == 0 && consecutiveZeroBids >= MaxConsecutiveZeroBids {
		return apperrors.Newf(apperrors.CodeInvalidBid,
			"seat cannot bid 0 for a %dth consecutive round", consecutiveZeroBids+1)
	}
	return nil
}
