package ai

import (
	"testing"

	"github.com/robpatriot/nommie/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cards(t *testing.T, tokens ...string) []domain.Card {
	t.Helper()
	cs, err := domain.ParseCards(tokens)
	require.NoError(t, err)
	return cs
}

func TestChooseBidClampsToHandSize(t *testing.T) {
	h := Heuristic{}
	hand := cards(t, "AS", "KS", "QS", "JS", "TS")
	bid := h.ChooseBid(hand, 5, false, 0, 0)
	assert.GreaterOrEqual(t, bid, 0)
	assert.LessOrEqual(t, bid, 5)
}

func TestChooseBidRespectsDealerRestriction(t *testing.T) {
	h := Heuristic{}
	hand := cards(t, "2C", "3D", "4H", "5S")
	const handSize, priorBidsSum = 4, 3
	bid := h.ChooseBid(hand, handSize, true, priorBidsSum, 0)
	assert.NotEqual(t, handSize, priorBidsSum+bid)
}

func TestChooseBidAvoidsThirdConsecutiveZero(t *testing.T) {
	h := Heuristic{}
	hand := cards(t, "2C", "3D", "4H", "5S")
	bid := h.ChooseBid(hand, 5, false, 0, domain.MaxConsecutiveZeroBids)
	assert.NotEqual(t, 0, bid)
}

// TestChooseBidSatisfiesBothRulesWhenTheyConflictInSequence covers a hand
// whose raw estimate is 1, which collides with the dealer-sum restriction
// (priorBidsSum+1 == handSize), while the one lower value, 0, is barred by
// the consecutive-zero rule: fixing one rule naively after the other can
// bounce the bid between the
// two illegal values (0 and 1) forever. The final bid must satisfy
// domain.ValidateBid outright rather than just dodge whichever rule was
// checked last.
func TestChooseBidSatisfiesBothRulesWhenTheyConflictInSequence(t *testing.T) {
	h := Heuristic{}
	hand := cards(t, "2C", "3D", "4H", "5S")
	const handSize, priorBidsSum, consecutiveZeroBids = 4, 3, domain.MaxConsecutiveZeroBids
	bid := h.ChooseBid(hand, handSize, true, priorBidsSum, consecutiveZeroBids)
	require.NoError(t, domain.ValidateBid(bid, handSize, true, priorBidsSum, consecutiveZeroBids))
}

func TestChooseTrumpPicksLongestStrongestSuit(t *testing.T) {
	h := Heuristic{}
	hand := cards(t, "AS", "KS", "QS", "JS", "2C", "3D")
	trump := h.ChooseTrump(hand)
	suit, err := trump.Suit()
	require.NoError(t, err)
	assert.Equal(t, domain.Spades, suit)
}

func TestChooseTrumpPrefersNoTrumpOnBalancedTopHeavyHand(t *testing.T) {
	h := Heuristic{}
	hand := cards(t, "AS", "KS", "AD", "KD", "AH", "KH", "AC", "KC")
	trump := h.ChooseTrump(hand)
	assert.True(t, trump.IsNoTrump())
}

func TestChoosePlayOnLeadPlaysLowestOfLongestSuit(t *testing.T) {
	h := Heuristic{}
	hand := cards(t, "AS", "2S", "3S", "4D")
	play := h.ChoosePlay(hand, domain.Spades, false, domain.NoTrump, nil, 0, 0, 0)
	assert.Equal(t, cards(t, "2S")[0], play)
}

func TestChoosePlayFollowsSuitPastBidPlaysLowestWhenEveryCardWins(t *testing.T) {
	h := Heuristic{}
	hand := cards(t, "AS", "3S")
	trick := cards(t, "2S")
	play := h.ChoosePlay(hand, domain.Spades, true, domain.NoTrump, trick, 1, 1, 1)
	assert.Equal(t, cards(t, "3S")[0], play) // 3S still beats 2S but is the cheapest option; with AS also winning, non-winning set is empty so lowest of suit (3S) is chosen
}

func TestChoosePlayRuffsOnlyLateInTrick(t *testing.T) {
	h := Heuristic{}
	trump := domain.TrumpOf(domain.Hearts)
	hand := cards(t, "5H", "2D")
	trick := cards(t, "AS")

	early := h.ChoosePlay(hand, domain.Spades, true, trump, trick, 0, 2, 1)
	assert.Equal(t, cards(t, "2D")[0], early) // only one card played so far, discard instead of ruffing

	late := h.ChoosePlay(hand, domain.Spades, true, trump, trick, 0, 2, 2)
	assert.Equal(t, cards(t, "5H")[0], late) // two cards played, ruff with lowest trump
}
