package domain

import (
	"testing"

	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardTokenRoundTrip(t *testing.T) {
	for _, tok := range []string{"AS", "TD", "9C", "2H", "KC", "QD"} {
		c, err := ParseCard(tok)
		require.NoError(t, err)
		assert.Equal(t, tok, c.String())
	}
}

func TestParseCardRejectsTenDigitForm(t *testing.T) {
	_, err := ParseCard("10H")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeParseCard, apperrors.CodeOf(err))
}

func TestParseCardRejectsBadLength(t *testing.T) {
	for _, tok := range []string{"A", "ASD", ""} {
		_, err := ParseCard(tok)
		assert.Error(t, err)
	}
}

func TestTrumpSuitConversion(t *testing.T) {
	s, err := TrumpOf(Hearts).Suit()
	require.NoError(t, err)
	assert.Equal(t, Hearts, s)

	_, err = NoTrump.Suit()
	assert.Error(t, err)
}

func TestParseTrumpRoundTrips(t *testing.T) {
	for _, trump := range []Trump{NoTrump, TrumpOf(Clubs), TrumpOf(Diamonds), TrumpOf(Hearts), TrumpOf(Spades)} {
		parsed, err := ParseTrump(trump.String())
		require.NoError(t, err)
		assert.Equal(t, trump, parsed)
	}
	_, err := ParseTrump("NOT_A_TRUMP")
	assert.Error(t, err)
}

func TestCardBeatsTrumpBeatsAce(t *testing.T) {
	trump := TrumpOf(Diamonds)
	lead := Spades
	aceOfSpades := Card{Rank: Ace, Suit: Spades}
	twoOfDiamonds := Card{Rank: Two, Suit: Diamonds}
	assert.True(t, CardBeats(twoOfDiamonds, aceOfSpades, lead, trump))
	assert.False(t, CardBeats(aceOfSpades, twoOfDiamonds, lead, trump))
}

func TestCardBeatsTwoTrumpsCompareByRank(t *testing.T) {
	trump := TrumpOf(Clubs)
	lead := Hearts
	jackOfClubs := Card{Rank: Jack, Suit: Clubs}
	kingOfClubs := Card{Rank: King, Suit: Clubs}
	assert.True(t, CardBeats(kingOfClubs, jackOfClubs, lead, trump))
	assert.False(t, CardBeats(jackOfClubs, kingOfClubs, lead, trump))
}

func TestCardBeatsNoTrumpLeadSuitWins(t *testing.T) {
	lead := Hearts
	twoOfHearts := Card{Rank: Two, Suit: Hearts}
	aceOfSpades := Card{Rank: Ace, Suit: Spades}
	assert.True(t, CardBeats(twoOfHearts, aceOfSpades, lead, NoTrump))
	assert.False(t, CardBeats(aceOfSpades, twoOfHearts, lead, NoTrump))
}

func TestCardBeatsOffSuitNeverWins(t *testing.T) {
	lead := Hearts
	aceOfClubs := Card{Rank: Ace, Suit: Clubs}
	twoOfSpades := Card{Rank: Two, Suit: Spades}
	assert.False(t, CardBeats(aceOfClubs, twoOfSpades, lead, NoTrump))
	assert.False(t, CardBeats(twoOfSpades, aceOfClubs, lead, NoTrump))
}

func TestHandSizeTableShape(t *testing.T) {
	first, ok := HandSizeForRound(1)
	require.True(t, ok)
	assert.Equal(t, 1, first)

	thirteen, ok := HandSizeForRound(13)
	require.True(t, ok)
	assert.Equal(t, 13, thirteen)

	peak, ok := HandSizeForRound(14)
	require.True(t, ok)
	assert.Equal(t, 13, peak)

	last, ok := HandSizeForRound(26)
	require.True(t, ok)
	assert.Equal(t, 1, last)

	_, ok = HandSizeForRound(0)
	assert.False(t, ok)
	_, ok = HandSizeForRound(27)
	assert.False(t, ok)
}

func TestDealRoundIsDeterministic(t *testing.T) {
	handsA, err := DealRound(42, 3, NumSeats, 5)
	require.NoError(t, err)
	handsB, err := DealRound(42, 3, NumSeats, 5)
	require.NoError(t, err)
	assert.Equal(t, handsA, handsB)

	handsC, err := DealRound(42, 4, NumSeats, 5)
	require.NoError(t, err)
	assert.NotEqual(t, handsA, handsC)
}

func TestDealRoundConservesCards(t *testing.T) {
	hands, err := DealRound(7, 1, NumSeats, 13)
	require.NoError(t, err)
	seen := make(map[Card]bool)
	for _, hand := range hands {
		assert.Len(t, hand, 13)
		for _, c := range hand {
			assert.False(t, seen[c], "card %s dealt twice", c)
			seen[c] = true
		}
	}
	assert.Len(t, seen, 52)
}

func TestValidateBidDealerRestriction(t *testing.T) {
	err := ValidateBid(2, 5, true, 3, 0)
	assert.Error(t, err)

	err = ValidateBid(1, 5, true, 3, 0)
	assert.NoError(t, err)
}

func TestValidateBidConsecutiveZero(t *testing.T) {
	err := ValidateBid(0, 5, false, 0, 2)
	assert.Error(t, err)

	err = ValidateBid(0, 5, false, 0, 1)
	assert.NoError(t, err)
}

func TestDealerForRoundRotates(t *testing.T) {
	assert.Equal(t, 0, DealerForRound(0, 1))
	assert.Equal(t, 1, DealerForRound(0, 2))
	assert.Equal(t, 3, DealerForRound(0, 4))
	assert.Equal(t, 0, DealerForRound(0, 5))
}
