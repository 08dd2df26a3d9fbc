package domain

import (
	"math/rand/v2"

	"github.com/robpatriot/nommie/internal/apperrors"
)

// DeriveDealingSeed mixes a game's root seed with a round number into a
// seed unique to that round, so each round's shuffle is deterministic and
// reproducible from (gameSeed, roundNo) alone without storing 26 seeds.
func DeriveDealingSeed(gameSeed int64, roundNo uint8) int64 {
	mixed := gameSeed*31 + int64(roundNo)
	// Run through a splitmix64-style scrambler so nearby (gameSeed, roundNo)
	// pairs don't produce visibly correlated shuffles.
	z := uint64(mixed)
	z += 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return int64(z)
}

// ShuffledDeck returns the 52-card deck shuffled deterministically from
// seed via a Fisher-Yates pass.
func ShuffledDeck(seed int64) []Card {
	deck := FullDeck()
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed>>32)|1))
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// Deal splits a shuffled deck into numSeats hands of handSize cards each,
// dealt round-robin starting at seat 0, matching standard deal order.
// It errors if the deck doesn't have enough cards.
func Deal(deck []Card, numSeats, handSize int) ([][]Card, error) {
	needed := numSeats * handSize
	if len(deck) < needed {
		return nil, apperrors.Newf(apperrors.CodeValidationError,
			"deck has %d cards, need %d for %d seats of %d", len(deck), needed, numSeats, handSize)
	}
	hands := make([][]Card, numSeats)
	for s := range hands {
		hands[s] = make([]Card, 0, handSize)
	}
	for i := 0; i < needed; i++ {
		seat := i % numSeats
		hands[seat] = append(hands[seat], deck[i])
	}
	return hands, nil
}

// DealRound is the convenience entry point combining seed derivation,
// shuffling, and dealing for a single round.
func DealRound(gameSeed int64, roundNo uint8, numSeats, handSize int) ([][]Card, error) {
	seed := DeriveDealingSeed(gameSeed, roundNo)
	deck := ShuffledDeck(seed)
	return Deal(deck, numSeats, handSize)
}
