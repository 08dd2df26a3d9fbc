// Package ai implements the AiPlayer contract: three pure decision
// functions an AI-controlled seat uses to bid, pick trump, and play cards.
// Heuristic is the one deterministic reference implementation; it never
// reads randomness or wall-clock time so the same inputs always produce
// the same decision.
package ai

import "github.com/robpatriot/nommie/internal/domain"

// Player is the contract any AI decision strategy must satisfy.
type Player interface {
	ChooseBid(hand []domain.Card, handSize int, isDealer bool, priorBidsSum int, consecutiveZeroBids int) int
	ChooseTrump(hand []domain.Card) domain.Trump
	ChoosePlay(hand []domain.Card, lead domain.Suit, leadKnown bool, trump domain.Trump, currentTrick []domain.Card, tricksWon, bid int, cardsPlayedThisTrickCount int) domain.Card
}
