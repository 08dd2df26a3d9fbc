package ai

import "github.com/robpatriot/nommie/internal/domain"

// Heuristic is the deterministic reference AI: bid estimation weights
// suit length, top-card strength, and void/singleton shortness; trump
// selection scores each suit by length and top-card strength and only
// picks no-trump for a balanced, top-heavy hand; play selection leads
// from its longest suit, follows conservatively with respect to its own
// bid, and ruffs only once a trick is far enough along to be worth it.
type Heuristic struct{}

// topCardScore scores a single card's contribution to suit strength:
// Ace=4, King=3, Queen=2, Jack=1, everything else 0.
func topCardScore(c domain.Card) int {
	switch c.Rank {
	case domain.Ace:
		return 4
	case domain.King:
		return 3
	case domain.Queen:
		return 2
	case domain.Jack:
		return 1
	default:
		return 0
	}
}

func suitCounts(hand []domain.Card) map[domain.Suit]int {
	counts := make(map[domain.Suit]int)
	for _, c := range hand {
		counts[c.Suit]++
	}
	return counts
}

func cardsOfSuit(hand []domain.Card, s domain.Suit) []domain.Card {
	var out []domain.Card
	for _, c := range hand {
		if c.Suit == s {
			out = append(out, c)
		}
	}
	return out
}

func lowestCard(cards []domain.Card) domain.Card {
	lowest := cards[0]
	for _, c := range cards[1:] {
		if c.Rank < lowest.Rank {
			lowest = c
		}
	}
	return lowest
}

func longestSuit(hand []domain.Card) (domain.Suit, int) {
	counts := suitCounts(hand)
	best := domain.Clubs
	bestLen := -1
	for _, s := range domain.AllSuits {
		if counts[s] > bestLen {
			best = s
			bestLen = counts[s]
		}
	}
	return best, bestLen
}

func voidOrSingletonCount(hand []domain.Card) int {
	counts := suitCounts(hand)
	n := 0
	for _, s := range domain.AllSuits {
		if counts[s] <= 1 {
			n++
		}
	}
	return n
}

func topCardCount(hand []domain.Card, minRank domain.Rank) int {
	n := 0
	for _, c := range hand {
		if c.Rank >= minRank {
			n++
		}
	}
	return n
}

// roundBidHalfDown rounds estimate to the nearest integer, with exact .5
// ties rounding down — a conservative bidder undercalls rather than
// overcalls on a borderline hand.
func roundBidHalfDown(estimate float64) int {
	floor := int(estimate)
	frac := estimate - float64(floor)
	if frac > 0.5 {
		return floor + 1
	}
	return floor
}

// ChooseBid estimates a bid from hand shape: 0.4 * longest suit length +
// 0.9 * count of top cards (Queen or better) + 0.3 * count of
// void/singleton suits, scaled down by a conservative 0.9 factor, then
// resolved against the dealer's sum restriction and the consecutive-zero
// rule together so the returned bid violates neither.
func (Heuristic) ChooseBid(hand []domain.Card, handSize int, isDealer bool, priorBidsSum int, consecutiveZeroBids int) int {
	_, longestLen := longestSuit(hand)
	tops := topCardCount(hand, domain.Queen)
	voids := voidOrSingletonCount(hand)

	estimate := 0.4*float64(longestLen) + 0.9*float64(tops) + 0.3*float64(voids)
	estimate *= 0.9

	bid := roundBidHalfDown(estimate)
	min, max := domain.ValidBidRange(handSize)
	if bid < min {
		bid = min
	}
	if bid > max {
		bid = max
	}

	return resolveLegalBid(bid, handSize, isDealer, priorBidsSum, consecutiveZeroBids)
}

// resolveLegalBid nudges an estimate-based bid to the nearest value (by
// absolute distance, preferring the higher neighbor on a tie) that
// satisfies domain.ValidateBid's dealer-sum and consecutive-zero rules
// together. Reusing ValidateBid itself, rather than re-deriving each
// rule's adjustment independently, is what prevents satisfying one rule
// from silently reintroducing a violation of the other: the dealer-sum
// fix and the zero-bid fix can each undo the other's correction when
// applied in sequence (e.g. handSize=4, priorBidsSum=3,
// consecutiveZeroBids=2: 0 is illegal by the zero rule, 1 is illegal by
// the dealer-sum rule, toggling between them forever), so this searches
// outward for any value both rules agree on. If no legal bid exists at
// all (a genuine rules conflict, not just an estimation issue) it
// returns the original estimate and leaves round.PlaceBid's validation
// to reject it, per spec's "domain validation errors are fatal for that
// AI turn and propagate" semantics.
func resolveLegalBid(bid, handSize int, isDealer bool, priorBidsSum int, consecutiveZeroBids int) int {
	min, max := domain.ValidBidRange(handSize)
	if domain.ValidateBid(bid, handSize, isDealer, priorBidsSum, consecutiveZeroBids) == nil {
		return bid
	}
	for delta := 1; delta <= max-min; delta++ {
		if up := bid + delta; up <= max && domain.ValidateBid(up, handSize, isDealer, priorBidsSum, consecutiveZeroBids) == nil {
			return up
		}
		if down := bid - delta; down >= min && domain.ValidateBid(down, handSize, isDealer, priorBidsSum, consecutiveZeroBids) == nil {
			return down
		}
	}
	return bid
}

// ChooseTrump scores each suit as count*10 + sum of top-card scores, picks
// the highest-scoring suit (ties broken by suit declaration order), and
// prefers no-trump instead when the hand is balanced (every suit holds
// 2-5 cards) and carries enough top-card control overall.
func (Heuristic) ChooseTrump(hand []domain.Card) domain.Trump {
	counts := suitCounts(hand)

	bestSuit := domain.Clubs
	bestScore := -1
	totalTopScore := 0
	balanced := true
	for _, s := range domain.AllSuits {
		count := counts[s]
		if count < 2 || count > 5 {
			balanced = false
		}
		score := count * 10
		for _, c := range cardsOfSuit(hand, s) {
			top := topCardScore(c)
			score += top
			totalTopScore += top
		}
		if score > bestScore {
			bestSuit = s
			bestScore = score
		}
	}

	if balanced && totalTopScore >= 6 {
		return domain.NoTrump
	}
	return domain.TrumpOf(bestSuit)
}

// currentBestCard walks currentTrick in play order and returns whichever
// card is winning so far under lead/trump.
func currentBestCard(currentTrick []domain.Card, lead domain.Suit, trump domain.Trump) domain.Card {
	best := currentTrick[0]
	for _, c := range currentTrick[1:] {
		if domain.CardBeats(c, best, lead, trump) {
			best = c
		}
	}
	return best
}

// ChoosePlay picks a card to play given the state of the current trick:
//   - On lead: play the lowest card of the longest suit.
//   - Following in suit, already past its bid: play the lowest card that
//     does not win the trick, if one exists, else the lowest card of the
//     suit (a forced win).
//   - Following in suit, still short of its bid: play the cheapest card
//     that wins, if one exists, else the lowest card of the suit.
//   - Void: ruff with the lowest trump once at least two cards have
//     already been played this trick (so the ruff isn't wasted on a trick
//     likely to be overruffed); otherwise discard the lowest legal card.
func (Heuristic) ChoosePlay(hand []domain.Card, lead domain.Suit, leadKnown bool, trump domain.Trump, currentTrick []domain.Card, tricksWon, bid int, cardsPlayedThisTrickCount int) domain.Card {
	if !leadKnown || len(currentTrick) == 0 {
		suit, _ := longestSuit(hand)
		return lowestCard(cardsOfSuit(hand, suit))
	}

	inSuit := cardsOfSuit(hand, lead)
	if len(inSuit) > 0 {
		best := currentBestCard(currentTrick, lead, trump)
		var winning, nonWinning []domain.Card
		for _, c := range inSuit {
			if domain.CardBeats(c, best, lead, trump) {
				winning = append(winning, c)
			} else {
				nonWinning = append(nonWinning, c)
			}
		}
		if tricksWon >= bid {
			if len(nonWinning) > 0 {
				return lowestCard(nonWinning)
			}
			return lowestCard(inSuit)
		}
		if len(winning) > 0 {
			return lowestCard(winning)
		}
		return lowestCard(inSuit)
	}

	// Void in the lead suit.
	if !trump.IsNoTrump() {
		trumpSuit, _ := trump.Suit()
		trumps := cardsOfSuit(hand, trumpSuit)
		if len(trumps) > 0 && cardsPlayedThisTrickCount >= 2 {
			return lowestCard(trumps)
		}
	}
	return lowestCard(hand)
}
