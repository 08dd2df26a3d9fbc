// Package domain implements the pure, dependency-free card model: suits,
// ranks, trump, the card comparator, deterministic dealing, and bid
// legality. Nothing here touches a database or the network.
package domain

import (
	"fmt"

	"github.com/robpatriot/nommie/internal/apperrors"
)

// Suit is one of the four standard suits. Its declaration order is used
// only for stable display sorting — never for trick-resolution or bidding
// logic, which always goes through CardBeats.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

func (s Suit) String() string {
	switch s {
	case Clubs:
		return "CLUBS"
	case Diamonds:
		return "DIAMONDS"
	case Hearts:
		return "HEARTS"
	case Spades:
		return "SPADES"
	default:
		return "UNKNOWN_SUIT"
	}
}

func (s Suit) char() byte {
	switch s {
	case Clubs:
		return 'C'
	case Diamonds:
		return 'D'
	case Hearts:
		return 'H'
	case Spades:
		return 'S'
	default:
		return '?'
	}
}

func suitFromChar(c byte) (Suit, bool) {
	switch c {
	case 'C':
		return Clubs, true
	case 'D':
		return Diamonds, true
	case 'H':
		return Hearts, true
	case 'S':
		return Spades, true
	default:
		return 0, false
	}
}

// AllSuits lists the four suits in declaration order, used by dealing and
// hand-building code that needs to enumerate the full deck.
var AllSuits = [4]Suit{Clubs, Diamonds, Hearts, Spades}

// Trump is either a Suit or NoTrump. It is a distinct type from Suit so a
// round's trump can legally be "no trump" without an extra bool flag.
type Trump struct {
	suit     Suit
	isSuit   bool
	isNoTrmp bool
}

// NoTrump is the sentinel trump value meaning no suit is trump this round.
var NoTrump = Trump{isNoTrmp: true}

// TrumpOf wraps a Suit as a Trump value.
func TrumpOf(s Suit) Trump { return Trump{suit: s, isSuit: true} }

// IsNoTrump reports whether t represents "no trump".
func (t Trump) IsNoTrump() bool { return t.isNoTrmp }

// Suit converts t back to a Suit. It fails with CodeInvalidTrumpConversion
// when t is NoTrump — there is no suit to return.
func (t Trump) Suit() (Suit, error) {
	if !t.isSuit {
		return 0, apperrors.New(apperrors.CodeInvalidTrumpConversion, "no trump has no suit")
	}
	return t.suit, nil
}

func (t Trump) String() string {
	if t.isNoTrmp {
		return "NO_TRUMP"
	}
	return t.suit.String()
}

// ParseTrump parses the String() form back into a Trump, for round-tripping
// through storage columns that hold the trump as text.
func ParseTrump(s string) (Trump, error) {
	switch s {
	case "NO_TRUMP":
		return NoTrump, nil
	case "CLUBS":
		return TrumpOf(Clubs), nil
	case "DIAMONDS":
		return TrumpOf(Diamonds), nil
	case "HEARTS":
		return TrumpOf(Hearts), nil
	case "SPADES":
		return TrumpOf(Spades), nil
	default:
		return Trump{}, apperrors.Newf(apperrors.CodeInvalidTrumpConversion, "invalid trump string %q", s)
	}
}

// Rank is a card rank, Two through Ace, ordered ascending.
type Rank int

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

func (r Rank) char() byte {
	switch r {
	case Two:
		return '2'
	case Three:
		return '3'
	case Four:
		return '4'
	case Five:
		return '5'
	case Six:
		return '6'
	case Seven:
		return '7'
	case Eight:
		return '8'
	case Nine:
		return '9'
	case Ten:
		return 'T'
	case Jack:
		return 'J'
	case Queen:
		return 'Q'
	case King:
		return 'K'
	case Ace:
		return 'A'
	default:
		return '?'
	}
}

func rankFromChar(c byte) (Rank, bool) {
	switch c {
	case '2':
		return Two, true
	case '3':
		return Three, true
	case '4':
		return Four, true
	case '5':
		return Five, true
	case '6':
		return Six, true
	case '7':
		return Seven, true
	case '8':
		return Eight, true
	case '9':
		return Nine, true
	case 'T':
		return Ten, true
	case 'J':
		return Jack, true
	case 'Q':
		return Queen, true
	case 'K':
		return King, true
	case 'A':
		return Ace, true
	default:
		return 0, false
	}
}

func (r Rank) String() string {
	return string(r.char())
}

// Card is an immutable rank/suit pair with a strict two-character token
// form (see String/ParseCard); trick and bid legality never compare Cards
// directly, they go through CardBeats.
type Card struct {
	Rank Rank
	Suit Suit
}

// String renders the strict two-character wire token (e.g. "AS", "TD",
// "9C"). There is exactly one valid token per card.
func (c Card) String() string {
	return string([]byte{c.Rank.char(), c.Suit.char()})
}

// ParseCard parses the strict two-character token produced by String.
// "10H" is rejected — ten is always "T". Case-sensitive.
func ParseCard(token string) (Card, error) {
	if len(token) != 2 {
		return Card{}, apperrors.Newf(apperrors.CodeParseCard, "invalid card token %q: must be 2 characters", token)
	}
	rank, ok := rankFromChar(token[0])
	if !ok {
		return Card{}, apperrors.Newf(apperrors.CodeParseCard, "invalid card token %q: bad rank", token)
	}
	suit, ok := suitFromChar(token[1])
	if !ok {
		return Card{}, apperrors.Newf(apperrors.CodeParseCard, "invalid card token %q: bad suit", token)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// MarshalJSON implements json.Marshaler using the strict two-char token.
func (c Card) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler using the strict two-char token.
func (c *Card) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return apperrors.Newf(apperrors.CodeParseCard, "invalid card JSON %s", data)
	}
	parsed, err := ParseCard(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCards parses a slice of tokens, failing on the first invalid one.
func ParseCards(tokens []string) ([]Card, error) {
	cards := make([]Card, 0, len(tokens))
	for _, tok := range tokens {
		c, err := ParseCard(tok)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// HandHasSuit reports whether hand contains any card of suit s.
func HandHasSuit(hand []Card, s Suit) bool {
	for _, c := range hand {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// CardBeats reports whether candidate beats currentBest under the given
// lead suit and trump, per the trick-resolution rule:
//  1. If trump is a suit: any trump beats any non-trump; two trumps compare
//     by rank.
//  2. Otherwise (no trump in play for either card, or trump is NoTrump): a
//     lead-suit card beats a non-lead card; two lead-suit cards compare by
//     rank; two off-suit, non-lead cards never have one beat the other.
func CardBeats(candidate, currentBest Card, lead Suit, trump Trump) bool {
	trumpSuit, hasTrump := Suit(0), false
	if !trump.IsNoTrump() {
		trumpSuit, _ = trump.Suit()
		hasTrump = true
	}

	candIsTrump := hasTrump && candidate.Suit == trumpSuit
	bestIsTrump := hasTrump && currentBest.Suit == trumpSuit

	if candIsTrump && !bestIsTrump {
		return true
	}
	if !candIsTrump && bestIsTrump {
		return false
	}
	if candIsTrump && bestIsTrump {
		return candidate.Rank > currentBest.Rank
	}

	// Neither is trump: compare within the lead-suit category.
	candIsLead := candidate.Suit == lead
	bestIsLead := currentBest.Suit == lead

	if candIsLead && !bestIsLead {
		return true
	}
	if !candIsLead && bestIsLead {
		return false
	}
	if candIsLead && bestIsLead {
		return candidate.Rank > currentBest.Rank
	}
	// Both off-suit, non-trump: neither can win.
	return false
}

// FullDeck returns the 52 standard cards in a fixed, deterministic order
// (suit-major, rank-ascending) suitable as the pre-shuffle base deck.
func FullDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range AllSuits {
		for r := Two; r <= Ace; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}
