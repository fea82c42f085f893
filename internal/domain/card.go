package domain

import "fmt"

// Suit identifies one of the four French suits or the joker pseudo-suit.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
	SuitJoker    Suit = "joker"
)

// Rank is the face rank of a card. Numeric ranks use their digits ("2".."10").
type Rank string

const (
	RankAce   Rank = "A"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankJoker Rank = "Joker"
)

// RuleType classifies the special effect a discarded card triggers.
type RuleType string

const (
	RuleNone      RuleType = ""
	RulePeekOwn   RuleType = "peek-own"
	RulePeekOther RuleType = "peek-other"
	RuleBlindSwitch RuleType = "blind-switch"
	RuleBlackKing RuleType = "black-king"
)

// Card is an immutable playing card. ID is stable for the life of the deck
// and disambiguates the two jokers.
type Card struct {
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
	ID   string `json:"id"`
}

var numericValues = map[Rank]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
}

// PointValue returns the scoring value of a card. Red Kings are the only
// negative-valued cards in the deck.
func PointValue(c Card) int {
	switch c.Rank {
	case RankJoker:
		return 0
	case RankAce:
		return 1
	case RankJack, RankQueen:
		return 10
	case RankKing:
		if c.Suit == SuitHearts || c.Suit == SuitDiamonds {
			return -1
		}
		return 10
	default:
		return numericValues[c.Rank]
	}
}

// RuleOf returns the rule a card carries when discarded, or RuleNone.
// Red Kings carry no rule.
func RuleOf(c Card) RuleType {
	switch c.Rank {
	case "7", "8":
		return RulePeekOwn
	case "9", "10":
		return RulePeekOther
	case RankJack, RankQueen:
		return RuleBlindSwitch
	case RankKing:
		if c.Suit == SuitClubs || c.Suit == SuitSpades {
			return RuleBlackKing
		}
		return RuleNone
	default:
		return RuleNone
	}
}

// IsRedKing reports whether the card is a King of hearts or diamonds.
func IsRedKing(c Card) bool {
	return c.Rank == RankKing && (c.Suit == SuitHearts || c.Suit == SuitDiamonds)
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}
