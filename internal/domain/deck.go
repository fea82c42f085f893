package domain

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrEmptyDeck is returned by Draw when no cards remain. Callers advance the
// turn without drawing.
var ErrEmptyDeck = errors.New("deck is empty")

var deckRanks = []Rank{
	RankAce, "2", "3", "4", "5", "6", "7", "8", "9", "10",
	RankJack, RankQueen, RankKing,
}

var deckSuits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// NewDeck returns an ordered 54-card deck: the 52 standard cards plus two
// distinct jokers.
func NewDeck() []Card {
	deck := make([]Card, 0, 54)
	for _, s := range deckSuits {
		for _, r := range deckRanks {
			deck = append(deck, Card{Suit: s, Rank: r, ID: fmt.Sprintf("%s-%s", s, r)})
		}
	}
	deck = append(deck,
		Card{Suit: SuitJoker, Rank: RankJoker, ID: "joker-1"},
		Card{Suit: SuitJoker, Rank: RankJoker, ID: "joker-2"},
	)
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
