// Package deck provides immutable playing-card values and a finite draw pile.
package deck

import (
	"fmt"
	"math/rand"
)

// Rank is a card rank, Ace through King.
type Rank int

const (
	Ace Rank = iota + 1
	Two
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
)

// Suit is one of the four card suits.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var rankNames = map[Rank]string{
	Ace: "A", Two: "2", Three: "3", Four: "4", Five: "5", Six: "6",
	Seven: "7", Eight: "8", Nine: "9", Ten: "10", Jack: "J", Queen: "Q", King: "K",
}

var suitNames = map[Suit]string{
	Clubs: "♣", Diamonds: "♦", Hearts: "♥", Spades: "♠",
}

// Card is an immutable playing card. Equality is by value.
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	return rankNames[c.Rank] + suitNames[c.Suit]
}

// Deck is an ordered, finite, non-restartable draw pile.
type Deck struct {
	cards []Card
	next  int
}

// New creates a deck that deals the given cards in order. Intended for tests
// and for any caller that needs a deterministic sequence.
func New(cards ...Card) *Deck {
	return &Deck{cards: cards}
}

// NewShuffled creates a full 52-card deck shuffled with the given source.
func NewShuffled(rng *rand.Rand) *Deck {
	cards := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for r := Ace; r <= King; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Draw deals the next card. Drawing past the end is a precondition violation:
// a 52-card deck is never exhausted by the games built on it, so running dry
// means the caller is broken.
func (d *Deck) Draw() Card {
	if d.next >= len(d.cards) {
		panic(fmt.Sprintf("deck: draw past end (%d cards dealt)", d.next))
	}
	c := d.cards[d.next]
	d.next++
	return c
}

// Remaining reports how many cards are left to draw.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
