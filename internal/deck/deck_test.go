package deck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewDealsInOrder(t *testing.T) {
	d := New(
		Card{Rank: Five, Suit: Hearts},
		Card{Rank: King, Suit: Spades},
	)

	assert.Equal(t, Card{Rank: Five, Suit: Hearts}, d.Draw())
	assert.Equal(t, Card{Rank: King, Suit: Spades}, d.Draw())
	assert.Equal(t, 0, d.Remaining())
}

func TestDrawPastEndPanics(t *testing.T) {
	d := New(Card{Rank: Ace, Suit: Clubs})
	d.Draw()

	assert.Panics(t, func() { d.Draw() })
}

func TestNewShuffledIsFullDeck(t *testing.T) {
	d := NewShuffled(rand.New(rand.NewSource(1)))
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool)
	for d.Remaining() > 0 {
		c := d.Draw()
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	a := NewShuffled(rand.New(rand.NewSource(7)))
	b := NewShuffled(rand.New(rand.NewSource(7)))

	for a.Remaining() > 0 {
		assert.Equal(t, a.Draw(), b.Draw())
	}
}

// Every shuffled deck contains each rank exactly four times and each suit
// exactly thirteen times, regardless of seed.
func TestShuffledCompositionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		d := NewShuffled(rand.New(rand.NewSource(seed)))

		ranks := make(map[Rank]int)
		suits := make(map[Suit]int)
		for d.Remaining() > 0 {
			c := d.Draw()
			ranks[c.Rank]++
			suits[c.Suit]++
		}

		for r := Ace; r <= King; r++ {
			if ranks[r] != 4 {
				t.Fatalf("rank %v appears %d times, want 4", r, ranks[r])
			}
		}
		for s := Clubs; s <= Spades; s++ {
			if suits[s] != 13 {
				t.Fatalf("suit %v appears %d times, want 13", s, suits[s])
			}
		}
	})
}
