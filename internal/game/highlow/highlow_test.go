package highlow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"telegram-casino-bot/internal/deck"
	"telegram-casino-bot/internal/game"
)

func card(r deck.Rank, s deck.Suit) deck.Card { return deck.Card{Rank: r, Suit: s} }

func round(bet int64, cards ...deck.Card) *game.Round {
	return &game.Round{UserID: 42, Bet: bet, Deck: deck.New(cards...)}
}

func TestFirstCorrectGuessIncrementsStreak(t *testing.T) {
	// Current card 5, drawn card 7, guess "high".
	r := round(10, card(deck.Five, deck.Hearts), card(deck.Seven, deck.Clubs))

	st := New(DefaultConfig())(r).Next(ActionHigh)

	turn, ok := st.(*guessTurn)
	require.True(t, ok, "correct guess should continue the run")
	assert.Equal(t, 1, turn.streak)
	assert.Equal(t, card(deck.Seven, deck.Clubs), turn.current)
}

func TestTieIsVoid(t *testing.T) {
	r := round(10, card(deck.Five, deck.Hearts), card(deck.Five, deck.Spades), card(deck.Nine, deck.Clubs))

	st := New(DefaultConfig())(r)
	after := st.Next(ActionHigh)

	// Same state: streak and current card unchanged, no turn consumed.
	require.Same(t, st, after)
	turn := after.(*guessTurn)
	assert.Equal(t, 0, turn.streak)
	assert.Equal(t, card(deck.Five, deck.Hearts), turn.current)

	// The next guess runs against the same current card.
	next := after.Next(ActionHigh).(*guessTurn)
	assert.Equal(t, 1, next.streak)
}

func TestWrongGuessForfeitsStake(t *testing.T) {
	r := round(10, card(deck.Five, deck.Hearts), card(deck.Two, deck.Clubs))

	st := New(DefaultConfig())(r).Next(ActionHigh)

	f, ok := st.(game.Finisher)
	require.True(t, ok)
	assert.Equal(t, game.DealerWin, f.Result().Outcome)
	assert.Equal(t, int64(0), f.Result().Payout)
}

func TestLowGuess(t *testing.T) {
	r := round(10, card(deck.Queen, deck.Hearts), card(deck.Three, deck.Clubs))

	st := New(DefaultConfig())(r).Next(ActionLow)

	turn, ok := st.(*guessTurn)
	require.True(t, ok)
	assert.Equal(t, 1, turn.streak)
}

func TestCashOutAtZeroStreakIsPush(t *testing.T) {
	r := round(10, card(deck.Five, deck.Hearts))

	st := New(DefaultConfig())(r).Next(ActionCashOut)

	f, ok := st.(game.Finisher)
	require.True(t, ok)
	assert.Equal(t, game.Push, f.Result().Outcome)
	assert.Equal(t, int64(10), f.Result().Payout)
}

func TestCashOutBanksCurrentPayout(t *testing.T) {
	cfg := DefaultConfig()
	r := round(100,
		card(deck.Two, deck.Hearts),
		card(deck.Five, deck.Clubs),
		card(deck.Nine, deck.Diamonds),
	)

	st := New(cfg)(r).Next(ActionHigh).Next(ActionHigh).Next(ActionCashOut)

	f, ok := st.(game.Finisher)
	require.True(t, ok)
	assert.Equal(t, game.PlayerWin, f.Result().Outcome)
	assert.Equal(t, cfg.Payout(100, 2), f.Result().Payout)
}

func TestMaxStreakForcesCashOut(t *testing.T) {
	cfg := Config{GrowthNum: 3, GrowthDen: 2, MaxStreak: 2}
	r := round(10,
		card(deck.Two, deck.Hearts),
		card(deck.Five, deck.Clubs),
		card(deck.Nine, deck.Diamonds),
	)

	st := New(cfg)(r).Next(ActionHigh).Next(ActionHigh)

	f, ok := st.(*finished)
	require.True(t, ok, "hitting the cap should cash out automatically")
	assert.True(t, f.capped)
	assert.Equal(t, game.PlayerWin, f.result.Outcome)
	assert.Equal(t, cfg.Payout(10, 2), f.result.Payout)
}

func TestPayoutCurve(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, int64(10), cfg.Payout(10, 0))
	assert.Equal(t, int64(15), cfg.Payout(10, 1))
	assert.Equal(t, int64(22), cfg.Payout(10, 2))
	assert.Equal(t, int64(33), cfg.Payout(10, 3))
}

// The payout curve is strictly increasing in the streak for any growth
// factor and bet, including degenerate small bets.
func TestPayoutCurveStrictlyIncreasingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := Config{
			GrowthNum: rapid.Int64Range(1, 10).Draw(t, "num"),
			GrowthDen: rapid.Int64Range(1, 10).Draw(t, "den"),
			MaxStreak: 10,
		}
		bet := rapid.Int64Range(1, 10000).Draw(t, "bet")

		prev := cfg.Payout(bet, 0)
		if prev != bet {
			t.Fatalf("Payout(bet, 0) = %d, want %d", prev, bet)
		}
		for streak := 1; streak <= 12; streak++ {
			p := cfg.Payout(bet, streak)
			if p <= prev {
				t.Fatalf("curve not strictly increasing at streak %d: %d -> %d", streak, prev, p)
			}
			prev = p
		}
	})
}
