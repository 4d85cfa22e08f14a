package blackjack

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"telegram-casino-bot/internal/deck"
	"telegram-casino-bot/internal/game"
)

type fakeBank struct {
	balance int64
}

func (b *fakeBank) AddCash(_ context.Context, _ int64, delta int64) (int64, error) {
	b.balance += delta
	return b.balance, nil
}

func (b *fakeBank) Balance(_ context.Context, _ int64) (int64, error) {
	return b.balance, nil
}

func card(r deck.Rank, s deck.Suit) deck.Card { return deck.Card{Rank: r, Suit: s} }

// round builds a deterministic round: the deck deals player, player, dealer,
// dealer, then whatever extra cards the test queued.
func round(bet int64, bank game.Bank, cards ...deck.Card) *game.Round {
	return &game.Round{
		UserID: 42,
		Bet:    bet,
		Deck:   deck.New(cards...),
		Bank:   bank,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		cards []deck.Card
		want  int
	}{
		{"face cards count ten", []deck.Card{card(deck.King, deck.Clubs), card(deck.Queen, deck.Hearts)}, 20},
		{"ace counts eleven", []deck.Card{card(deck.Ace, deck.Spades), card(deck.Nine, deck.Clubs)}, 20},
		{"ace drops to one past 21", []deck.Card{card(deck.Ace, deck.Spades), card(deck.Nine, deck.Clubs), card(deck.Five, deck.Hearts)}, 15},
		{"two aces", []deck.Card{card(deck.Ace, deck.Spades), card(deck.Ace, deck.Hearts)}, 12},
		{"blackjack", []deck.Card{card(deck.Ace, deck.Spades), card(deck.King, deck.Hearts)}, 21},
		{"soft recomputes as cards arrive", []deck.Card{card(deck.Ace, deck.Spades), card(deck.Ace, deck.Hearts), card(deck.Nine, deck.Clubs)}, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.cards))
		})
	}
}

func TestStandTwentyBeatsDealerEighteen(t *testing.T) {
	r := round(10, &fakeBank{},
		card(deck.Ten, deck.Clubs), card(deck.Queen, deck.Hearts), // player 20
		card(deck.Ten, deck.Diamonds), card(deck.Eight, deck.Spades), // dealer 18
	)

	st := New(r).Next(ActionStand)

	f, ok := st.(game.Finisher)
	require.True(t, ok)
	assert.Equal(t, game.PlayerWin, f.Result().Outcome)
	assert.Equal(t, int64(20), f.Result().Payout)
}

func TestBothBustIsPush(t *testing.T) {
	res := settle(22, 23, 10)
	assert.Equal(t, game.Push, res.Outcome)
	assert.Equal(t, int64(10), res.Payout)
}

func TestHitBustEndsImmediately(t *testing.T) {
	r := round(10, &fakeBank{},
		card(deck.Ten, deck.Clubs), card(deck.Six, deck.Diamonds), // player 16
		card(deck.Two, deck.Hearts), card(deck.Three, deck.Spades), // dealer 5
		card(deck.King, deck.Hearts), // bust card
	)

	st := New(r).Next(ActionHit)

	f, ok := st.(*finished)
	require.True(t, ok)
	assert.Equal(t, game.DealerWin, f.result.Outcome)
	assert.Equal(t, int64(0), f.result.Payout)
	// Dealer never played.
	assert.Len(t, f.dealer, 2)
}

func TestDealtTwentyOneStandsAutomatically(t *testing.T) {
	r := round(10, &fakeBank{},
		card(deck.Ace, deck.Spades), card(deck.King, deck.Hearts), // player 21
		card(deck.Ten, deck.Diamonds), card(deck.Seven, deck.Clubs), // dealer 17
	)

	st := New(r)

	f, ok := st.(game.Finisher)
	require.True(t, ok, "dealt 21 should resolve without a player turn")
	assert.Equal(t, game.PlayerWin, f.Result().Outcome)
	assert.Equal(t, int64(20), f.Result().Payout)
}

func TestDealerDrawsToSeventeen(t *testing.T) {
	r := round(10, &fakeBank{},
		card(deck.Ten, deck.Clubs), card(deck.Nine, deck.Hearts), // player 19
		card(deck.Two, deck.Hearts), card(deck.Five, deck.Diamonds), // dealer 7
		card(deck.Six, deck.Clubs),  // dealer 13
		card(deck.Four, deck.Clubs), // dealer 17, stands
	)

	st := New(r).Next(ActionStand)

	f, ok := st.(*finished)
	require.True(t, ok)
	assert.Equal(t, 17, Score(f.dealer))
	assert.Equal(t, game.PlayerWin, f.result.Outcome)
}

func TestDoubleDownWinPaysFourTimesBet(t *testing.T) {
	bank := &fakeBank{balance: 100}
	r := round(10, bank,
		card(deck.Six, deck.Clubs), card(deck.Five, deck.Diamonds), // player 11
		card(deck.Ten, deck.Spades), card(deck.Nine, deck.Clubs), // dealer 19
		card(deck.Ten, deck.Hearts), // double card, player 21
	)

	st := New(r).Next(ActionDouble)

	f, ok := st.(*finished)
	require.True(t, ok)
	require.NoError(t, f.OnEnter(context.Background()))

	assert.Equal(t, game.PlayerWin, f.result.Outcome)
	assert.Equal(t, int64(40), f.result.Payout)
	// OnEnter charged the extra stake.
	assert.Equal(t, int64(90), bank.balance)
}

func TestDoubleDownIllegalAfterHit(t *testing.T) {
	bank := &fakeBank{balance: 100}
	r := round(10, bank,
		card(deck.Two, deck.Clubs), card(deck.Three, deck.Diamonds), // player 5
		card(deck.Ten, deck.Spades), card(deck.Nine, deck.Clubs),
		card(deck.Four, deck.Hearts), // hit, player 9
	)

	st := New(r).Next(ActionHit)
	assert.Same(t, st, st.Next(ActionDouble))
}

func TestDoubleDownNeedsCoverage(t *testing.T) {
	bank := &fakeBank{balance: 5} // cannot cover another 10
	r := round(10, bank,
		card(deck.Six, deck.Clubs), card(deck.Five, deck.Diamonds),
		card(deck.Ten, deck.Spades), card(deck.Nine, deck.Clubs),
		card(deck.Ten, deck.Hearts), // double card
	)

	st := New(r).Next(ActionDouble)

	f, ok := st.(*finished)
	require.True(t, ok)
	assert.ErrorIs(t, f.OnEnter(context.Background()), game.ErrInsufficientFunds)
	assert.Equal(t, int64(5), bank.balance, "refused charge moves no money")
}

func TestSurrenderForfeitsBet(t *testing.T) {
	r := round(10, &fakeBank{},
		card(deck.Ten, deck.Clubs), card(deck.Six, deck.Diamonds),
		card(deck.Ace, deck.Spades), card(deck.King, deck.Clubs),
	)

	st := New(r).Next(ActionSurrender)

	f, ok := st.(game.Finisher)
	require.True(t, ok)
	assert.Equal(t, game.DealerWin, f.Result().Outcome)
	assert.Equal(t, int64(0), f.Result().Payout)
}

func TestUnknownActionIsNoTransition(t *testing.T) {
	r := round(10, &fakeBank{},
		card(deck.Two, deck.Clubs), card(deck.Three, deck.Diamonds),
		card(deck.Ten, deck.Spades), card(deck.Nine, deck.Clubs),
	)

	st := New(r)
	assert.Same(t, st, st.Next("split"))
}

func TestTerminalPromptTransitions(t *testing.T) {
	r := round(10, &fakeBank{},
		card(deck.Ten, deck.Clubs), card(deck.Queen, deck.Hearts),
		card(deck.Ten, deck.Diamonds), card(deck.Eight, deck.Spades),
	)

	st := New(r).Next(ActionStand)

	assert.IsType(t, game.Replay{}, st.Next(game.ActionReplay))
	assert.IsType(t, game.Quit{}, st.Next(game.ActionQuit))
	assert.Same(t, st, st.Next(ActionHit))
}

// For any completed game, payout is one of {0, bet, 2×bet, 4×bet} and is
// consistent with the outcome and whether a double down occurred.
func TestPayoutScheduleProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		bet := rapid.Int64Range(1, 1000).Draw(t, "bet")

		bank := &fakeBank{balance: bet * 10}
		r := &game.Round{
			UserID: 1,
			Bet:    bet,
			Deck:   deck.NewShuffled(rand.New(rand.NewSource(seed))),
			Bank:   bank,
		}

		st := New(r)
		for i := 0; i < 30; i++ {
			if _, done := st.(game.Finisher); done {
				break
			}
			action := rapid.SampledFrom([]string{ActionHit, ActionStand, ActionDouble, ActionSurrender}).Draw(t, "action")
			next := st.Next(action)
			if next == st {
				// Illegal pick; hitting always advances, and enough hits bust.
				next = st.Next(ActionHit)
			}
			st = next
		}
		f, ok := st.(*finished)
		if !ok {
			t.Fatalf("game did not terminate: %T", st)
		}

		payout := f.result.Payout
		switch f.result.Outcome {
		case game.DealerWin:
			if payout != 0 {
				t.Fatalf("dealer win must pay 0, got %d", payout)
			}
		case game.Push:
			want := bet
			if f.doubled {
				want = 2 * bet
			}
			if payout != want {
				t.Fatalf("push must return the stake %d, got %d", want, payout)
			}
		case game.PlayerWin:
			want := 2 * bet
			if f.doubled {
				want = 4 * bet
			}
			if payout != want {
				t.Fatalf("win must pay %d, got %d", want, payout)
			}
		}
	})
}
