// Package highlow implements the high-low streak game. The player predicts
// whether the next card ranks above or below the current one; each correct
// guess grows the guaranteed payout, one wrong guess forfeits the stake.
package highlow

import (
	"context"
	"fmt"

	"telegram-casino-bot/internal/deck"
	"telegram-casino-bot/internal/game"
)

// Action identifiers for a guess turn.
const (
	ActionHigh    = "high"
	ActionLow     = "low"
	ActionCashOut = "cashout"
)

// Config tunes the payout curve. Winnings grow by GrowthNum/GrowthDen per
// streak step (with a floor of +1 so the curve stays strictly increasing),
// and MaxStreak caps the run with a forced cash-out.
//
// The exact growth factor is a product knob; the engine only requires that
// it is strictly increasing.
type Config struct {
	GrowthNum int64
	GrowthDen int64
	MaxStreak int
}

// DefaultConfig grows winnings by half per step and caps runs at ten.
func DefaultConfig() Config {
	return Config{GrowthNum: 3, GrowthDen: 2, MaxStreak: 10}
}

// Payout returns the guaranteed winnings for a bet at the given streak.
// Payout(bet, 0) == bet, and the value strictly increases with the streak.
func (c Config) Payout(bet int64, streak int) int64 {
	p := bet
	for i := 0; i < streak; i++ {
		q := p * c.GrowthNum / c.GrowthDen
		if q <= p {
			q = p + 1
		}
		p = q
	}
	return p
}

// New returns the initial-state constructor for the given config.
func New(cfg Config) game.Factory {
	return func(r *game.Round) game.State {
		return &guessTurn{r: r, cfg: cfg, current: r.Deck.Draw()}
	}
}

// guessTurn holds the current card and the streak so far. Aces rank low.
type guessTurn struct {
	r       *game.Round
	cfg     Config
	current deck.Card
	streak  int
}

func (t *guessTurn) OnEnter(context.Context) error { return nil }

func (t *guessTurn) UI() game.UI {
	return game.UI{
		Header: "🔼🔽 High-Low",
		Body: fmt.Sprintf("Current card: %s\nStreak: %d\nBanked: %d, next correct guess: %d",
			t.current, t.streak,
			t.cfg.Payout(t.r.Bet, t.streak),
			t.cfg.Payout(t.r.Bet, t.streak+1)),
		Footer: fmt.Sprintf("Bet: %d", t.r.Bet),
		Buttons: []game.Button{
			{ActionID: ActionHigh, Label: "Higher", Style: game.StylePrimary},
			{ActionID: ActionLow, Label: "Lower", Style: game.StylePrimary},
			{ActionID: ActionCashOut, Label: "Cash out", Style: game.StyleSuccess},
		},
	}
}

func (t *guessTurn) Next(actionID string) game.State {
	switch actionID {
	case ActionHigh, ActionLow:
		drawn := t.r.Deck.Draw()
		if drawn.Rank == t.current.Rank {
			// Tie: the draw is void. Same card, same streak, no turn spent.
			return t
		}

		correct := drawn.Rank > t.current.Rank
		if actionID == ActionLow {
			correct = !correct
		}
		if !correct {
			return &finished{
				bet: t.r.Bet, last: drawn, streak: t.streak,
				result: game.Result{Outcome: game.DealerWin, Payout: 0},
			}
		}

		streak := t.streak + 1
		if streak >= t.cfg.MaxStreak {
			// Cap reached: automatic cash-out.
			return &finished{
				bet: t.r.Bet, last: drawn, streak: streak, capped: true,
				result: game.Result{Outcome: game.PlayerWin, Payout: t.cfg.Payout(t.r.Bet, streak)},
			}
		}
		return &guessTurn{r: t.r, cfg: t.cfg, current: drawn, streak: streak}

	case ActionCashOut:
		if t.streak == 0 {
			// Nothing risked yet: the stake comes straight back.
			return &finished{
				bet: t.r.Bet, last: t.current,
				result: game.Result{Outcome: game.Push, Payout: t.r.Bet},
			}
		}
		return &finished{
			bet: t.r.Bet, last: t.current, streak: t.streak,
			result: game.Result{Outcome: game.PlayerWin, Payout: t.cfg.Payout(t.r.Bet, t.streak)},
		}

	default:
		return t
	}
}

// finished is the terminal state offering the replay prompt.
type finished struct {
	bet    int64
	last   deck.Card
	streak int
	capped bool
	result game.Result
}

func (f *finished) OnEnter(context.Context) error { return nil }

func (f *finished) UI() game.UI {
	var verdict string
	switch f.result.Outcome {
	case game.PlayerWin:
		if f.capped {
			verdict = fmt.Sprintf("🏆 Max streak! Cashed out %d.", f.result.Payout)
		} else {
			verdict = fmt.Sprintf("🎉 Cashed out %d after a streak of %d.", f.result.Payout, f.streak)
		}
	case game.Push:
		verdict = "😐 Cashed out before guessing. Bet returned."
	default:
		verdict = fmt.Sprintf("😢 Wrong! The card was %s. Streak of %d lost.", f.last, f.streak)
	}

	return game.UI{
		Header: "🔼🔽 High-Low",
		Body:   verdict,
		Footer: "Play again?",
		Buttons: []game.Button{
			{ActionID: game.ActionReplay, Label: "Play again", Style: game.StyleSuccess},
			{ActionID: game.ActionQuit, Label: "Quit", Style: game.StyleDanger},
		},
	}
}

func (f *finished) Next(actionID string) game.State {
	switch actionID {
	case game.ActionReplay:
		return game.Replay{}
	case game.ActionQuit:
		return game.Quit{}
	default:
		return f
	}
}

func (f *finished) Result() game.Result { return f.result }
