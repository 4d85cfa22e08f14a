// Package dicegame implements the single-round dice duel: the player and the
// dealer each roll one die, the higher roll wins.
package dicegame

import (
	"context"
	"fmt"

	"telegram-casino-bot/internal/game"
)

// ActionRoll starts the roll-off.
const ActionRoll = "roll"

// New returns the initial-state constructor.
func New() game.Factory {
	return func(r *game.Round) game.State {
		return &ready{r: r}
	}
}

// ready waits for the player to roll.
type ready struct {
	r *game.Round
}

func (s *ready) OnEnter(context.Context) error { return nil }

func (s *ready) UI() game.UI {
	return game.UI{
		Header: "🎲 Dice",
		Body:   "Roll against the dealer. Higher die wins, tie pushes.",
		Footer: fmt.Sprintf("Bet: %d", s.r.Bet),
		Buttons: []game.Button{
			{ActionID: ActionRoll, Label: "Roll", Style: game.StylePrimary},
		},
	}
}

func (s *ready) Next(actionID string) game.State {
	if actionID != ActionRoll {
		return s
	}
	player := s.r.Rng.Intn(6) + 1
	dealer := s.r.Rng.Intn(6) + 1
	return &finished{
		bet: s.r.Bet, player: player, dealer: dealer,
		result: Settle(player, dealer, s.r.Bet),
	}
}

// Settle maps the two rolls to an outcome: win pays double, tie returns the
// stake, loss pays nothing.
func Settle(playerRoll, dealerRoll int, bet int64) game.Result {
	switch {
	case playerRoll > dealerRoll:
		return game.Result{Outcome: game.PlayerWin, Payout: 2 * bet}
	case playerRoll == dealerRoll:
		return game.Result{Outcome: game.Push, Payout: bet}
	default:
		return game.Result{Outcome: game.DealerWin, Payout: 0}
	}
}

// finished is the terminal state offering the replay prompt.
type finished struct {
	bet    int64
	player int
	dealer int
	result game.Result
}

func (f *finished) OnEnter(context.Context) error { return nil }

func (f *finished) UI() game.UI {
	var verdict string
	switch f.result.Outcome {
	case game.PlayerWin:
		verdict = fmt.Sprintf("🎉 You win %d!", f.result.Payout)
	case game.Push:
		verdict = "😐 Push. Your bet is returned."
	default:
		verdict = "😢 Dealer wins."
	}

	return game.UI{
		Header: "🎲 Dice",
		Body:   fmt.Sprintf("You rolled %d, dealer rolled %d.\n\n%s", f.player, f.dealer, verdict),
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
