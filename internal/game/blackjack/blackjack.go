// Package blackjack implements the blackjack rule engine as a chain of
// immutable turn states.
package blackjack

import (
	"context"
	"fmt"
	"strings"

	"telegram-casino-bot/internal/deck"
	"telegram-casino-bot/internal/game"
)

// Action identifiers for the player turn.
const (
	ActionHit       = "hit"
	ActionStand     = "stand"
	ActionDouble    = "double"
	ActionSurrender = "surrender"
)

// The dealer draws until reaching this score.
const dealerStandsAt = 17

// Score returns the best blackjack total for a hand: aces count 11 while the
// total stays at or under 21, otherwise 1.
func Score(cards []deck.Card) int {
	total := 0
	aces := 0
	for _, c := range cards {
		switch {
		case c.Rank == deck.Ace:
			aces++
			total += 11
		case c.Rank >= deck.Ten:
			total += 10
		default:
			total += int(c.Rank)
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// New deals the opening hands and returns the first turn. A dealt 21 stands
// automatically and goes straight to dealer resolution.
func New(r *game.Round) game.State {
	player := []deck.Card{r.Deck.Draw(), r.Deck.Draw()}
	dealer := []deck.Card{r.Deck.Draw(), r.Deck.Draw()}

	t := &playerTurn{r: r, player: player, dealer: dealer}
	if Score(player) == 21 {
		return t.stand()
	}
	return t
}

// playerTurn is the state in which the player chooses hit, stand, double
// down or surrender.
type playerTurn struct {
	r      *game.Round
	player []deck.Card
	dealer []deck.Card
	hits   int
}

func (t *playerTurn) OnEnter(context.Context) error { return nil }

func (t *playerTurn) UI() game.UI {
	buttons := []game.Button{
		{ActionID: ActionHit, Label: "Hit", Style: game.StylePrimary},
		{ActionID: ActionStand, Label: "Stand", Style: game.StyleSuccess},
	}
	if t.hits == 0 {
		buttons = append(buttons,
			game.Button{ActionID: ActionDouble, Label: "Double Down", Style: game.StyleDanger},
		)
	}
	buttons = append(buttons,
		game.Button{ActionID: ActionSurrender, Label: "Surrender", Style: game.StyleDanger},
	)

	return game.UI{
		Header: "🃏 Blackjack",
		Body: fmt.Sprintf("Your hand: %s (%d)\nDealer shows: %s",
			handString(t.player), Score(t.player), t.dealer[0]),
		Footer:  fmt.Sprintf("Bet: %d", t.r.Bet),
		Buttons: buttons,
	}
}

func (t *playerTurn) Next(actionID string) game.State {
	switch actionID {
	case ActionHit:
		player := appendCard(t.player, t.r.Deck.Draw())
		switch score := Score(player); {
		case score > 21:
			// Busting ends the game immediately, the dealer never plays.
			return &finished{
				r: t.r, player: player, dealer: t.dealer,
				result: game.Result{Outcome: game.DealerWin, Payout: 0},
			}
		case score == 21:
			return (&playerTurn{r: t.r, player: player, dealer: t.dealer, hits: t.hits + 1}).stand()
		default:
			return &playerTurn{r: t.r, player: player, dealer: t.dealer, hits: t.hits + 1}
		}

	case ActionStand:
		return t.stand()

	case ActionDouble:
		if t.hits > 0 {
			return t
		}
		// One card, then a forced stand: the dealer plays out even against
		// a doubled bust, so both sides can bust into a push. Whether the
		// extra stake is coverable is checked when the charge runs, in the
		// terminal state's OnEnter.
		player := appendCard(t.player, t.r.Deck.Draw())
		dealer := resolveDealer(t.r.Deck, t.dealer)
		return &finished{
			r: t.r, player: player, dealer: dealer,
			result:  settle(Score(player), Score(dealer), t.r.Bet*2),
			doubled: true,
		}

	case ActionSurrender:
		return &finished{
			r: t.r, player: t.player, dealer: t.dealer,
			result:      game.Result{Outcome: game.DealerWin, Payout: 0},
			surrendered: true,
		}

	default:
		return t
	}
}

// stand freezes the player's hand, plays out the dealer and settles.
func (t *playerTurn) stand() game.State {
	dealer := resolveDealer(t.r.Deck, t.dealer)
	return &finished{
		r: t.r, player: t.player, dealer: dealer,
		result: settle(Score(t.player), Score(dealer), t.r.Bet),
	}
}

// resolveDealer draws for the dealer until its score reaches 17.
func resolveDealer(d *deck.Deck, dealer []deck.Card) []deck.Card {
	hand := appendCard(dealer)
	for Score(hand) < dealerStandsAt {
		hand = appendCard(hand, d.Draw())
	}
	return hand
}

// settle compares final scores at the given stake. A win pays double the
// stake, a push returns it; a doubled win therefore pays four times the
// original bet.
func settle(playerScore, dealerScore int, stake int64) game.Result {
	switch {
	case playerScore > 21 && dealerScore > 21:
		return game.Result{Outcome: game.Push, Payout: stake}
	case playerScore > 21:
		return game.Result{Outcome: game.DealerWin, Payout: 0}
	case dealerScore > 21:
		return game.Result{Outcome: game.PlayerWin, Payout: stake * 2}
	case playerScore > dealerScore:
		return game.Result{Outcome: game.PlayerWin, Payout: stake * 2}
	case playerScore == dealerScore:
		return game.Result{Outcome: game.Push, Payout: stake}
	default:
		return game.Result{Outcome: game.DealerWin, Payout: 0}
	}
}

// finished is the terminal state offering the replay prompt.
type finished struct {
	r           *game.Round
	player      []deck.Card
	dealer      []deck.Card
	result      game.Result
	doubled     bool
	surrendered bool
}

// OnEnter applies the double-down charge. The session manager refuses the
// transition when the charge fails, so the charge happens at most once; a
// refused double leaves the round on the player turn and the drawn cards
// burn.
func (f *finished) OnEnter(ctx context.Context) error {
	if !f.doubled {
		return nil
	}
	bal, err := f.r.Bank.Balance(ctx, f.r.UserID)
	if err != nil {
		return fmt.Errorf("double-down charge: %w", err)
	}
	if bal < f.r.Bet {
		return game.ErrInsufficientFunds
	}
	if _, err := f.r.Bank.AddCash(ctx, f.r.UserID, -f.r.Bet); err != nil {
		return fmt.Errorf("double-down charge: %w", err)
	}
	return nil
}

func (f *finished) UI() game.UI {
	var verdict string
	switch {
	case f.surrendered:
		verdict = "🏳️ Surrendered."
	case f.result.Outcome == game.PlayerWin:
		verdict = fmt.Sprintf("🎉 You win %d!", f.result.Payout)
	case f.result.Outcome == game.Push:
		verdict = "😐 Push. Your bet is returned."
	default:
		verdict = "😢 Dealer wins."
	}

	return game.UI{
		Header: "🃏 Blackjack",
		Body: fmt.Sprintf("Your hand: %s (%d)\nDealer: %s (%d)\n\n%s",
			handString(f.player), Score(f.player),
			handString(f.dealer), Score(f.dealer), verdict),
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

func handString(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// appendCard copies the hand before appending so states never share slices.
func appendCard(hand []deck.Card, cards ...deck.Card) []deck.Card {
	out := make([]deck.Card, 0, len(hand)+len(cards))
	out = append(out, hand...)
	return append(out, cards...)
}
