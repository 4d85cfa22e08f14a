// Package game defines the state-machine contract every wager game implements
// and the render-agnostic UI projection the chat layer draws from.
package game

import (
	"context"
	"errors"
	"math/rand"

	"telegram-casino-bot/internal/deck"
	"telegram-casino-bot/internal/model"
)

// Action identifiers shared by every game's terminal prompt.
const (
	ActionReplay = "again"
	ActionQuit   = "quit"
)

// ErrInsufficientFunds aborts a transition whose side effect needs more cash
// than the player has (a double-down charge, for example). The session
// manager treats it as an illegal action and keeps the current state.
var ErrInsufficientFunds = errors.New("game: insufficient funds")

// Outcome classifies a finished game.
type Outcome int

const (
	PlayerWin Outcome = iota
	DealerWin
	Push
)

func (o Outcome) String() string {
	switch o {
	case PlayerWin:
		return "player win"
	case DealerWin:
		return "dealer win"
	default:
		return "push"
	}
}

// Result is produced once, when a game reaches a terminal state.
// Payout is the gross amount credited back, never negative.
type Result struct {
	Outcome Outcome
	Payout  int64
}

// ButtonStyle hints how the chat layer should draw a button.
type ButtonStyle int

const (
	StylePrimary ButtonStyle = iota
	StyleSuccess
	StyleDanger
)

// Button describes one legal action in the current state.
type Button struct {
	ActionID string
	Label    string
	Style    ButtonStyle
}

// UI is a pure projection of a state: the chat layer renders it into a
// message, the engine never knows how.
type UI struct {
	Header  string
	Body    string
	Footer  string
	Buttons []Button
}

// Bank is the slice of the economy ledger that game states may touch.
type Bank interface {
	// AddCash adds delta (which may be negative) to the user's balance and
	// returns the new balance.
	AddCash(ctx context.Context, userID int64, delta int64) (int64, error)
	// Balance returns the user's current balance, zero for unknown users.
	Balance(ctx context.Context, userID int64) (int64, error)
}

// Round carries the per-game context shared by all of one game's states.
type Round struct {
	UserID int64
	Bet    int64
	Deck   *deck.Deck
	Rng    *rand.Rand
	Bank   Bank
}

// State is one turn of a game. States are immutable values: Next never
// mutates the receiver, it returns the state to transition to. Returning the
// receiver itself means the action is illegal in context, which callers must
// treat as "no transition".
type State interface {
	// OnEnter runs side effects only (e.g. a double-down charge). It is
	// called once, when the state becomes current, before rendering. An
	// error means the transition must not be committed.
	OnEnter(ctx context.Context) error
	// UI returns the render projection. Pure; stable until the state changes.
	UI() UI
	// Next maps one action identifier to the state to transition to.
	Next(actionID string) State
}

// Finisher is implemented by terminal states. Result is immutable once the
// state exists.
type Finisher interface {
	Result() Result
}

// Quit is the distinguished terminal state: the session manager tears the
// session down when a transition yields it.
type Quit struct{}

func (Quit) OnEnter(context.Context) error { return nil }
func (Quit) UI() UI                        { return UI{} }
func (q Quit) Next(string) State           { return q }

// Replay signals that the player asked for a fresh round; the session
// manager replaces the play record and restarts the cycle.
type Replay struct{}

func (Replay) OnEnter(context.Context) error { return nil }
func (Replay) UI() UI                        { return UI{} }
func (r Replay) Next(string) State           { return r }

// Factory builds the initial state for one game kind.
type Factory func(r *Round) State

// Registry maps game kinds to their initial-state constructors, so no call
// site ever branches on the kind itself.
type Registry struct {
	factories map[model.GameKind]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[model.GameKind]Factory)}
}

// Register adds a constructor for a kind, replacing any previous one.
func (r *Registry) Register(kind model.GameKind, f Factory) error {
	if f == nil {
		return errors.New("game: cannot register nil factory")
	}
	if kind == "" {
		return errors.New("game: kind cannot be empty")
	}
	r.factories[kind] = f
	return nil
}

// New constructs the initial state for the given kind.
func (r *Registry) New(kind model.GameKind, round *Round) (State, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, errors.New("game: unknown kind " + string(kind))
	}
	return f(round), nil
}

// Kinds returns every registered kind.
func (r *Registry) Kinds() []model.GameKind {
	kinds := make([]model.GameKind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}
