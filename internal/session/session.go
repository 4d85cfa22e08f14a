// Package session manages the lifetime of wager rounds: escrowing stakes,
// driving game state machines from button events, settling payouts, and
// reconciling in-memory sessions with the durable play records.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-casino-bot/internal/deck"
	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/pkg/lock"
	"telegram-casino-bot/internal/pkg/timer"
)

// ErrMessageGone signals that the chat message backing a session no longer
// exists. Renderer implementations map their platform error onto it.
var ErrMessageGone = errors.New("message gone")

// PlayStore is the durable record of wager rounds.
type PlayStore interface {
	Insert(ctx context.Context, userID int64, kind model.GameKind, ref model.MessageRef, bet int64) (*model.Play, error)
	MarkStarted(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]*model.Play, error)
}

// TallyStore records per-game win/loss counters.
type TallyStore interface {
	Record(ctx context.Context, userID int64, kind model.GameKind, won bool) error
}

// Renderer paints game UIs onto chat messages.
type Renderer interface {
	// Render replaces the message content with the given UI.
	Render(ctx context.Context, ref model.MessageRef, ui game.UI) error
	// Close strips the buttons and leaves a final text on the message.
	Close(ctx context.Context, ref model.MessageRef, text string) error
	// Exists reports whether the message is still present in the chat.
	Exists(ctx context.Context, ref model.MessageRef) (bool, error)
}

// Event is one button press routed to a session.
type Event struct {
	Ref      model.MessageRef
	UserID   int64
	ActionID string
}

// Config tunes session lifecycle behaviour.
type Config struct {
	SweepInterval time.Duration
	ReplayTimeout time.Duration
	FallbackBet   int64
}

// session is the in-memory state of one active round.
type session struct {
	play    *model.Play
	state   game.State
	settled bool
	expiry  timer.Timer
	gen     uint64
}

// Manager owns all active sessions. All mutation of a session happens while
// holding the per-ref guard lock, so each message processes at most one
// event at a time.
type Manager struct {
	plays    PlayStore
	tallies  TallyStore
	bank     game.Bank
	registry *game.Registry
	renderer Renderer
	clock    timer.Clock
	cfg      Config

	// newRound builds the round context for a play. Overridable in tests
	// to pin decks and rngs.
	newRound func(play *model.Play) *game.Round

	guard    *lock.Keyed[model.MessageRef]
	sessions sync.Map // model.MessageRef -> *session
}

// NewManager wires a Manager from its collaborators.
func NewManager(
	plays PlayStore,
	tallies TallyStore,
	bank game.Bank,
	registry *game.Registry,
	renderer Renderer,
	clock timer.Clock,
	cfg Config,
) *Manager {
	m := &Manager{
		plays:    plays,
		tallies:  tallies,
		bank:     bank,
		registry: registry,
		renderer: renderer,
		clock:    clock,
		cfg:      cfg,
		guard:    lock.NewKeyed[model.MessageRef](),
	}
	m.newRound = func(play *model.Play) *game.Round {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		return &game.Round{
			UserID: play.UserID,
			Bet:    play.Bet,
			Deck:   deck.NewShuffled(rng),
			Rng:    rng,
			Bank:   bank,
		}
	}
	return m
}

// Run sweeps on the configured interval until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep reconciles in-memory sessions with the durable play records. It
// activates freshly inserted plays (escrowing their stakes), rebuilds
// sessions for started plays after a restart, and drops sessions whose
// play record has vanished.
func (m *Manager) Sweep(ctx context.Context) {
	plays, err := m.plays.FindAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Sweep: failed to list plays")
		return
	}

	live := make(map[model.MessageRef]bool, len(plays))
	for _, play := range plays {
		live[play.Ref()] = true
		m.activate(ctx, play)
	}

	// Sessions without a backing play are stale. This happens when a play
	// is removed out of band, the session must not linger.
	m.sessions.Range(func(key, value any) bool {
		ref := key.(model.MessageRef)
		if live[ref] {
			return true
		}
		if !m.guard.TryLock(ref) {
			return true
		}
		defer m.guard.Unlock(ref)
		if sess, ok := m.sessions.Load(ref); ok && !live[sess.(*session).play.Ref()] {
			m.dropSession(ref, sess.(*session))
			log.Warn().Int64("chat_id", ref.ChatID).Int64("message_id", ref.MessageID).
				Msg("Sweep: dropped session with no backing play")
		}
		return true
	})
}

// activate brings one play into memory if it is not already active.
func (m *Manager) activate(ctx context.Context, play *model.Play) {
	ref := play.Ref()
	if _, ok := m.sessions.Load(ref); ok {
		return
	}
	if !m.guard.TryLock(ref) {
		return
	}
	defer m.guard.Unlock(ref)
	if _, ok := m.sessions.Load(ref); ok {
		return
	}

	// Verify the message still exists before going further. A deleted
	// message means nobody can ever act on this round, whether it was about
	// to start or was interrupted mid-game.
	exists, err := m.renderer.Exists(ctx, ref)
	if err != nil {
		log.Error().Err(err).Str("play_id", play.ID).Msg("Sweep: failed to check message")
		return
	}
	if !exists {
		if err := m.plays.Delete(ctx, play.ID); err != nil {
			log.Error().Err(err).Str("play_id", play.ID).Msg("Sweep: failed to delete orphaned play")
		}
		return
	}

	if play.Started {
		// Restart recovery. The stake was already escrowed, so the round
		// restarts from a fresh initial state without touching the balance.
		if err := m.install(ctx, play); err != nil {
			log.Error().Err(err).Str("play_id", play.ID).Msg("Sweep: failed to recover session")
		}
		return
	}

	// Escrow before flagging: the stake leaves the wallet first, and only
	// then is the play marked started. A crash in between leaves a
	// started=false play and a debited wallet at worst for the refund
	// path below, never a started play without escrow.
	if _, err := m.bank.AddCash(ctx, play.UserID, -play.Bet); err != nil {
		log.Error().Err(err).Str("play_id", play.ID).Msg("Sweep: failed to escrow stake")
		return
	}
	if err := m.plays.MarkStarted(ctx, play.ID); err != nil {
		if _, refundErr := m.bank.AddCash(ctx, play.UserID, play.Bet); refundErr != nil {
			log.Error().Err(refundErr).Str("play_id", play.ID).Msg("Sweep: failed to refund stake")
		}
		log.Error().Err(err).Str("play_id", play.ID).Msg("Sweep: failed to mark play started")
		return
	}
	play.Started = true

	if err := m.install(ctx, play); err != nil {
		log.Error().Err(err).Str("play_id", play.ID).Msg("Sweep: failed to start session")
	}
}

// install builds the initial state for a play, registers the session, and
// renders the first UI.
func (m *Manager) install(ctx context.Context, play *model.Play) error {
	state, err := m.registry.New(play.Kind, m.newRound(play))
	if err != nil {
		return err
	}
	if err := state.OnEnter(ctx); err != nil {
		return fmt.Errorf("enter initial state: %w", err)
	}

	sess := &session{play: play, state: state}
	m.sessions.Store(play.Ref(), sess)

	if fin, ok := state.(game.Finisher); ok {
		// Some rounds resolve on the deal (a dealt blackjack). If the payout
		// cannot be credited the session is dropped so the next sweep deals
		// and settles again.
		if err := m.settle(ctx, sess, fin); err != nil {
			m.sessions.Delete(play.Ref())
			return err
		}
	}

	if err := m.renderer.Render(ctx, play.Ref(), state.UI()); err != nil {
		if errors.Is(err, ErrMessageGone) {
			return m.teardown(ctx, play.Ref(), sess)
		}
		log.Error().Err(err).Str("play_id", play.ID).Msg("failed to render initial state")
	}
	return nil
}

// HandleAction processes one button press. Duplicate in-flight events for
// the same message are dropped, and events from anyone but the play's owner
// are ignored.
func (m *Manager) HandleAction(ctx context.Context, ev Event) error {
	if !m.guard.TryLock(ev.Ref) {
		return nil
	}
	defer m.guard.Unlock(ev.Ref)

	value, ok := m.sessions.Load(ev.Ref)
	if !ok {
		return nil
	}
	sess := value.(*session)

	if ev.UserID != sess.play.UserID {
		return nil
	}

	// An earlier settle failure left the terminal state committed with the
	// payout still owed. Any charge in its OnEnter already happened, so the
	// state is never re-entered: only the payout is retried here.
	if fin, ok := sess.state.(game.Finisher); ok && !sess.settled {
		if err := m.settle(ctx, sess, fin); err != nil {
			return err
		}
		if err := m.renderer.Render(ctx, ev.Ref, sess.state.UI()); err != nil {
			if errors.Is(err, ErrMessageGone) {
				return m.teardown(ctx, ev.Ref, sess)
			}
			log.Error().Err(err).Str("play_id", sess.play.ID).Msg("failed to render state")
		}
		return nil
	}

	next := sess.state.Next(ev.ActionID)

	switch next.(type) {
	case game.Quit:
		return m.quit(ctx, ev.Ref, sess)
	case game.Replay:
		return m.replay(ctx, ev.Ref, sess)
	}

	if next == sess.state {
		log.Debug().
			Str("play_id", sess.play.ID).
			Str("action", ev.ActionID).
			Msg("ignoring illegal action")
		return nil
	}

	// OnEnter may move money (a double-down charge). A failure means the
	// transition did not happen, the session stays on the old state and the
	// same action can be retried.
	if err := next.OnEnter(ctx); err != nil {
		if errors.Is(err, game.ErrInsufficientFunds) {
			return nil
		}
		return fmt.Errorf("enter state: %w", err)
	}

	sess.state = next
	if fin, ok := next.(game.Finisher); ok && !sess.settled {
		if err := m.settle(ctx, sess, fin); err != nil {
			// The terminal state stays committed: its OnEnter may have
			// moved money, so re-running it would double the charge. The
			// next press retries only the payout.
			return err
		}
	}

	if err := m.renderer.Render(ctx, ev.Ref, sess.state.UI()); err != nil {
		if errors.Is(err, ErrMessageGone) {
			return m.teardown(ctx, ev.Ref, sess)
		}
		log.Error().Err(err).Str("play_id", sess.play.ID).Msg("failed to render state")
	}
	return nil
}

// settle credits the payout and records the tally exactly once, then arms
// the replay-prompt expiry.
func (m *Manager) settle(ctx context.Context, sess *session, fin game.Finisher) error {
	res := fin.Result()
	if res.Payout > 0 {
		if _, err := m.bank.AddCash(ctx, sess.play.UserID, res.Payout); err != nil {
			return fmt.Errorf("credit payout: %w", err)
		}
	}
	sess.settled = true

	if res.Outcome != game.Push {
		won := res.Outcome == game.PlayerWin
		if err := m.tallies.Record(ctx, sess.play.UserID, sess.play.Kind, won); err != nil {
			log.Error().Err(err).Str("play_id", sess.play.ID).Msg("failed to record tally")
		}
	}

	log.Info().
		Str("play_id", sess.play.ID).
		Str("kind", string(sess.play.Kind)).
		Int64("user_id", sess.play.UserID).
		Int64("bet", sess.play.Bet).
		Int64("payout", res.Payout).
		Str("outcome", res.Outcome.String()).
		Msg("round settled")

	m.armExpiry(sess)
	return nil
}

// armExpiry schedules teardown of an idle finished round. The generation
// token keeps a stale timer from tearing down a replayed session.
func (m *Manager) armExpiry(sess *session) {
	sess.gen++
	gen := sess.gen
	ref := sess.play.Ref()
	sess.expiry = m.clock.AfterFunc(m.cfg.ReplayTimeout, func() {
		m.expire(ref, sess, gen)
	})
}

func (m *Manager) cancelExpiry(sess *session) {
	sess.gen++
	if sess.expiry != nil {
		sess.expiry.Stop()
		sess.expiry = nil
	}
}

// expire tears down a finished round whose replay prompt timed out. The
// session identity and generation are both checked so a stale timer never
// touches a replayed round.
func (m *Manager) expire(ref model.MessageRef, armed *session, gen uint64) {
	m.guard.Lock(ref)
	defer m.guard.Unlock(ref)

	value, ok := m.sessions.Load(ref)
	if !ok {
		return
	}
	sess := value.(*session)
	if sess != armed || sess.gen != gen {
		return
	}

	ctx := context.Background()
	if err := m.teardown(ctx, ref, sess); err != nil {
		log.Error().Err(err).Str("play_id", sess.play.ID).Msg("failed to expire session")
	}
}

// quit ends the round at the player's request.
func (m *Manager) quit(ctx context.Context, ref model.MessageRef, sess *session) error {
	return m.teardown(ctx, ref, sess)
}

// replay starts a fresh round on the same message. The bet carries over
// when the balance still covers it, otherwise it drops to the fallback.
func (m *Manager) replay(ctx context.Context, ref model.MessageRef, sess *session) error {
	m.cancelExpiry(sess)

	bet := sess.play.Bet
	balance, err := m.bank.Balance(ctx, sess.play.UserID)
	if err != nil {
		return fmt.Errorf("check balance for replay: %w", err)
	}
	if balance < bet {
		bet = m.cfg.FallbackBet
	}

	if err := m.plays.Delete(ctx, sess.play.ID); err != nil {
		return fmt.Errorf("delete finished play: %w", err)
	}
	m.sessions.Delete(ref)

	if _, err := m.plays.Insert(ctx, sess.play.UserID, sess.play.Kind, ref, bet); err != nil {
		return fmt.Errorf("insert replay play: %w", err)
	}

	// The next sweep escrows the new stake and deals the round.
	return nil
}

// teardown removes the session and its play record and closes the message.
func (m *Manager) teardown(ctx context.Context, ref model.MessageRef, sess *session) error {
	m.dropSession(ref, sess)

	if err := m.plays.Delete(ctx, sess.play.ID); err != nil {
		return fmt.Errorf("delete play: %w", err)
	}
	if err := m.renderer.Close(ctx, ref, "Round over. Start a new game any time."); err != nil && !errors.Is(err, ErrMessageGone) {
		log.Error().Err(err).Str("play_id", sess.play.ID).Msg("failed to close message")
	}
	return nil
}

func (m *Manager) dropSession(ref model.MessageRef, sess *session) {
	m.cancelExpiry(sess)
	m.sessions.Delete(ref)
}
