// Package ledger provides the single mutation path for player balances.
// Every stake debit, payout credit, and reward flows through it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// Common errors for ledger operations.
var (
	ErrOnCooldown = errors.New("daily reward on cooldown")
)

// Store is the persistence the ledger needs from the account repository.
type Store interface {
	AddCash(ctx context.Context, userID int64, delta int64) (int64, error)
	Get(ctx context.Context, userID int64) (*model.CashAccount, error)
	StampEarned(ctx context.Context, userID int64, earnedAt int64) error
}

// Ledger applies balance changes and answers balance queries.
type Ledger struct {
	store    Store
	reward   int64
	cooldown time.Duration
}

// New creates a Ledger with the given daily reward amount and cooldown.
func New(store Store, reward int64, cooldown time.Duration) *Ledger {
	return &Ledger{store: store, reward: reward, cooldown: cooldown}
}

// AddCash adds delta (possibly negative) to the user's balance and returns
// the resulting balance. Accounts are created on first touch.
func (l *Ledger) AddCash(ctx context.Context, userID int64, delta int64) (int64, error) {
	return l.store.AddCash(ctx, userID, delta)
}

// Balance returns the user's current balance. An unknown user has zero.
func (l *Ledger) Balance(ctx context.Context, userID int64) (int64, error) {
	acc, err := l.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return acc.Cash, nil
}

// ClaimDaily grants the daily reward if the cooldown has elapsed. It
// returns the new balance on success, or ErrOnCooldown with the remaining
// wait otherwise.
func (l *Ledger) ClaimDaily(ctx context.Context, userID int64, now time.Time) (int64, time.Duration, error) {
	acc, err := l.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		return 0, 0, fmt.Errorf("failed to check claim eligibility: %w", err)
	}

	if acc != nil && acc.LastEarnedAt > 0 {
		nextClaim := time.Unix(acc.LastEarnedAt, 0).Add(l.cooldown)
		if now.Before(nextClaim) {
			return 0, nextClaim.Sub(now), ErrOnCooldown
		}
	}

	cash, err := l.AddCash(ctx, userID, l.reward)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to grant daily reward: %w", err)
	}
	if err := l.store.StampEarned(ctx, userID, now.Unix()); err != nil {
		return 0, 0, fmt.Errorf("failed to stamp daily claim: %w", err)
	}

	return cash, 0, nil
}
