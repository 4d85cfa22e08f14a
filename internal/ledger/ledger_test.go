package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// fakeStore is an in-memory Store for testing ledger logic without Postgres.
type fakeStore struct {
	accounts map[int64]*model.CashAccount
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[int64]*model.CashAccount)}
}

func (s *fakeStore) AddCash(_ context.Context, userID int64, delta int64) (int64, error) {
	acc, ok := s.accounts[userID]
	if !ok {
		acc = &model.CashAccount{UserID: userID}
		s.accounts[userID] = acc
	}
	acc.Cash += delta
	return acc.Cash, nil
}

func (s *fakeStore) Get(_ context.Context, userID int64) (*model.CashAccount, error) {
	acc, ok := s.accounts[userID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return acc, nil
}

func (s *fakeStore) StampEarned(_ context.Context, userID int64, earnedAt int64) error {
	acc, ok := s.accounts[userID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	acc.LastEarnedAt = earnedAt
	return nil
}

func TestBalanceUnknownUserIsZero(t *testing.T) {
	l := New(newFakeStore(), 500, 24*time.Hour)

	cash, err := l.Balance(context.Background(), 404)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cash)
}

func TestAddCashRoundTrip(t *testing.T) {
	l := New(newFakeStore(), 500, 24*time.Hour)
	ctx := context.Background()

	cash, err := l.AddCash(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), cash)

	cash, err = l.AddCash(ctx, 1, -40)
	require.NoError(t, err)
	assert.Equal(t, int64(60), cash)

	cash, err = l.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(60), cash)
}

func TestClaimDailyFirstClaim(t *testing.T) {
	l := New(newFakeStore(), 500, 24*time.Hour)
	now := time.Unix(1_000_000, 0)

	cash, remaining, err := l.ClaimDaily(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cash)
	assert.Zero(t, remaining)
}

func TestClaimDailyCooldown(t *testing.T) {
	l := New(newFakeStore(), 500, 24*time.Hour)
	ctx := context.Background()
	now := time.Unix(1_000_000, 0)

	_, _, err := l.ClaimDaily(ctx, 1, now)
	require.NoError(t, err)

	// An hour later: still on cooldown, 23h remaining.
	_, remaining, err := l.ClaimDaily(ctx, 1, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrOnCooldown)
	assert.Equal(t, 23*time.Hour, remaining)

	// Past the cooldown: claim succeeds again.
	cash, _, err := l.ClaimDaily(ctx, 1, now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cash)
}
