package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/model"
)

// AccountRepository handles wallet persistence. Balances only ever change
// through AddCash so every mutation goes through the same upsert.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// AddCash adds delta (possibly negative) to the user's balance, creating the
// account on first touch. Returns the resulting balance.
func (r *AccountRepository) AddCash(ctx context.Context, userID int64, delta int64) (int64, error) {
	const query = `
		INSERT INTO accounts (user_id, cash, last_earned_at, last_updated_at)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET cash = accounts.cash + $2, last_updated_at = NOW()
		RETURNING cash
	`

	var cash int64
	if err := r.pool.QueryRow(ctx, query, userID, delta).Scan(&cash); err != nil {
		return 0, fmt.Errorf("failed to add cash: %w", err)
	}

	return cash, nil
}

// Get retrieves an account by user id.
// Returns ErrAccountNotFound if the account does not exist.
func (r *AccountRepository) Get(ctx context.Context, userID int64) (*model.CashAccount, error) {
	const query = `
		SELECT user_id, cash, last_earned_at, last_updated_at
		FROM accounts
		WHERE user_id = $1
	`

	var acc model.CashAccount
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&acc.UserID,
		&acc.Cash,
		&acc.LastEarnedAt,
		&acc.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// StampEarned records the instant of the latest daily reward claim.
func (r *AccountRepository) StampEarned(ctx context.Context, userID int64, earnedAt int64) error {
	const query = `
		UPDATE accounts
		SET last_earned_at = $2, last_updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, earnedAt)
	if err != nil {
		return fmt.Errorf("failed to stamp earned: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}
