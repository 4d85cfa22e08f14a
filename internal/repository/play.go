// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrPlayNotFound    = errors.New("play not found")
	ErrAccountNotFound = errors.New("account not found")
)

// PlayRepository persists the durable record of every wager round. A Play
// row is the source of truth a restarted process rebuilds sessions from.
type PlayRepository struct {
	pool *pgxpool.Pool
}

// NewPlayRepository creates a new PlayRepository instance.
func NewPlayRepository(pool *pgxpool.Pool) *PlayRepository {
	return &PlayRepository{pool: pool}
}

// Insert stores a new play with a fresh id and Started=false.
// The returned play carries the generated id and creation time.
func (r *PlayRepository) Insert(ctx context.Context, userID int64, kind model.GameKind, ref model.MessageRef, bet int64) (*model.Play, error) {
	const query = `
		INSERT INTO plays (id, user_id, kind, chat_id, message_id, bet, started, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
		RETURNING id, user_id, kind, chat_id, message_id, bet, started, created_at
	`

	var play model.Play
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), userID, kind, ref.ChatID, ref.MessageID, bet).Scan(
		&play.ID,
		&play.UserID,
		&play.Kind,
		&play.ChatID,
		&play.MessageID,
		&play.Bet,
		&play.Started,
		&play.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert play: %w", err)
	}

	return &play, nil
}

// Get retrieves a play by id.
// Returns ErrPlayNotFound if the play does not exist.
func (r *PlayRepository) Get(ctx context.Context, id string) (*model.Play, error) {
	const query = `
		SELECT id, user_id, kind, chat_id, message_id, bet, started, created_at
		FROM plays
		WHERE id = $1
	`

	var play model.Play
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&play.ID,
		&play.UserID,
		&play.Kind,
		&play.ChatID,
		&play.MessageID,
		&play.Bet,
		&play.Started,
		&play.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayNotFound
		}
		return nil, fmt.Errorf("failed to get play: %w", err)
	}

	return &play, nil
}

// MarkStarted flips the started flag after the stake has been escrowed.
func (r *PlayRepository) MarkStarted(ctx context.Context, id string) error {
	const query = `UPDATE plays SET started = TRUE WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark play started: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlayNotFound
	}

	return nil
}

// Delete removes a play once its round is settled or abandoned.
func (r *PlayRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM plays WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete play: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlayNotFound
	}

	return nil
}

// FindAll returns every stored play, oldest first. Used at startup and by
// the sweep loop to reconcile sessions with durable state.
func (r *PlayRepository) FindAll(ctx context.Context) ([]*model.Play, error) {
	const query = `
		SELECT id, user_id, kind, chat_id, message_id, bet, started, created_at
		FROM plays
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plays: %w", err)
	}
	defer rows.Close()

	var plays []*model.Play
	for rows.Next() {
		var play model.Play
		err := rows.Scan(
			&play.ID,
			&play.UserID,
			&play.Kind,
			&play.ChatID,
			&play.MessageID,
			&play.Bet,
			&play.Started,
			&play.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		plays = append(plays, &play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plays: %w", err)
	}

	return plays, nil
}
