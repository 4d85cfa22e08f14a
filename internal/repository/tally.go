package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/model"
)

// TallyRepository keeps per-user win/loss counters for each game kind.
type TallyRepository struct {
	pool *pgxpool.Pool
}

// NewTallyRepository creates a new TallyRepository instance.
func NewTallyRepository(pool *pgxpool.Pool) *TallyRepository {
	return &TallyRepository{pool: pool}
}

// Record increments the win or loss counter for the user and kind.
// Pushes are not recorded.
func (r *TallyRepository) Record(ctx context.Context, userID int64, kind model.GameKind, won bool) error {
	const query = `
		INSERT INTO game_tallies (user_id, kind, wins, losses)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, kind)
		DO UPDATE SET wins = game_tallies.wins + $3, losses = game_tallies.losses + $4
	`

	var wins, losses int64
	if won {
		wins = 1
	} else {
		losses = 1
	}

	if _, err := r.pool.Exec(ctx, query, userID, kind, wins, losses); err != nil {
		return fmt.Errorf("failed to record tally: %w", err)
	}

	return nil
}

// ForUser returns the user's tallies across all game kinds, stable by kind.
func (r *TallyRepository) ForUser(ctx context.Context, userID int64) ([]*model.GameTally, error) {
	const query = `
		SELECT user_id, kind, wins, losses
		FROM game_tallies
		WHERE user_id = $1
		ORDER BY kind ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tallies: %w", err)
	}
	defer rows.Close()

	var tallies []*model.GameTally
	for rows.Next() {
		var tally model.GameTally
		err := rows.Scan(&tally.UserID, &tally.Kind, &tally.Wins, &tally.Losses)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		tallies = append(tallies, &tally)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tallies: %w", err)
	}

	return tallies, nil
}
