package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type storePG struct{ pool *pgxpool.Pool }

// NewPGStore returns a Store backed by the sessions table.
func NewPGStore(pool *pgxpool.Pool) Store { return &storePG{pool: pool} }

const sessionCols = `user_id, tier, token, expires_at, updated_at`

func (r *storePG) Get(ctx context.Context, userID int64) (*Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `SELECT `+sessionCols+` FROM sessions WHERE user_id = $1`, userID).
		Scan(&s.UserID, &s.Tier, &s.Token, &s.ExpiresAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Put upserts on user_id, so concurrent logins for the same subject settle
// on a single winning token in the database.
func (r *storePG) Put(ctx context.Context, s *Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (user_id, tier, token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET tier = EXCLUDED.tier, token = EXCLUDED.token,
			expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		s.UserID, s.Tier, s.Token, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (r *storePG) Delete(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
