package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no session exists for a subject.
var ErrNotFound = errors.New("session not found")

// Session is the persisted authentication record for one subject. At most
// one current token is valid per subject: presenting any other value, even
// a well-formed unexpired one, is rejected. Overwriting the stored token on
// login or renewal is what revokes previously issued credentials.
type Session struct {
	UserID    int64     `db:"user_id"`
	Tier      int       `db:"tier"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Store holds session records. Get is the hot path consulted on every
// authenticated request; Put and Delete run only on login, renewal and
// logout. Put replaces the subject's current token atomically.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}
