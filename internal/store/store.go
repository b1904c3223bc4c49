// Package store persists linked Spotify sessions keyed by Discord user.
package store

import (
	"context"
	"errors"
)

// Session is one user's linked Spotify credentials. A session is only
// ever stored whole: both tokens populated, or no record at all.
type Session struct {
	UserID       string // Discord user ID
	AccessToken  string // Short-lived bearer token
	RefreshToken string // Long-lived refresh token
}

// ErrNotFound is returned when no session exists for a user.
var ErrNotFound = errors.New("store: session not found")

// Store is the keyed session store. Writes are atomic per user record;
// concurrent rounds for different users never interleave within one
// record.
type Store interface {
	// Get returns the session for the given user, or ErrNotFound.
	Get(ctx context.Context, userID string) (Session, error)

	// Put inserts or replaces the session for session.UserID.
	Put(ctx context.Context, session Session) error

	// Delete removes the session for the given user. Deleting a
	// missing session is not an error.
	Delete(ctx context.Context, userID string) error

	// Close releases the backing medium.
	Close() error
}
