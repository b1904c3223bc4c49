package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) a session store at the given path.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps writes serialized, which is all the
	// per-user atomicity guarantee needs at this scale.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			user_id TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the session for the given user, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (Session, error) {
	query := `
		SELECT user_id, access_token, refresh_token
		FROM sessions
		WHERE user_id = ?
	`

	var sess Session
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&sess.UserID,
		&sess.AccessToken,
		&sess.RefreshToken,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to query session: %w", err)
	}

	return sess, nil
}

// Put inserts or replaces the session for session.UserID.
func (s *SQLiteStore) Put(ctx context.Context, session Session) error {
	if session.UserID == "" {
		return fmt.Errorf("session user id is required")
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		return fmt.Errorf("session for %s is missing tokens", session.UserID)
	}

	query := `
		INSERT INTO sessions (user_id, access_token, refresh_token, updated_at)
		VALUES (?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, session.UserID, session.AccessToken, session.RefreshToken); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

// Delete removes the session for the given user.
func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
