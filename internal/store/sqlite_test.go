package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tokens.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestSQLiteStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := Session{UserID: "u1", AccessToken: "at-1", RefreshToken: "rt-1"}
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != sess {
		t.Errorf("expected %+v, got %+v", sess, got)
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_PutReplacesPerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, Session{UserID: "u1", AccessToken: "at-1", RefreshToken: "rt-1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, Session{UserID: "u2", AccessToken: "at-x", RefreshToken: "rt-x"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, Session{UserID: "u1", AccessToken: "at-2", RefreshToken: "rt-2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccessToken != "at-2" || got.RefreshToken != "rt-2" {
		t.Errorf("expected replaced tokens, got %+v", got)
	}

	// The other user's record is untouched
	other, err := s.Get(ctx, "u2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if other.AccessToken != "at-x" {
		t.Errorf("expected u2 record untouched, got %+v", other)
	}
}

func TestSQLiteStore_RejectsPartialSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []Session{
		{UserID: "", AccessToken: "at", RefreshToken: "rt"},
		{UserID: "u1", AccessToken: "", RefreshToken: "rt"},
		{UserID: "u1", AccessToken: "at", RefreshToken: ""},
	}
	for _, sess := range tests {
		if err := s.Put(ctx, sess); err == nil {
			t.Errorf("expected error for partial session %+v", sess)
		}
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, Session{UserID: "u1", AccessToken: "at-1", RefreshToken: "rt-1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is not an error
	if err := s.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete (missing): %v", err)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(ctx, Session{UserID: "u1", AccessToken: "at-1", RefreshToken: "rt-1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.AccessToken != "at-1" {
		t.Errorf("expected persisted session, got %+v", got)
	}
}
