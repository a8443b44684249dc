package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertProgressCreatesThenUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertProgress(ctx, "u1", "chrome", true)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID == "" {
		t.Error("expected a generated record id")
	}

	second, err := s.UpsertProgress(ctx, "u1", "chrome", false)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected update in place, got new id %q (was %q)", second.ID, first.ID)
	}

	progress, err := s.GetAllProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(progress))
	}
	if progress["chrome"] {
		t.Error("expected last write (false) to win")
	}
}

func TestUpsertProgressIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.UpsertProgress(ctx, "u1", "git", true); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	records, err := s.ListAllProgress(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one row after repeated identical writes, got %d", len(records))
	}
	if !records[0].Completed {
		t.Error("expected completed=true")
	}
}

func TestGetAllProgressAbsentTasksOmitted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	progress, err := s.GetAllProgress(ctx, "nobody")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(progress) != 0 {
		t.Errorf("expected empty mapping, got %v", progress)
	}
}

func TestResetProgressIsolatedPerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, taskID := range []string{"chrome", "git", "editor"} {
		if _, err := s.UpsertProgress(ctx, "u1", taskID, true); err != nil {
			t.Fatalf("seed u1: %v", err)
		}
	}
	if _, err := s.UpsertProgress(ctx, "u2", "chrome", true); err != nil {
		t.Fatalf("seed u2: %v", err)
	}

	if err := s.ResetProgress(ctx, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	u1, err := s.GetAllProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("get u1: %v", err)
	}
	if len(u1) != 0 {
		t.Errorf("expected u1 progress cleared, got %v", u1)
	}

	u2, err := s.GetAllProgress(ctx, "u2")
	if err != nil {
		t.Fatalf("get u2: %v", err)
	}
	if !u2["chrome"] {
		t.Error("reset of u1 must not touch u2 rows")
	}
}

// For any toggle sequence on one (user, task) pair the stored value
// equals the last toggle and exactly one row exists.
func TestToggleSequenceLastWriteWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, err := OpenSQLite(context.Background(), "file::memory:")
		if err != nil {
			rt.Fatalf("open sqlite: %v", err)
		}
		defer s.Close()
		ctx := context.Background()

		toggles := rapid.SliceOfN(rapid.Bool(), 1, 20).Draw(rt, "toggles")
		for _, completed := range toggles {
			if _, err := s.UpsertProgress(ctx, "u1", "contract", completed); err != nil {
				rt.Fatalf("upsert: %v", err)
			}
		}

		records, err := s.ListAllProgress(ctx)
		if err != nil {
			rt.Fatalf("list all: %v", err)
		}
		if len(records) != 1 {
			rt.Fatalf("expected exactly one record, got %d", len(records))
		}
		want := toggles[len(toggles)-1]
		if records[0].Completed != want {
			rt.Errorf("stored completed=%v, last toggle was %v", records[0].Completed, want)
		}
	})
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := User{ID: "u1", Email: "amira@example.com", FirstName: "Amira", LastName: "H", IsAdmin: true}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	byID, err := s.GetUserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != user.Email || !byID.IsAdmin {
		t.Errorf("unexpected user row: %+v", byID)
	}

	byEmail, err := s.GetUserByEmail(ctx, "AMIRA@example.com")
	if err != nil {
		t.Fatalf("get by email (case-insensitive): %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("expected u1, got %q", byEmail.ID)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected one user, got %d", len(users))
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, User{ID: "u1", Email: "amira@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, User{ID: "u2", Email: "amira@example.com"}); err == nil {
		t.Fatal("expected duplicate email to be rejected by the schema")
	}
	// Sign-up lowercases addresses, but the schema guards casing too.
	if err := s.CreateUser(ctx, User{ID: "u3", Email: "AMIRA@example.com"}); err == nil {
		t.Fatal("expected case-variant duplicate email to be rejected")
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected a single row, got %d", len(users))
	}
}

func TestEnsureUserSentinel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.EnsureUser(ctx, "local")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := s.EnsureUser(ctx, "local")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected stable sentinel row, got %q then %q", first.ID, second.ID)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected a single sentinel row, got %d", len(users))
	}
}

func TestRefreshSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, User{ID: "u1", Email: "x@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.SaveRefreshSession(ctx, "hash-1", "u1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("save session: %v", err)
	}

	user, err := s.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("expected u1, got %q", user.ID)
	}

	if err := s.RevokeRefreshSession(ctx, "hash-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.LookupRefreshSession(ctx, "hash-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows after revoke, got %v", err)
	}
}

func TestExpiredRefreshSessionRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveRefreshSession(ctx, "hash-old", "u1", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if _, err := s.LookupRefreshSession(ctx, "hash-old"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows for expired session, got %v", err)
	}
}

func TestAccessTokenRevocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	revoked, err := s.IsAccessTokenRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if revoked {
		t.Error("fresh jti should not be revoked")
	}

	if err := s.RevokeAccessToken(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = s.IsAccessTokenRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check again: %v", err)
	}
	if !revoked {
		t.Error("expected jti to be revoked")
	}
}
