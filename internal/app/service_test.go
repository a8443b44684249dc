package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"compass/api/internal/auth"
	"compass/api/internal/config"
	"compass/api/internal/search"
	"compass/api/internal/store"
)

type fakeStore struct {
	getAllProgressFn       func(context.Context, string) (map[string]bool, error)
	upsertProgressFn       func(context.Context, string, string, bool) (store.ProgressRecord, error)
	resetProgressFn        func(context.Context, string) error
	listAllProgressFn      func(context.Context) ([]store.ProgressRecord, error)
	createUserFn           func(context.Context, store.User) error
	getUserByIDFn          func(context.Context, string) (store.User, error)
	getUserByEmailFn       func(context.Context, string) (store.User, error)
	listUsersFn            func(context.Context) ([]store.User, error)
	ensureUserFn           func(context.Context, string) (store.User, error)
	lookupRefreshSessionFn func(context.Context, string) (store.User, error)
	revokeRefreshSessionFn func(context.Context, string) error
	isAccessTokenRevokedFn func(context.Context, string) (bool, error)
}

func (f *fakeStore) GetAllProgress(ctx context.Context, userID string) (map[string]bool, error) {
	if f.getAllProgressFn != nil {
		return f.getAllProgressFn(ctx, userID)
	}
	return map[string]bool{}, nil
}
func (f *fakeStore) UpsertProgress(ctx context.Context, userID, taskID string, completed bool) (store.ProgressRecord, error) {
	if f.upsertProgressFn != nil {
		return f.upsertProgressFn(ctx, userID, taskID, completed)
	}
	return store.ProgressRecord{ID: "prg_test", UserID: userID, TaskID: taskID, Completed: completed}, nil
}
func (f *fakeStore) ResetProgress(ctx context.Context, userID string) error {
	if f.resetProgressFn != nil {
		return f.resetProgressFn(ctx, userID)
	}
	return nil
}
func (f *fakeStore) ListAllProgress(ctx context.Context) ([]store.ProgressRecord, error) {
	if f.listAllProgressFn != nil {
		return f.listAllProgressFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) CreateUser(ctx context.Context, user store.User) error {
	if f.createUserFn != nil {
		return f.createUserFn(ctx, user)
	}
	return nil
}
func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, userID)
	}
	return store.User{ID: userID}, nil
}
func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) ListUsers(ctx context.Context) ([]store.User, error) {
	if f.listUsersFn != nil {
		return f.listUsersFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) EnsureUser(ctx context.Context, userID string) (store.User, error) {
	if f.ensureUserFn != nil {
		return f.ensureUserFn(ctx, userID)
	}
	return store.User{ID: userID}, nil
}
func (f *fakeStore) SaveRefreshSession(context.Context, string, string, time.Time) error {
	return nil
}
func (f *fakeStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	if f.lookupRefreshSessionFn != nil {
		return f.lookupRefreshSessionFn(ctx, tokenHash)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if f.revokeRefreshSessionFn != nil {
		return f.revokeRefreshSessionFn(ctx, tokenHash)
	}
	return nil
}
func (f *fakeStore) RevokeAccessToken(context.Context, string, time.Time) error { return nil }
func (f *fakeStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if f.isAccessTokenRevokedFn != nil {
		return f.isAccessTokenRevokedFn(ctx, jti)
	}
	return false, nil
}
func (f *fakeStore) Ping(context.Context) error { return nil }

func newTestService(fs *fakeStore) *Service {
	cfg := config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
	return New(cfg, fs, search.NewService(nil))
}

func bearerFor(t *testing.T, svc *Service, user store.User) string {
	t.Helper()
	session, err := svc.issueSession(context.Background(), user)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return session.Token
}

func TestUpdateProgressRejectsBlankTaskID(t *testing.T) {
	svc := newTestService(&fakeStore{})
	_, err := svc.UpdateProgress(context.Background(), "user-1", "   ", true)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T", err)
	}
	if domainErr.Status != 400 || domainErr.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected error: %+v", domainErr)
	}
}

func TestUpdateProgressAcceptsUnknownTaskID(t *testing.T) {
	// Task identifiers outside the catalog are stored, not rejected:
	// retired catalog entries leave rows behind and clients may still
	// reference them.
	svc := newTestService(&fakeStore{})
	record, err := svc.UpdateProgress(context.Background(), "user-1", "retired-task", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.TaskID != "retired-task" || !record.Completed {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	revoked := []string{}
	fs := &fakeStore{
		lookupRefreshSessionFn: func(_ context.Context, tokenHash string) (store.User, error) {
			return store.User{ID: "user-1", Email: "a@example.com"}, nil
		},
		revokeRefreshSessionFn: func(_ context.Context, tokenHash string) error {
			revoked = append(revoked, tokenHash)
			return nil
		},
	}
	svc := newTestService(fs)

	session, err := svc.Refresh(context.Background(), "old-refresh-token")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(revoked) != 1 {
		t.Fatalf("expected presented token revoked once, got %d", len(revoked))
	}
	if revoked[0] != auth.HashToken("old-refresh-token") {
		t.Error("revoked a different token hash than presented")
	}
	if session.RefreshToken == "" || session.RefreshToken == "old-refresh-token" {
		t.Error("expected a fresh refresh token")
	}
	if session.Token == "" {
		t.Error("expected a new access token")
	}
}

func TestRefreshUnknownTokenFails(t *testing.T) {
	svc := newTestService(&fakeStore{})
	if _, err := svc.Refresh(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown refresh token")
	}
}

func TestSessionFromTokenRejectsRevokedJTI(t *testing.T) {
	fs := &fakeStore{
		isAccessTokenRevokedFn: func(context.Context, string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(fs)
	token := bearerFor(t, svc, store.User{ID: "user-1"})

	if _, err := svc.SessionFromToken(context.Background(), token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for revoked session, got %v", err)
	}
}

func TestSingleUserSessionDisabledByDefault(t *testing.T) {
	svc := newTestService(&fakeStore{})
	if _, ok := svc.SingleUserSession(context.Background()); ok {
		t.Fatal("single-user session should require configuration")
	}
}

func TestSingleUserSessionUsesSentinel(t *testing.T) {
	fs := &fakeStore{
		ensureUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, Email: "local@compass"}, nil
		},
	}
	svc := newTestService(fs)
	svc.cfg.SingleUserID = "usr_local"

	session, ok := svc.SingleUserSession(context.Background())
	if !ok {
		t.Fatal("expected single-user session")
	}
	if session.UserID != "usr_local" {
		t.Errorf("expected sentinel user, got %q", session.UserID)
	}
	if session.Role != "student" {
		t.Errorf("expected student role, got %q", session.Role)
	}
}

func TestRoleOf(t *testing.T) {
	if got := roleOf(store.User{IsAdmin: true}); got != "admin" {
		t.Errorf("expected admin, got %q", got)
	}
	if got := roleOf(store.User{}); got != "student" {
		t.Errorf("expected student, got %q", got)
	}
}
