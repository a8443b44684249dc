package store

import (
	"context"
	"time"
)

// Store is the persistence surface shared by the Postgres and SQLite
// backends. The serving layer depends on this, not on a concrete
// driver.
type Store interface {
	GetAllProgress(ctx context.Context, userID string) (map[string]bool, error)
	UpsertProgress(ctx context.Context, userID, taskID string, completed bool) (ProgressRecord, error)
	ResetProgress(ctx context.Context, userID string) error
	ListAllProgress(ctx context.Context) ([]ProgressRecord, error)

	CreateUser(ctx context.Context, user User) error
	GetUserByID(ctx context.Context, userID string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	EnsureUser(ctx context.Context, userID string) (User, error)

	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	Ping(ctx context.Context) error
}
