package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"compass/api/internal/util"

	_ "modernc.org/sqlite"
)

// SQLiteStore backs single-node deployments with a local database file.
// It satisfies the same storage contract as PostgresStore and creates its
// own schema on open, no migrations directory involved.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	is_admin INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email)) WHERE email <> '';

CREATE TABLE IF NOT EXISTS checklist_progress (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	UNIQUE (user_id, task_id)
);

CREATE TABLE IF NOT EXISTS refresh_sessions (
	token_hash TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	revoked_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS revoked_access_tokens (
	jti TEXT PRIMARY KEY,
	expires_at TIMESTAMP NOT NULL
);
`

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) GetAllProgress(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, completed FROM checklist_progress WHERE user_id=$1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	progress := make(map[string]bool)
	for rows.Next() {
		var taskID string
		var completed bool
		if err := rows.Scan(&taskID, &completed); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		progress[taskID] = completed
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return progress, nil
}

func (s *SQLiteStore) UpsertProgress(ctx context.Context, userID, taskID string, completed bool) (ProgressRecord, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checklist_progress (id, user_id, task_id, completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, task_id) DO UPDATE SET completed=excluded.completed
	`, util.NewID("prg"), userID, taskID, completed)
	if err != nil {
		return ProgressRecord{}, fmt.Errorf("upsert progress: %w", err)
	}

	record := ProgressRecord{UserID: userID, TaskID: taskID, Completed: completed}
	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM checklist_progress WHERE user_id=$1 AND task_id=$2
	`, userID, taskID).Scan(&record.ID)
	if err != nil {
		return ProgressRecord{}, fmt.Errorf("read progress id: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) ResetProgress(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checklist_progress WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAllProgress(ctx context.Context) ([]ProgressRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, task_id, completed FROM checklist_progress
	`)
	if err != nil {
		return nil, fmt.Errorf("list all progress: %w", err)
	}
	defer rows.Close()

	records := make([]ProgressRecord, 0)
	for rows.Next() {
		var record ProgressRecord
		if err := rows.Scan(&record.ID, &record.UserID, &record.TaskID, &record.Completed); err != nil {
			return nil, fmt.Errorf("scan progress record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress records: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.IsAdmin)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, is_admin
		FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, is_admin
		FROM users WHERE LOWER(email)=LOWER($1)
	`, email).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, first_name, last_name, is_admin
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *SQLiteStore) EnsureUser(ctx context.Context, userID string) (User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	user = User{ID: userID, Email: userID + "@local.compass.dev"}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, user.ID, user.Email); err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=excluded.user_id, expires_at=excluded.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	// Expiry is checked in Go, sqlite has no NOW() and stores the
	// timestamp as driver-formatted text.
	var userID string
	var expiresAt time.Time
	var revokedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, expires_at, revoked_at FROM refresh_sessions WHERE token_hash=$1
	`, tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return User{}, err
	}
	if revokedAt.Valid || !expiresAt.After(time.Now()) {
		return User{}, sql.ErrNoRows
	}
	return s.GetUserByID(ctx, userID)
}

func (s *SQLiteStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE refresh_sessions SET revoked_at=CURRENT_TIMESTAMP WHERE token_hash=$1
	`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}
