package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"compass/api/internal/util"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetAllProgress returns the user's progress rows as a taskID -> completed
// mapping. Tasks never toggled are simply absent.
func (s *PostgresStore) GetAllProgress(ctx context.Context, userID string) (map[string]bool, error) {
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

// UpsertProgress writes the completed flag for (userID, taskID). The
// unique constraint on (user_id, task_id) turns a racing second insert
// into an overwrite, so two near-simultaneous toggles can never produce
// duplicate rows.
func (s *PostgresStore) UpsertProgress(ctx context.Context, userID, taskID string, completed bool) (ProgressRecord, error) {
	record := ProgressRecord{UserID: userID, TaskID: taskID, Completed: completed}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO checklist_progress (id, user_id, task_id, completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, task_id) DO UPDATE SET completed=EXCLUDED.completed
		RETURNING id
	`, util.NewID("prg"), userID, taskID, completed).Scan(&record.ID)
	if err != nil {
		return ProgressRecord{}, fmt.Errorf("upsert progress: %w", err)
	}
	return record, nil
}

// ResetProgress removes every row for the user in one statement. Other
// users' rows are untouched.
func (s *PostgresStore) ResetProgress(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checklist_progress WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

// ListAllProgress scans the whole table for the admin rollup. The data
// stays at tens of users times tens of tasks, no pagination needed.
func (s *PostgresStore) ListAllProgress(ctx context.Context) ([]ProgressRecord, error) {
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

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.IsAdmin)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
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

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
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

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
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

// EnsureUser creates the user row if it does not exist yet. Used for the
// single-tenant sentinel identity.
func (s *PostgresStore) EnsureUser(ctx context.Context, userID string) (User, error) {
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

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.email, u.first_name, u.last_name, u.is_admin
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
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

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}
