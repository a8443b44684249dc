package store

import "time"

type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProgressRecord is the persisted fact that a user has (or has not)
// completed a task. At most one record exists per (UserID, TaskID);
// repeated writes update in place. TaskID is not checked against the
// catalog here, stale identifiers sit harmlessly in the table.
type ProgressRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	TaskID    string `json:"taskId"`
	Completed bool   `json:"completed"`
}
