package models

import "time"

// Task is an item in an account's personal to-do list.
type Task struct {
	ID          int64      `db:"id" json:"id"`
	AccountID   int64      `db:"account_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
