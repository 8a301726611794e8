package models

import "time"

// Event represents an audited action in the system.
type Event struct {
	Seq       int64     `db:"seq" json:"-"`
	ID        string    `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`   // e.g., "admin.toggle_admin", "admin.cleanup"
	Level     string    `db:"level" json:"level"` // e.g., "info", "warn", "error"
	Message   string    `db:"message" json:"message"`
	ActorID   *int64    `db:"actor_id" json:"actor_id,omitempty"` // Nullable for system events
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
