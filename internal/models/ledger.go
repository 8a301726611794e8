package models

import "time"

// LedgerEntry records a single daily award. Entries are never updated.
type LedgerEntry struct {
	ID        int64     `db:"id" json:"id"`
	AccountID int64     `db:"account_id" json:"account_id"`
	Tool      string    `db:"tool" json:"tool_name"`
	EarnedOn  string    `db:"earned_on" json:"date_earned"` // YYYY-MM-DD in server time
	Points    int64     `db:"points" json:"points_earned"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LeaderboardEntry is one row of the public ranking.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	ID          int64  `db:"id" json:"id"`
	Username    string `db:"username" json:"username"`
	TotalPoints int64  `db:"balance" json:"total_points"`
}
