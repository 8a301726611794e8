package models

import "time"

// UserImage is an uploaded picture shown on the site for a limited time.
type UserImage struct {
	ID         int64     `db:"id" json:"id"`
	AccountID  int64     `db:"account_id" json:"user_id"`
	Username   string    `db:"username" json:"username,omitempty"`
	Path       string    `db:"path" json:"image_path"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}

// Image approval filters for admin listings.
const (
	ImageStatusPending  = "pending"
	ImageStatusApproved = "approved"
	ImageStatusAll      = "all"
)
