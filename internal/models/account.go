package models

import "time"

// Account represents a registered user of the site.
type Account struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never expose this to the client
	Balance      int64     `db:"balance" json:"total_points"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	Locale       string    `db:"locale" json:"preferred_language"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Supported locales. The first one is the default.
const (
	LocaleArabic  = "ar"
	LocaleEnglish = "en"
)

// ValidLocale reports whether l is a supported locale.
func ValidLocale(l string) bool {
	return l == LocaleArabic || l == LocaleEnglish
}

// Session binds an opaque token to an account until ExpiresAt.
type Session struct {
	ID        string    `db:"id" json:"-"`
	AccountID int64     `db:"account_id" json:"account_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}
