// Package databasetest opens throwaway migrated databases for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/smarttools-be/internal/database"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// Admin credentials used by Open.
const (
	AdminUsername = "admin"
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
)

// Open returns a migrated and seeded SQLite database in t's temp dir.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db := OpenEmpty(t)
	err := database.Seed(context.Background(), db, database.SeedOptions{
		AdminUsername: AdminUsername,
		AdminEmail:    AdminEmail,
		AdminPassword: AdminPassword,
		Now:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return db
}

// OpenEmpty returns a migrated SQLite database without seed data.
func OpenEmpty(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}
