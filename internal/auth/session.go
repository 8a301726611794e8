package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// DefaultSessionTTL is used when no lifetime is configured.
const DefaultSessionTTL = 30 * 24 * time.Hour

// ErrNoSession is returned for unknown, revoked or expired tokens.
var ErrNoSession = apperror.Unauthenticated("login required")

// SessionStore maps opaque session tokens to account ids.
type SessionStore interface {
	Create(ctx context.Context, accountID int64) (models.Session, error)
	Resolve(ctx context.Context, token string) (models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteForAccount(ctx context.Context, accountID int64) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// SQLSessionStore persists sessions in the sessions table.
type SQLSessionStore struct {
	db    *sqlx.DB
	clock clock.Clock
	ttl   time.Duration
}

// NewSQLSessionStore creates a session store with the given lifetime.
func NewSQLSessionStore(db *sqlx.DB, clk clock.Clock, ttl time.Duration) *SQLSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SQLSessionStore{db: db, clock: clk, ttl: ttl}
}

// TTL reports how long new sessions live.
func (s *SQLSessionStore) TTL() time.Duration { return s.ttl }

// Create starts a new session for the account.
func (s *SQLSessionStore) Create(ctx context.Context, accountID int64) (models.Session, error) {
	now := clock.Stamp(s.clock.Now())
	sess := models.Session{
		ID:        uuid.New().String(),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	_, err := s.db.NamedExecContext(ctx,
		"INSERT INTO sessions (id, account_id, created_at, expires_at) VALUES (:id, :account_id, :created_at, :expires_at)",
		sess)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Resolve looks up a live session. Expired sessions are deleted on sight.
func (s *SQLSessionStore) Resolve(ctx context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrNoSession
	}
	var sess models.Session
	err := s.db.GetContext(ctx, &sess, s.db.Rebind(
		"SELECT id, account_id, created_at, expires_at FROM sessions WHERE id = ?"), token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to resolve session: %w", err)
	}

	if !s.clock.Now().Before(sess.ExpiresAt) {
		if err := s.Delete(ctx, token); err != nil {
			return models.Session{}, err
		}
		return models.Session{}, ErrNoSession
	}
	return sess, nil
}

// Delete revokes a single session.
func (s *SQLSessionStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM sessions WHERE id = ?"), token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteForAccount revokes every session of an account.
func (s *SQLSessionStore) DeleteForAccount(ctx context.Context, accountID int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM sessions WHERE account_id = ?"), accountID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired session and returns how many went.
func (s *SQLSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM sessions WHERE expires_at <= ?"), clock.Stamp(s.clock.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return res.RowsAffected()
}
