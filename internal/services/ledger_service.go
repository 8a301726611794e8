package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/cache"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/database"
	"github.com/isdelr/smarttools-be/internal/metrics"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// Leaderboard size bounds.
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// LedgerServiceProvider defines the interface for the points ledger.
type LedgerServiceProvider interface {
	Award(ctx context.Context, accountID int64, tool string, amount int64) (bool, error)
	EarnedToday(ctx context.Context, accountID int64, tool string) (bool, error)
	History(ctx context.Context, accountID int64, limit int) ([]models.LedgerEntry, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	InvalidateLeaderboard(ctx context.Context)
}

// LedgerService credits daily tool rewards. The unique index on
// (account_id, tool, earned_on) decides which of several concurrent awards wins.
type LedgerService struct {
	db    *sqlx.DB
	clock clock.Clock
	cache cache.LeaderboardCache
	// generation is bumped on every invalidation; a leaderboard read that
	// saw an older generation does not write its result back to the cache.
	generation atomic.Uint64
}

// NewLedgerService creates a new LedgerService. A nil cache disables caching.
func NewLedgerService(db *sqlx.DB, clk clock.Clock, lc cache.LeaderboardCache) *LedgerService {
	if lc == nil {
		lc = cache.Noop{}
	}
	return &LedgerService{db: db, clock: clk, cache: lc}
}

// Award credits amount to the account for tool, at most once per calendar
// day. It returns false without error when today's award was already made.
func (s *LedgerService) Award(ctx context.Context, accountID int64, tool string, amount int64) (bool, error) {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return false, apperror.Validation("tool is required")
	}
	if amount <= 0 {
		return false, apperror.Validation("amount must be positive")
	}

	now := s.clock.Now()
	today := clock.Day(now)

	awarded, err := s.award(ctx, accountID, tool, amount, today, clock.Stamp(now))
	switch {
	case err != nil:
		metrics.RecordAward(tool, metrics.AwardResultError, 0)
		return false, err
	case !awarded:
		metrics.RecordAward(tool, metrics.AwardResultAlreadyAwarded, 0)
		return false, nil
	}

	metrics.RecordAward(tool, metrics.AwardResultAwarded, amount)
	s.InvalidateLeaderboard(ctx)
	return true, nil
}

func (s *LedgerService) award(ctx context.Context, accountID int64, tool string, amount int64, today string, now time.Time) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin award: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO ledger_entries (account_id, tool, earned_on, points, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_id, tool, earned_on) DO NOTHING`),
		accountID, tool, today, amount, now)
	if database.IsForeignKeyViolation(err) {
		return false, apperror.NotFound("user not found")
	}
	if err != nil {
		return false, fmt.Errorf("failed to record award: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record award: %w", err)
	}
	if inserted == 0 {
		return false, tx.Rollback()
	}

	res, err = tx.ExecContext(ctx, tx.Rebind("UPDATE accounts SET balance = balance + ? WHERE id = ?"), amount, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to credit balance: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to credit balance: %w", err)
	}
	if updated != 1 {
		return false, apperror.NotFound("user not found")
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit award: %w", err)
	}
	return true, nil
}

// EarnedToday reports whether the account already got today's award for tool.
func (s *LedgerService) EarnedToday(ctx context.Context, accountID int64, tool string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(
		"SELECT COUNT(*) FROM ledger_entries WHERE account_id = ? AND tool = ? AND earned_on = ?"),
		accountID, tool, clock.Day(s.clock.Now()))
	if err != nil {
		return false, fmt.Errorf("failed to check today's award: %w", err)
	}
	return n > 0, nil
}

// History lists the account's most recent awards.
func (s *LedgerService) History(ctx context.Context, accountID int64, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > MaxLeaderboardLimit {
		limit = 30
	}
	entries := []models.LedgerEntry{}
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(`
		SELECT id, account_id, tool, earned_on, points, created_at
		FROM ledger_entries WHERE account_id = ?
		ORDER BY earned_on DESC, id DESC LIMIT ?`), accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load points history: %w", err)
	}
	return entries, nil
}

// Leaderboard returns the top accounts with a positive balance. Equal
// balances are ordered by account id, i.e. registration order.
func (s *LedgerService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	generation := s.generation.Load()
	if entries, ok := s.cache.Get(ctx, limit); ok {
		return entries, nil
	}

	entries := []models.LeaderboardEntry{}
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(`
		SELECT id, username, balance FROM accounts
		WHERE balance > 0
		ORDER BY balance DESC, id ASC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if s.generation.Load() == generation {
		s.cache.Set(ctx, limit, entries)
	}
	return entries, nil
}

// InvalidateLeaderboard drops cached rankings after an out-of-band balance change.
func (s *LedgerService) InvalidateLeaderboard(ctx context.Context) {
	s.generation.Add(1)
	s.cache.Invalidate(ctx)
}
