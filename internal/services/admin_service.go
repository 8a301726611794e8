package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/isdelr/smarttools-be/internal/monitoring"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// SessionPurger removes sessions past their expiry.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// AdminServiceProvider defines the interface for the admin console.
type AdminServiceProvider interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
	ListAccounts(ctx context.Context, search string, page, perPage int) (models.AccountPage, error)
	ToggleAdmin(ctx context.Context, actor *models.Account, targetID int64) (models.Account, error)
	SetBalance(ctx context.Context, actor *models.Account, targetID, points int64) (models.Account, error)
	DeleteAccount(ctx context.Context, actor *models.Account, targetID int64) error
	Analytics(ctx context.Context) (models.Analytics, error)
	Cleanup(ctx context.Context, actor *models.Account) (models.CleanupResult, error)
	UpdateTool(ctx context.Context, actor *models.Account, id int64, upd models.ToolUpdate) (models.Tool, error)
	ApproveImage(ctx context.Context, actor *models.Account, id int64) (models.UserImage, error)
	RejectImage(ctx context.Context, actor *models.Account, id int64) error
}

// AdminService aggregates site statistics and performs privileged account changes.
type AdminService struct {
	db       *sqlx.DB
	clock    clock.Clock
	accounts AccountServiceProvider
	ledger   LedgerServiceProvider
	tools    ToolServiceProvider
	images   ImageServiceProvider
	events   EventServiceProvider
	sessions SessionPurger
	health   monitoring.HealthProvider
}

// NewAdminService creates a new AdminService. health and sessions may be nil.
func NewAdminService(
	db *sqlx.DB,
	clk clock.Clock,
	accounts AccountServiceProvider,
	ledger LedgerServiceProvider,
	tools ToolServiceProvider,
	images ImageServiceProvider,
	events EventServiceProvider,
	sessions SessionPurger,
	health monitoring.HealthProvider,
) *AdminService {
	return &AdminService{
		db:       db,
		clock:    clk,
		accounts: accounts,
		ledger:   ledger,
		tools:    tools,
		images:   images,
		events:   events,
		sessions: sessions,
		health:   health,
	}
}

func (s *AdminService) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, s.db.Rebind(query), args...)
	return n, err
}

// Dashboard collects the overview numbers.
func (s *AdminService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	now := s.clock.Now()
	weekAgo := clock.Stamp(now.Add(-7 * 24 * time.Hour))

	var stats models.DashboardStats
	var err error
	counters := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalUsers, "SELECT COUNT(*) FROM accounts", nil},
		{&stats.TotalPosts, "SELECT COUNT(*) FROM posts", nil},
		{&stats.TotalComments, "SELECT COUNT(*) FROM comments", nil},
		{&stats.NewUsersThisWeek, "SELECT COUNT(*) FROM accounts WHERE created_at >= ?", []any{weekAgo}},
		{&stats.NewCommentsWeek, "SELECT COUNT(*) FROM comments WHERE created_at >= ?", []any{weekAgo}},
		{&stats.PointsAwardedToday, "SELECT COALESCE(SUM(points), 0) FROM ledger_entries WHERE earned_on = ?", []any{clock.Day(now)}},
	}
	for _, c := range counters {
		if *c.dst, err = s.count(ctx, c.query, c.args...); err != nil {
			return models.DashboardStats{}, fmt.Errorf("failed to compute dashboard: %w", err)
		}
	}

	if stats.PendingImages, err = s.images.CountPending(ctx); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to count pending images: %w", err)
	}
	if stats.TopUsers, err = s.ledger.Leaderboard(ctx, 5); err != nil {
		return models.DashboardStats{}, err
	}
	if s.health != nil {
		health := s.health.Snapshot(ctx)
		stats.System = &health
	}
	return stats, nil
}

// ListAccounts pages through accounts, newest first, optionally filtered by
// a username or email substring.
func (s *AdminService) ListAccounts(ctx context.Context, search string, page, perPage int) (models.AccountPage, error) {
	page, perPage, offset := normalizePage(page, perPage)

	where := ""
	var args []any
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		where = " WHERE LOWER(username) LIKE ? OR LOWER(email) LIKE ?"
		like := "%" + term + "%"
		args = append(args, like, like)
	}

	total, err := s.count(ctx, "SELECT COUNT(*) FROM accounts"+where, args...)
	if err != nil {
		return models.AccountPage{}, fmt.Errorf("failed to count accounts: %w", err)
	}

	accounts := []models.Account{}
	err = s.db.SelectContext(ctx, &accounts, s.db.Rebind("SELECT "+accountColumns+" FROM accounts"+where+
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"), append(args, perPage, offset)...)
	if err != nil {
		return models.AccountPage{}, fmt.Errorf("failed to list accounts: %w", err)
	}
	return models.AccountPage{Users: accounts, Page: models.NewPage(page, perPage, total)}, nil
}

// ToggleAdmin flips another account's admin flag.
func (s *AdminService) ToggleAdmin(ctx context.Context, actor *models.Account, targetID int64) (models.Account, error) {
	if actor.ID == targetID {
		return models.Account{}, apperror.Forbidden("you cannot change your own admin status")
	}
	target, err := s.accounts.GetAccountByID(ctx, targetID)
	if err != nil {
		return models.Account{}, err
	}

	target.IsAdmin = !target.IsAdmin
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE accounts SET is_admin = ? WHERE id = ?"), target.IsAdmin, targetID); err != nil {
		return models.Account{}, fmt.Errorf("failed to update admin flag: %w", err)
	}

	s.audit(ctx, EventAdminToggled, actor.ID, fmt.Sprintf("%s set admin=%t for %s", actor.Username, target.IsAdmin, target.Username))
	return target, nil
}

// SetBalance overrides an account's balance. The ledger is not touched.
func (s *AdminService) SetBalance(ctx context.Context, actor *models.Account, targetID, points int64) (models.Account, error) {
	if points < 0 {
		return models.Account{}, apperror.Validation("points must be a non-negative number")
	}
	target, err := s.accounts.GetAccountByID(ctx, targetID)
	if err != nil {
		return models.Account{}, err
	}

	old := target.Balance
	target.Balance = points
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE accounts SET balance = ? WHERE id = ?"), points, targetID); err != nil {
		return models.Account{}, fmt.Errorf("failed to set balance: %w", err)
	}
	s.ledger.InvalidateLeaderboard(ctx)

	s.audit(ctx, EventBalanceChanged, actor.ID, fmt.Sprintf("%s changed balance of %s from %d to %d", actor.Username, target.Username, old, points))
	return target, nil
}

// DeleteAccount removes another account and everything it owns.
func (s *AdminService) DeleteAccount(ctx context.Context, actor *models.Account, targetID int64) error {
	if actor.ID == targetID {
		return apperror.Forbidden("you cannot delete your own account")
	}
	target, err := s.accounts.GetAccountByID(ctx, targetID)
	if err != nil {
		return err
	}
	// Image rows would go with the cascade, leaving their files unreachable.
	if _, err := s.images.DeleteForAccount(ctx, targetID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM accounts WHERE id = ?"), targetID); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", targetID, err)
	}
	s.ledger.InvalidateLeaderboard(ctx)

	s.audit(ctx, EventAccountDeleted, actor.ID, fmt.Sprintf("%s deleted account %s", actor.Username, target.Username))
	return nil
}

// Analytics reports per-tool award totals and weekly sign-ups for the last
// four weeks, oldest week first.
func (s *AdminService) Analytics(ctx context.Context) (models.Analytics, error) {
	var report models.Analytics

	report.ToolUsage = []models.ToolUsage{}
	err := s.db.SelectContext(ctx, &report.ToolUsage, `
		SELECT tool, COUNT(*) AS awards, COALESCE(SUM(points), 0) AS total_points
		FROM ledger_entries GROUP BY tool ORDER BY tool`)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("failed to compute tool usage: %w", err)
	}

	now := s.clock.Now()
	const weeks = 4
	for i := weeks - 1; i >= 0; i-- {
		end := now.Add(-time.Duration(i) * 7 * 24 * time.Hour)
		start := end.Add(-7 * 24 * time.Hour)
		n, err := s.count(ctx, "SELECT COUNT(*) FROM accounts WHERE created_at > ? AND created_at <= ?",
			clock.Stamp(start), clock.Stamp(end))
		if err != nil {
			return models.Analytics{}, fmt.Errorf("failed to compute weekly sign-ups: %w", err)
		}
		report.NewUsersWeekly = append(report.NewUsersWeekly, models.WeeklyCount{WeekStart: clock.Day(start), Count: n})
	}
	return report, nil
}

// Cleanup removes expired images and sessions.
func (s *AdminService) Cleanup(ctx context.Context, actor *models.Account) (models.CleanupResult, error) {
	var result models.CleanupResult
	var err error

	if result.ExpiredImages, result.FilesRemoved, err = s.images.CleanupExpired(ctx); err != nil {
		return models.CleanupResult{}, err
	}
	if s.sessions != nil {
		if result.ExpiredSessions, err = s.sessions.PurgeExpired(ctx); err != nil {
			return models.CleanupResult{}, err
		}
	}

	s.audit(ctx, EventCleanup, actor.ID, fmt.Sprintf("Removed %d expired images and %d expired sessions", result.ExpiredImages, result.ExpiredSessions))
	return result, nil
}

// UpdateTool edits the catalog and records who changed it.
func (s *AdminService) UpdateTool(ctx context.Context, actor *models.Account, id int64, upd models.ToolUpdate) (models.Tool, error) {
	tool, err := s.tools.UpdateTool(ctx, id, upd)
	if err != nil {
		return models.Tool{}, err
	}
	s.audit(ctx, EventToolUpdated, actor.ID, fmt.Sprintf("%s updated tool %s", actor.Username, tool.Key))
	return tool, nil
}

// ApproveImage publishes a pending image.
func (s *AdminService) ApproveImage(ctx context.Context, actor *models.Account, id int64) (models.UserImage, error) {
	img, err := s.images.Approve(ctx, id)
	if err != nil {
		return models.UserImage{}, err
	}
	s.audit(ctx, EventImageApproved, actor.ID, fmt.Sprintf("%s approved image %d of %s", actor.Username, id, img.Username))
	return img, nil
}

// RejectImage deletes an image and its file.
func (s *AdminService) RejectImage(ctx context.Context, actor *models.Account, id int64) error {
	if err := s.images.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, EventImageRejected, actor.ID, fmt.Sprintf("%s rejected image %d", actor.Username, id))
	return nil
}

func (s *AdminService) audit(ctx context.Context, eventType string, actorID int64, msg string) {
	if err := s.events.CreateEvent(ctx, eventType, "info", msg, &actorID); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record admin event")
	}
}
