package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/cache"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardIsOncePerDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	awarded, err := env.ledger.Award(ctx, user.ID, "smart_titles", 25)
	require.NoError(t, err)
	assert.True(t, awarded)

	awarded, err = env.ledger.Award(ctx, user.ID, "smart_titles", 25)
	require.NoError(t, err)
	assert.False(t, awarded)

	var entries int
	require.NoError(t, env.db.Get(&entries, "SELECT COUNT(*) FROM ledger_entries WHERE account_id = ?", user.ID))
	assert.Equal(t, 1, entries)
	assert.EqualValues(t, 25, env.reload(t, user.ID).Balance)
}

func TestAwardIsPerTool(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	for _, tool := range []string{"smart_titles", "smart_emoji", "tasks"} {
		awarded, err := env.ledger.Award(ctx, user.ID, tool, 25)
		require.NoError(t, err)
		assert.True(t, awarded, tool)
	}
	assert.EqualValues(t, 75, env.reload(t, user.ID).Balance)
}

func TestConcurrentAwardsCreditOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			awarded, err := env.ledger.Award(ctx, user.ID, "smart_titles", 25)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if awarded {
				granted++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, granted)
	assert.EqualValues(t, 25, env.reload(t, user.ID).Balance)
}

func TestAwardAgainOnNextDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	awarded, err := env.ledger.Award(ctx, user.ID, "smart_titles", 25)
	require.NoError(t, err)
	require.True(t, awarded)

	env.clock.Advance(24 * time.Hour)
	awarded, err = env.ledger.Award(ctx, user.ID, "smart_titles", 25)
	require.NoError(t, err)
	assert.True(t, awarded)
	assert.EqualValues(t, 50, env.reload(t, user.ID).Balance)
}

func TestAwardUsesServerLocalDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	riyadh := time.FixedZone("AST", 3*60*60)
	// 22:30 UTC on the 10th is already the 11th in UTC+3.
	env.clock.Set(time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC).In(riyadh))

	_, err := env.ledger.Award(ctx, user.ID, "smart_titles", 25)
	require.NoError(t, err)

	var day string
	require.NoError(t, env.db.Get(&day, "SELECT earned_on FROM ledger_entries WHERE account_id = ?", user.ID))
	assert.Equal(t, "2025-03-11", day)
}

func TestAwardValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	_, err := env.ledger.Award(ctx, user.ID, "smart_titles", 0)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = env.ledger.Award(ctx, user.ID, "  ", 25)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = env.ledger.Award(ctx, 9999, "smart_titles", 25)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestBalanceMatchesLedgerSum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	for day := 0; day < 3; day++ {
		for _, tool := range []string{"smart_titles", "tasks"} {
			_, err := env.ledger.Award(ctx, user.ID, tool, 25)
			require.NoError(t, err)
			_, err = env.ledger.Award(ctx, user.ID, tool, 25)
			require.NoError(t, err)
		}
		env.clock.Advance(24 * time.Hour)
	}

	var sum int64
	require.NoError(t, env.db.Get(&sum, "SELECT COALESCE(SUM(points), 0) FROM ledger_entries WHERE account_id = ?", user.ID))
	assert.EqualValues(t, 150, sum)
	assert.Equal(t, sum, env.reload(t, user.ID).Balance)

	history, err := env.ledger.History(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 6)
	assert.Equal(t, "2025-03-12", history[0].EarnedOn)
}

func TestEarnedToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	earned, err := env.ledger.EarnedToday(ctx, user.ID, "smart_titles")
	require.NoError(t, err)
	assert.False(t, earned)

	_, err = env.ledger.Award(ctx, user.ID, "smart_titles", 25)
	require.NoError(t, err)
	earned, err = env.ledger.EarnedToday(ctx, user.ID, "smart_titles")
	require.NoError(t, err)
	assert.True(t, earned)

	env.clock.Advance(24 * time.Hour)
	earned, err = env.ledger.EarnedToday(ctx, user.ID, "smart_titles")
	require.NoError(t, err)
	assert.False(t, earned)
}

func TestLeaderboardOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")
	env.register(t, "dave") // zero balance, excluded
	env.setBalance(t, alice.ID, 300)
	env.setBalance(t, bob.ID, 500)
	env.setBalance(t, carol.ID, 300)

	board, err := env.ledger.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 4) // seeded admin has 1000

	assert.Equal(t, "admin", board[0].Username)
	assert.Equal(t, "bob", board[1].Username)
	assert.Equal(t, "alice", board[2].Username, "ties break by registration order")
	assert.Equal(t, "carol", board[3].Username)
	for i, entry := range board {
		assert.Equal(t, i+1, entry.Rank)
	}

	board, err = env.ledger.Leaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, board, 2)
}

type recordingCache struct {
	cache.Noop
	invalidations int
}

func (c *recordingCache) Invalidate(context.Context) { c.invalidations++ }

func TestAwardInvalidatesLeaderboardCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	rc := &recordingCache{}
	ledger := NewLedgerService(env.db, env.clock, rc)

	_, err := ledger.Award(ctx, user.ID, "smart_titles", 25)
	require.NoError(t, err)
	_, err = ledger.Award(ctx, user.ID, "smart_titles", 25)
	require.NoError(t, err)
	assert.Equal(t, 1, rc.invalidations)
}

type racingCache struct {
	cache.Noop
	onGet func()
	sets  int
}

func (c *racingCache) Get(context.Context, int) ([]models.LeaderboardEntry, bool) {
	if c.onGet != nil {
		c.onGet()
	}
	return nil, false
}

func (c *racingCache) Set(context.Context, int, []models.LeaderboardEntry) { c.sets++ }

func TestLeaderboardSkipsCacheWriteAfterConcurrentAward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	rc := &racingCache{}
	ledger := NewLedgerService(env.db, env.clock, rc)
	rc.onGet = func() {
		rc.onGet = nil
		_, err := ledger.Award(ctx, user.ID, "smart_titles", 25)
		require.NoError(t, err)
	}

	_, err := ledger.Leaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, rc.sets, "a read overlapping an award must not refill the cache")

	board, err := ledger.Leaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, rc.sets)
	require.NotEmpty(t, board)
	assert.Equal(t, "alice", board[0].Username)
}

func newMockLedger(t *testing.T) (*LedgerService, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "sqlite")
	return NewLedgerService(db, clock.NewFake(day1), nil), mock
}

func TestAwardRollsBackWhenCreditFails(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(int64(7), "smart_titles", "2025-03-10", int64(25), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(int64(25), int64(7)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	awarded, err := ledger.Award(context.Background(), 7, "smart_titles", 25)
	assert.Error(t, err)
	assert.False(t, awarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardRollsBackWhenAccountMissing(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE accounts SET balance").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := ledger.Award(context.Background(), 7, "smart_titles", 25)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardDuplicateSkipsCredit(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	awarded, err := ledger.Award(context.Background(), 7, "smart_titles", 25)
	require.NoError(t, err)
	assert.False(t, awarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
