package services

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/smarttools-be/internal/cache"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/database/databasetest"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	db       *sqlx.DB
	clock    *clock.Fake
	accounts *AccountService
	ledger   *LedgerService
	tools    *ToolService
	tasks    *TaskService
	posts    *PostService
	comments *CommentService
	images   *ImageService
	events   *EventService
	admin    *AdminService
}

// day1 is a fixed noon so that hour-level advances stay within the day.
var day1 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := databasetest.Open(t)
	clk := clock.NewFake(day1)

	env := &testEnv{db: db, clock: clk}
	env.accounts = NewAccountService(db, clk).WithHashCost(bcrypt.MinCost)
	env.ledger = NewLedgerService(db, clk, cache.Noop{})
	env.tools = NewToolService(db, env.ledger, env.accounts)
	env.tasks = NewTaskService(db, clk, env.tools, env.accounts)
	env.events = NewEventService(db, clk)
	env.posts = NewPostService(db, clk, env.events)
	env.comments = NewCommentService(db, clk, env.posts)

	images, err := NewImageService(db, clk, env.tools, t.TempDir())
	require.NoError(t, err)
	env.images = images

	env.admin = NewAdminService(db, clk, env.accounts, env.ledger, env.tools, env.images, env.events, nil, nil)
	return env
}

func (e *testEnv) register(t *testing.T, username string) models.Account {
	t.Helper()
	account, err := e.accounts.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password",
	})
	require.NoError(t, err)
	return account
}

func (e *testEnv) setBalance(t *testing.T, id, balance int64) {
	t.Helper()
	_, err := e.db.Exec("UPDATE accounts SET balance = ? WHERE id = ?", balance, id)
	require.NoError(t, err)
}

func (e *testEnv) reload(t *testing.T, id int64) models.Account {
	t.Helper()
	account, err := e.accounts.GetAccountByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

func (e *testEnv) adminAccount(t *testing.T) models.Account {
	t.Helper()
	return e.reload(t, 1)
}
