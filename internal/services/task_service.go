package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// TaskResult is the response to creating a task.
type TaskResult struct {
	Task          models.Task `json:"task"`
	PointsAwarded bool        `json:"points_awarded"`
	UserPoints    int64       `json:"user_points"`
}

// TaskServiceProvider defines the interface for the tasks tool.
type TaskServiceProvider interface {
	ListTasks(ctx context.Context, accountID int64) ([]models.Task, error)
	CreateTask(ctx context.Context, account *models.Account, title, description string) (TaskResult, error)
	CompleteTask(ctx context.Context, accountID, id int64) (models.Task, error)
	DeleteTask(ctx context.Context, accountID, id int64) error
}

// TaskService manages personal task lists.
type TaskService struct {
	db       *sqlx.DB
	clock    clock.Clock
	tools    ToolServiceProvider
	accounts AccountServiceProvider
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sqlx.DB, clk clock.Clock, tools ToolServiceProvider, accounts AccountServiceProvider) *TaskService {
	return &TaskService{db: db, clock: clk, tools: tools, accounts: accounts}
}

const taskColumns = "id, account_id, title, description, is_completed, created_at, completed_at"

// ListTasks returns the account's tasks, newest first.
func (s *TaskService) ListTasks(ctx context.Context, accountID int64) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(
		"SELECT "+taskColumns+" FROM tasks WHERE account_id = ? ORDER BY created_at DESC, id DESC"), accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask adds a task and credits the tasks tool's daily reward.
func (s *TaskService) CreateTask(ctx context.Context, account *models.Account, title, description string) (TaskResult, error) {
	tool, err := s.tools.RequireUsable(ctx, account, models.ToolTasks)
	if err != nil {
		return TaskResult{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return TaskResult{}, apperror.Validation("title is required")
	}

	task := models.Task{
		AccountID:   account.ID,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   clock.Stamp(s.clock.Now()),
	}
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO tasks (account_id, title, description, is_completed, created_at)
		VALUES (?, ?, ?, FALSE, ?) RETURNING id`),
		task.AccountID, task.Title, task.Description, task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		return TaskResult{}, fmt.Errorf("failed to create task: %w", err)
	}

	awarded, err := s.tools.AwardForUse(ctx, account.ID, tool)
	if err != nil {
		return TaskResult{}, err
	}
	fresh, err := s.accounts.GetAccountByID(ctx, account.ID)
	if err != nil {
		return TaskResult{}, err
	}
	return TaskResult{Task: task, PointsAwarded: awarded, UserPoints: fresh.Balance}, nil
}

func (s *TaskService) getOwned(ctx context.Context, accountID, id int64) (models.Task, error) {
	var task models.Task
	err := s.db.GetContext(ctx, &task, s.db.Rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND account_id = ?"), id, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, apperror.NotFound("task not found")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to load task %d: %w", id, err)
	}
	return task, nil
}

// CompleteTask marks one of the account's tasks as done.
func (s *TaskService) CompleteTask(ctx context.Context, accountID, id int64) (models.Task, error) {
	task, err := s.getOwned(ctx, accountID, id)
	if err != nil {
		return models.Task{}, err
	}
	if task.IsCompleted {
		return task, nil
	}

	now := clock.Stamp(s.clock.Now())
	_, err = s.db.ExecContext(ctx, s.db.Rebind("UPDATE tasks SET is_completed = TRUE, completed_at = ? WHERE id = ?"), now, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to complete task %d: %w", id, err)
	}
	task.IsCompleted = true
	task.CompletedAt = &now
	return task, nil
}

// DeleteTask removes one of the account's tasks.
func (s *TaskService) DeleteTask(ctx context.Context, accountID, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM tasks WHERE id = ? AND account_id = ?"), id, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("task not found")
	}
	return nil
}
