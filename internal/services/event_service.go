package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// Event types written by the admin console.
const (
	EventAdminToggled   = "admin.toggle_admin"
	EventBalanceChanged = "admin.balance_override"
	EventAccountDeleted = "admin.delete_user"
	EventToolUpdated    = "admin.tool_update"
	EventImageApproved  = "admin.image_approve"
	EventImageRejected  = "admin.image_reject"
	EventCleanup        = "admin.cleanup"
	EventPostChanged    = "admin.post_change"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, actorID *int64) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// EventService keeps the append-only audit log.
type EventService struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewEventService creates a new EventService.
func NewEventService(db *sqlx.DB, clk clock.Clock) *EventService {
	return &EventService{db: db, clock: clk}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, actorID *int64) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		ActorID:   actorID,
		CreatedAt: clock.Stamp(s.clock.Now()),
	}

	_, err := s.db.NamedExecContext(ctx,
		"INSERT INTO events (id, type, level, message, actor_id, created_at) VALUES (:id, :type, :level, :message, :actor_id, :created_at)",
		event)
	return err
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, 200)
	events := []models.Event{}
	err := s.db.SelectContext(ctx, &events, s.db.Rebind(
		"SELECT seq, id, type, level, message, actor_id, created_at FROM events ORDER BY created_at DESC, seq DESC LIMIT ?"), limit)
	return events, err
}
