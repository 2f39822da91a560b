package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event services.
//
// The activity log is best effort. The user, friend and post services write
// to it through recordEvent, which logs a failed write and still reports the
// action as done. Writes that an operation depends on must return their
// storage error instead.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error
	GetEventsForUser(ctx context.Context, userID int64, limit int) ([]models.Event, error)
}

// EventService records user activity.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.UserID, event.CreatedAt)
	if err != nil {
		return storageErr("insert event", err)
	}
	return nil
}

// GetEventsForUser retrieves the most recent events recorded for a user.
func (s *EventService) GetEventsForUser(ctx context.Context, userID int64, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, level, message, user_id, created_at
		FROM events
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		var uid sql.NullInt64
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &uid, &event.CreatedAt); err != nil {
			return nil, storageErr("scan event", err)
		}
		if uid.Valid {
			id := uid.Int64
			event.UserID = &id
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}

// recordEvent writes an info event for a completed user action. A failure to
// record is logged and never fails the action itself. Use it only for the
// activity log, never for data the action's result depends on.
func recordEvent(ctx context.Context, events EventServiceProvider, eventType, message string, userID int64) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, eventType, "info", message, &userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Int64("user_id", userID).Msg("Failed to record event")
	}
}
