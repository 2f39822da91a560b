package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/socialnet/internal/models"
)

// SessionServiceProvider defines the interface for session services.
type SessionServiceProvider interface {
	Create(ctx context.Context, userID int64, remember bool) (models.Session, error)
	CurrentUser(ctx context.Context, sessionID string) (*models.User, error)
	Destroy(ctx context.Context, sessionID string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionService keeps the server-side record of logged-in users.
type SessionService struct {
	db          *sql.DB
	ttl         time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

// NewSessionService creates a new SessionService. Sessions live for ttl, or
// rememberTTL when the user asked to be remembered.
func NewSessionService(db *sql.DB, ttl, rememberTTL time.Duration) *SessionService {
	return &SessionService{
		db:          db,
		ttl:         ttl,
		rememberTTL: rememberTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create establishes a new session bound to userID.
func (s *SessionService) Create(ctx context.Context, userID int64, remember bool) (models.Session, error) {
	now := s.now()
	lifetime := s.ttl
	if remember {
		lifetime = s.rememberTTL
	}

	session := models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Remember:  remember,
		CreatedAt: now,
		ExpiresAt: now.Add(lifetime),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, remember, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		session.ID, session.UserID, session.Remember, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return models.Session{}, storageErr("insert session", err)
	}
	return session, nil
}

// Get loads a session by ID.
func (s *SessionService) Get(ctx context.Context, sessionID string) (models.Session, error) {
	var session models.Session
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, remember, created_at, expires_at FROM sessions WHERE id = ?", sessionID,
	).Scan(&session.ID, &session.UserID, &session.Remember, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, fmt.Errorf("session: %w", ErrNotFound)
		}
		return models.Session{}, storageErr("get session", err)
	}
	return session, nil
}

// CurrentUser resolves the user acting through sessionID. A nil user with a
// nil error means the request is anonymous.
func (s *SessionService) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, nil
	}

	user, err := getUserBy(ctx, s.db, "id", session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	user.PasswordHash = ""
	return &user, nil
}

// Destroy invalidates a session immediately. Destroying an unknown or
// already destroyed session is not an error.
func (s *SessionService) Destroy(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

// PurgeExpired deletes every expired session and returns how many were removed.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", s.now())
	if err != nil {
		return 0, storageErr("purge sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("purge sessions", err)
	}
	return n, nil
}
