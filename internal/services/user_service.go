package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/socialnet/internal/database"
	"github.com/isdelr/socialnet/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, in ProfileInput) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db     *sql.DB
	events EventServiceProvider
	cost   int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new UserService. events may be nil. Activity log
// writes are best effort: their failures are logged, not returned.
func NewUserService(db *sql.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events, cost: bcrypt.DefaultCost}
}

const userColumns = `id, username, first_name, last_name, password_hash,
	education, employment, music, movie, nationality, birthday, created_at`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// scanUser is a helper to scan a user from a row or rows object.
func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var birthday sql.NullTime
	err := scanner.Scan(
		&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.Education, &user.Employment, &user.Music, &user.Movie, &user.Nationality,
		&birthday, &user.CreatedAt,
	)
	if err != nil {
		return user, err
	}
	if birthday.Valid {
		b := birthday.Time
		user.Birthday = &b
	}
	return user, nil
}

func getUserBy(ctx context.Context, q querier, column string, value interface{}) (models.User, error) {
	// column is always one of the two literals below, never user input.
	var query string
	switch column {
	case "id":
		query = "SELECT " + userColumns + " FROM users WHERE id = ?"
	case "username":
		query = "SELECT " + userColumns + " FROM users WHERE username = ?"
	default:
		return models.User{}, fmt.Errorf("unsupported lookup column %q", column)
	}

	user, err := scanUser(q.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %v: %w", value, ErrNotFound)
		}
		return models.User{}, storageErr("get user", err)
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	user, err := getUserBy(ctx, s.db, "id", id)
	user.PasswordHash = ""
	return user, err
}

// GetUserByUsername retrieves a single user by their username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := getUserBy(ctx, s.db, "username", username)
	user.PasswordHash = ""
	return user, err
}

// Register creates a new user, hashing their password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := Validate(in); err != nil {
		return models.User{}, err
	}

	if _, err := getUserBy(ctx, s.db, "username", in.Username); err == nil {
		return models.User{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return models.User{}, &ValidationError{Fields: map[string]string{"password": messages["maxbytes"]}}
		}
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, first_name, last_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		in.Username, in.FirstName, in.LastName, string(hashedPassword), now)
	if err != nil {
		// Lost a race with a concurrent registration of the same name.
		if database.IsUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, storageErr("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, storageErr("insert user", err)
	}

	user := models.User{
		ID:        id,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
	}
	recordEvent(ctx, s.events, "user.register", fmt.Sprintf("User %s registered", user.Username), user.ID)
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := getUserBy(ctx, s.db, "username", strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Spend the same time as a real comparison.
			bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	recordEvent(ctx, s.events, "user.login", fmt.Sprintf("User %s logged in", user.Username), user.ID)
	return user, nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

// UpdateProfile replaces the profile attributes of a user.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (models.User, error) {
	if err := Validate(in); err != nil {
		return models.User{}, err
	}

	var birthday sql.NullTime
	if in.Birthday != "" {
		t, err := time.Parse("2006-01-02", in.Birthday)
		if err != nil {
			return models.User{}, &ValidationError{Fields: map[string]string{"birthday": "Invalid date"}}
		}
		birthday = sql.NullTime{Time: t, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET education = ?, employment = ?, music = ?, movie = ?, nationality = ?, birthday = ?
		WHERE id = ?`,
		strings.TrimSpace(in.Education), strings.TrimSpace(in.Employment),
		strings.TrimSpace(in.Music), strings.TrimSpace(in.Movie),
		strings.TrimSpace(in.Nationality), birthday, id)
	if err != nil {
		return models.User{}, storageErr("update profile", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.User{}, storageErr("update profile", err)
	} else if n == 0 {
		return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return s.GetUserByID(ctx, id)
}
