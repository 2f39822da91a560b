package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/socialnet/internal/database"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newTestDB creates a migrated SQLite database in a temp directory.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUserService(db *sql.DB, events EventServiceProvider) *UserService {
	svc := NewUserService(db, events)
	svc.cost = bcrypt.MinCost
	return svc
}

// mustRegister creates a user with a fixed password.
func mustRegister(t *testing.T, svc *UserService, username string) models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	return user
}

// steppingClock returns a clock that advances by one second per call.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}
