package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/socialnet/internal/database"
	"github.com/isdelr/socialnet/internal/models"
)

// FriendServiceProvider defines the interface for the friend graph.
type FriendServiceProvider interface {
	AddFriend(ctx context.Context, ownerID int64, friendUsername string) (models.User, error)
	ListFriends(ctx context.Context, ownerID int64) ([]models.User, error)
}

// FriendService maintains friendships between users.
type FriendService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewFriendService creates a new FriendService. events may be nil. Activity log
// writes are best effort: their failures are logged, not returned.
func NewFriendService(db *sql.DB, events EventServiceProvider) *FriendService {
	return &FriendService{db: db, events: events}
}

// AddFriend befriends ownerID and the user called friendUsername. Both
// directions are inserted in one transaction.
func (s *FriendService) AddFriend(ctx context.Context, ownerID int64, friendUsername string) (models.User, error) {
	friend, err := getUserBy(ctx, s.db, "username", strings.TrimSpace(friendUsername))
	if err != nil {
		return models.User{}, err
	}
	friend.PasswordHash = ""
	if friend.ID == ownerID {
		return models.User{}, ErrSelfFriend
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, storageErr("begin add friend", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM friends
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		ownerID, friend.ID, friend.ID, ownerID,
	).Scan(&existing)
	if err != nil {
		return models.User{}, storageErr("check friendship", err)
	}
	if existing > 0 {
		return models.User{}, ErrAlreadyFriends
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO friends (user_id, friend_id, created_at) VALUES (?, ?, ?), (?, ?, ?)",
		ownerID, friend.ID, now, friend.ID, ownerID, now)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return models.User{}, ErrAlreadyFriends
		case database.IsCheckViolation(err):
			return models.User{}, ErrSelfFriend
		}
		return models.User{}, storageErr("insert friendship", err)
	}

	if err := tx.Commit(); err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, ErrAlreadyFriends
		}
		return models.User{}, storageErr("commit friendship", err)
	}

	recordEvent(ctx, s.events, "friend.add", fmt.Sprintf("Became friends with %s", friend.Username), ownerID)
	return friend, nil
}

// ListFriends returns every user connected to ownerID by an edge in either
// direction, in the order the friendships were created.
func (s *FriendService) ListFriends(ctx context.Context, ownerID int64) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.password_hash,
		       u.education, u.employment, u.music, u.movie, u.nationality, u.birthday, u.created_at
		FROM users AS u
		JOIN (
			SELECT other, MIN(seq) AS seq
			FROM (
				SELECT friend_id AS other, id AS seq FROM friends WHERE user_id = ?
				UNION ALL
				SELECT user_id AS other, id AS seq FROM friends WHERE friend_id = ?
			)
			GROUP BY other
		) AS e ON e.other = u.id
		WHERE u.id <> ?
		ORDER BY e.seq`, ownerID, ownerID, ownerID)
	if err != nil {
		return nil, storageErr("list friends", err)
	}
	defer rows.Close()

	friends := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storageErr("scan friend", err)
		}
		user.PasswordHash = ""
		friends = append(friends, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list friends", err)
	}
	return friends, nil
}

// friendIDs returns the IDs of ownerID's friends.
func friendIDs(ctx context.Context, db *sql.DB, ownerID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT friend_id FROM friends WHERE user_id = ?
		UNION
		SELECT user_id FROM friends WHERE friend_id = ?`, ownerID, ownerID)
	if err != nil {
		return nil, storageErr("list friend ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan friend id", err)
		}
		if id != ownerID {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list friend ids", err)
	}
	return ids, nil
}
