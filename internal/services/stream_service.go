package services

import (
	"context"
	"database/sql"

	"github.com/isdelr/socialnet/internal/models"
)

// StreamServiceProvider defines the interface for the stream aggregator.
type StreamServiceProvider interface {
	GetStream(ctx context.Context, userID int64) ([]models.StreamEntry, error)
	Audience(ctx context.Context, authorID int64) ([]int64, error)
}

// StreamService builds users' streams from their own and their friends' posts.
type StreamService struct {
	db *sql.DB
}

// NewStreamService creates a new StreamService.
func NewStreamService(db *sql.DB) *StreamService {
	return &StreamService{db: db}
}

// GetStream returns the posts written by userID or any of their friends,
// newest first. Comment counts are taken in the same statement.
func (s *StreamService) GetStream(ctx context.Context, userID int64) ([]models.StreamEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.author_id, p.content, p.image, p.created_at,
		       u.id, u.username, u.first_name, u.last_name,
		       (SELECT COUNT(*) FROM comments AS c WHERE c.post_id = p.id) AS comment_count
		FROM posts AS p JOIN users AS u ON u.id = p.author_id
		WHERE p.author_id = ?
		   OR p.author_id IN (SELECT friend_id FROM friends WHERE user_id = ?)
		   OR p.author_id IN (SELECT user_id FROM friends WHERE friend_id = ?)
		ORDER BY p.created_at DESC, p.id DESC`, userID, userID, userID)
	if err != nil {
		return nil, storageErr("get stream", err)
	}
	defer rows.Close()

	stream := []models.StreamEntry{}
	for rows.Next() {
		var e models.StreamEntry
		if err := rows.Scan(
			&e.ID, &e.AuthorID, &e.Content, &e.Image, &e.CreatedAt,
			&e.Author.ID, &e.Author.Username, &e.Author.FirstName, &e.Author.LastName,
			&e.CommentCount,
		); err != nil {
			return nil, storageErr("scan stream entry", err)
		}
		stream = append(stream, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get stream", err)
	}
	return stream, nil
}

// Audience returns the users whose stream shows posts by authorID: the
// author and every friend.
func (s *StreamService) Audience(ctx context.Context, authorID int64) ([]int64, error) {
	ids, err := friendIDs(ctx, s.db, authorID)
	if err != nil {
		return nil, err
	}
	return append([]int64{authorID}, ids...), nil
}
