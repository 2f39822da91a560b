package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/socialnet/internal/models"
)

// PostServiceProvider defines the interface for posts and comments.
type PostServiceProvider interface {
	CreatePost(ctx context.Context, authorID int64, content, image string) (models.Post, error)
	GetPost(ctx context.Context, postID int64) (models.PostView, error)
	CreateComment(ctx context.Context, postID, authorID int64, content string) (models.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)
}

// PostService provides business logic for posts and their comments.
type PostService struct {
	db     *sql.DB
	events EventServiceProvider
	now    func() time.Time
}

// NewPostService creates a new PostService. events may be nil. Activity log
// writes are best effort: their failures are logged, not returned.
func NewPostService(db *sql.DB, events EventServiceProvider) *PostService {
	return &PostService{
		db:     db,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreatePost stores a new post. image is a reference returned by the upload
// store, or empty.
func (s *PostService) CreatePost(ctx context.Context, authorID int64, content, image string) (models.Post, error) {
	in := contentInput{Content: strings.TrimSpace(content)}
	if err := Validate(in); err != nil {
		return models.Post{}, err
	}

	post := models.Post{
		AuthorID:  authorID,
		Content:   in.Content,
		Image:     image,
		CreatedAt: s.now(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (author_id, content, image, created_at) VALUES (?, ?, ?, ?)",
		post.AuthorID, post.Content, post.Image, post.CreatedAt)
	if err != nil {
		return models.Post{}, storageErr("insert post", err)
	}
	if post.ID, err = res.LastInsertId(); err != nil {
		return models.Post{}, storageErr("insert post", err)
	}

	recordEvent(ctx, s.events, "post.create", fmt.Sprintf("Created post %d", post.ID), authorID)
	return post, nil
}

// GetPost retrieves a post together with its author.
func (s *PostService) GetPost(ctx context.Context, postID int64) (models.PostView, error) {
	var view models.PostView
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.author_id, p.content, p.image, p.created_at,
		       u.id, u.username, u.first_name, u.last_name
		FROM posts AS p JOIN users AS u ON u.id = p.author_id
		WHERE p.id = ?`, postID,
	).Scan(
		&view.ID, &view.AuthorID, &view.Content, &view.Image, &view.CreatedAt,
		&view.Author.ID, &view.Author.Username, &view.Author.FirstName, &view.Author.LastName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PostView{}, fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		return models.PostView{}, storageErr("get post", err)
	}
	return view, nil
}

// CreateComment adds a comment to an existing post.
func (s *PostService) CreateComment(ctx context.Context, postID, authorID int64, content string) (models.Comment, error) {
	in := contentInput{Content: strings.TrimSpace(content)}
	if err := Validate(in); err != nil {
		return models.Comment{}, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM posts WHERE id = ?", postID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Comment{}, fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		return models.Comment{}, storageErr("check post", err)
	}

	comment := models.Comment{
		PostID:    postID,
		AuthorID:  authorID,
		Content:   in.Content,
		CreatedAt: s.now(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO comments (post_id, author_id, content, created_at) VALUES (?, ?, ?, ?)",
		comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if err != nil {
		return models.Comment{}, storageErr("insert comment", err)
	}
	if comment.ID, err = res.LastInsertId(); err != nil {
		return models.Comment{}, storageErr("insert comment", err)
	}

	recordEvent(ctx, s.events, "comment.create", fmt.Sprintf("Commented on post %d", postID), authorID)
	return comment, nil
}

// ListComments returns the comments of a post, newest first.
func (s *PostService) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.content, c.created_at,
		       u.id, u.username, u.first_name, u.last_name
		FROM comments AS c JOIN users AS u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.created_at DESC, c.id DESC`, postID)
	if err != nil {
		return nil, storageErr("list comments", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt,
			&c.Author.ID, &c.Author.Username, &c.Author.FirstName, &c.Author.LastName,
		); err != nil {
			return nil, storageErr("scan comment", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list comments", err)
	}
	return comments, nil
}
