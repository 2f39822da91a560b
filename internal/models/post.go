package models

import "time"

// Post is a status update written by a user, optionally with one image.
type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"` // Upload reference, empty when absent
	CreatedAt time.Time `json:"createdAt"`
}

// PostView is a post joined with its author's identity.
type PostView struct {
	Post
	Author Author `json:"author"`
}

// StreamEntry is one row of a user's stream.
type StreamEntry struct {
	Post
	Author       Author `json:"author"`
	CommentCount int    `json:"commentCount"`
}
