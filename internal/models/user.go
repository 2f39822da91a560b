package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	PasswordHash string     `json:"-"` // Never expose this to the client
	Education    string     `json:"education,omitempty"`
	Employment   string     `json:"employment,omitempty"`
	Music        string     `json:"music,omitempty"`
	Movie        string     `json:"movie,omitempty"`
	Nationality  string     `json:"nationality,omitempty"`
	Birthday     *time.Time `json:"birthday,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// DisplayName returns "First Last".
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Profile holds the optional, user-editable profile attributes.
type Profile struct {
	Education   string
	Employment  string
	Music       string
	Movie       string
	Nationality string
	Birthday    *time.Time
}

// Author is the public identity shown next to posts and comments.
type Author struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
