package models

import "time"

// Session is the server-side record of a login. Deleting it logs the user out.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Remember  bool      `json:"remember"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
