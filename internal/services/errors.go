package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("either the username or password is wrong")
	// ErrConflict is returned when a username is already taken.
	ErrConflict = errors.New("username already exists")
	// ErrNotFound is returned for unknown users, posts and friends.
	ErrNotFound = errors.New("not found")
	// ErrSelfFriend is returned when a user tries to befriend themselves.
	ErrSelfFriend = errors.New("you cannot be friends with yourself")
	// ErrAlreadyFriends is returned when the friendship already exists.
	ErrAlreadyFriends = errors.New("you are already friends with this user")
)

// ValidationError lists the form fields that violated their constraints.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StorageError wraps a failure of the underlying database. It is never a
// user error and must surface as a server error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsUserError reports whether err is an expected, user-facing failure that
// should be shown as a notice rather than a server error.
func IsUserError(err error) bool {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return true
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrSelfFriend),
		errors.Is(err, ErrAlreadyFriends):
		return true
	}
	return false
}
