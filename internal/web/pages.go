package web

import "github.com/isdelr/socialnet/internal/models"

// IndexData backs the login/register page.
type IndexData struct {
	LoginUsername string
	Register      RegisterValues
}

// RegisterValues echoes the registration form after a failed submit.
type RegisterValues struct {
	Username  string
	FirstName string
	LastName  string
}

// StreamData backs the stream page.
type StreamData struct {
	Username string
	Entries  []models.StreamEntry
	Content  string
}

// CommentsData backs the comments page.
type CommentsData struct {
	Username string
	Post     models.PostView
	Comments []models.Comment
}

// FriendsData backs the friends page.
type FriendsData struct {
	Username string
	Friends  []models.User
}

// ProfileData backs the profile page. Form fills the edit form: the stored
// profile normally, the submitted values after a rejected update.
type ProfileData struct {
	Username string
	Profile  models.User
	Editable bool
	Form     ProfileValues
	Events   []models.Event
}

// ProfileValues are the edit form's field values.
type ProfileValues struct {
	Education   string
	Employment  string
	Music       string
	Movie       string
	Nationality string
	Birthday    string
}

// ProfileValuesOf returns the form values for a stored profile.
func ProfileValuesOf(u models.User) ProfileValues {
	v := ProfileValues{
		Education:   u.Education,
		Employment:  u.Employment,
		Music:       u.Music,
		Movie:       u.Movie,
		Nationality: u.Nationality,
	}
	if u.Birthday != nil {
		v.Birthday = u.Birthday.Format("2006-01-02")
	}
	return v
}
