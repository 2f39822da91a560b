package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ReportsFormFieldNames(t *testing.T) {
	err := Validate(RegisterInput{Username: "a", FirstName: "Ann", LastName: "Lee", Password: "long-enough"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"username": "Input too short"}, verr.Fields)
	assert.Contains(t, err.Error(), "username: Input too short")
}

func TestValidate_UnicodeNames(t *testing.T) {
	err := Validate(RegisterInput{Username: "bjørn.ås", FirstName: "Bjørn", LastName: "Åsen", Password: "long-enough"})
	assert.NoError(t, err)
}

func TestValidate_Profile(t *testing.T) {
	assert.NoError(t, Validate(ProfileInput{}))
	assert.NoError(t, Validate(ProfileInput{Birthday: "2000-02-29"}))
	assert.Error(t, Validate(ProfileInput{Birthday: "yesterday"}))
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(ErrSelfFriend))
	assert.True(t, IsUserError(&ValidationError{Fields: map[string]string{"x": "y"}}))
	assert.False(t, IsUserError(storageErr("op", errors.New("boom"))))
	assert.False(t, IsUserError(errors.New("unknown")))
}
