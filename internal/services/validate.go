package services

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@-]+$`)
	namePattern     = regexp.MustCompile(`^[\p{L}\p{N}_.@+'-]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their form name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("text", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
				return false
			}
		}
		return true
	})
	// max counts runes; bcrypt's limit is in bytes.
	v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

var messages = map[string]string{
	"required":   "This field is required",
	"min":        "Input too short",
	"max":        "Input too long",
	"maxbytes":   "Input too long",
	"username":   "Only letters, digits and . @ _ - are allowed",
	"personname": "Only letters, digits and . @ + ' _ - are allowed",
	"text":       "Control characters are not allowed",
	"eqfield":    "Passwords must match",
}

// Validate checks s against its `validate` tags and returns a
// *ValidationError describing every failing field.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		fields[fe.Field()] = msg
	}
	return &ValidationError{Fields: fields}
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Username  string `form:"username" validate:"required,min=2,max=30,username"`
	FirstName string `form:"first_name" validate:"required,min=2,max=30,personname"`
	LastName  string `form:"last_name" validate:"required,min=2,max=30,personname"`
	Password  string `form:"password" validate:"required,min=8,maxbytes=72"`
}

// ProfileInput holds the editable profile fields. Empty values clear a field.
type ProfileInput struct {
	Education   string `form:"education" validate:"max=200,text"`
	Employment  string `form:"employment" validate:"max=200,text"`
	Music       string `form:"music" validate:"max=200,text"`
	Movie       string `form:"movie" validate:"max=200,text"`
	Nationality string `form:"nationality" validate:"max=200,text"`
	Birthday    string `form:"birthday" validate:"omitempty,datetime=2006-01-02"`
}

type contentInput struct {
	Content string `form:"content" validate:"required,min=1,max=200,text"`
}

// ValidateContent checks post or comment text without storing anything.
func ValidateContent(content string) error {
	return Validate(contentInput{Content: strings.TrimSpace(content)})
}
