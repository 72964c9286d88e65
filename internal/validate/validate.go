// Package validate holds the client-side checks run before credentials are
// sent to the server.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const passwordSpecials = `!@#$%^&*()_+[]{};':"\|,.<>/?`

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// FieldError reports an invalid form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors collects every failing field of a form.
type Errors []*FieldError

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.As find individual field errors.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// Field returns the error for name, or nil.
func (es Errors) Field(name string) *FieldError {
	for _, e := range es {
		if e.Field == name {
			return e
		}
	}
	return nil
}

// Email checks the address shape.
func Email(email string) *FieldError {
	if strings.TrimSpace(email) == "" {
		return &FieldError{Field: "email", Message: "email is required"}
	}
	if !emailRegexp.MatchString(email) {
		return &FieldError{Field: "email", Message: "enter a valid email address"}
	}
	return nil
}

// Password requires at least eight characters including an uppercase letter
// and a special character.
func Password(password string) *FieldError {
	if len([]rune(password)) < MinPasswordLength {
		return &FieldError{Field: "password", Message: "password must be at least 8 characters"}
	}
	var upper, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r) && r < unicode.MaxASCII:
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !upper {
		return &FieldError{Field: "password", Message: "password must contain an uppercase letter"}
	}
	if !special {
		return &FieldError{Field: "password", Message: "password must contain a special character"}
	}
	return nil
}

// Username requires a non-blank name without whitespace.
func Username(username string) *FieldError {
	if strings.TrimSpace(username) == "" {
		return &FieldError{Field: "username", Message: "username is required"}
	}
	if strings.ContainsFunc(username, unicode.IsSpace) {
		return &FieldError{Field: "username", Message: "username cannot contain spaces"}
	}
	return nil
}

// Login validates the sign-in form. The password is only checked for
// presence since older accounts may predate the strength rules.
func Login(username, password string) error {
	var es Errors
	if strings.TrimSpace(username) == "" {
		es = append(es, &FieldError{Field: "username", Message: "username is required"})
	}
	if password == "" {
		es = append(es, &FieldError{Field: "password", Message: "password is required"})
	}
	return es.orNil()
}

// Register validates the sign-up form.
func Register(username, email, password string) error {
	var es Errors
	for _, e := range []*FieldError{Username(username), Email(email), Password(password)} {
		if e != nil {
			es = append(es, e)
		}
	}
	return es.orNil()
}

func (es Errors) orNil() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// AsErrors extracts the field errors from err, if any.
func AsErrors(err error) (Errors, bool) {
	var es Errors
	if errors.As(err, &es) {
		return es, true
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return Errors{fe}, true
	}
	return nil, false
}
