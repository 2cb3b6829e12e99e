package auth

import (
	"regexp"
	"strings"
)

// Local part, "@", dotted domain, 2-7 letter top-level label.
var emailPattern = regexp.MustCompile(`^[\w-]+(\.[\w-]+)*@([\w-]+\.)+[a-zA-Z]{2,7}$`)

const minPasswordLength = 6

// ValidateSignup checks the shape of signup input. It is pure and has no
// side effects; persistence-level checks (uniqueness) happen elsewhere.
func ValidateSignup(username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return ErrAllFieldsRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return ValidatePassword(password)
}

// ValidatePassword enforces the password policy shared by signup and
// password reset.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
