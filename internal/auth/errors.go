package auth

import "errors"

var (
	// Validation
	ErrAllFieldsRequired  = errors.New("all fields are required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters long")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")

	// Credentials. The same error covers unknown identifier and wrong
	// password so responses cannot be used to probe for accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrDuplicateUser = errors.New("user with that email or username already exists")
	ErrUserNotFound  = errors.New("user not found")

	// Tokens
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")

	// Reset credentials. Wrong and expired tokens are indistinguishable
	// on purpose.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)
