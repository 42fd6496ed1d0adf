package user

import "errors"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidInput indicates invalid user input.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrForbidden indicates the acting user lacks the required permission.
	ErrForbidden = errors.New("permission denied")
	// ErrSuperImmutable indicates an attempt to modify a super user.
	ErrSuperImmutable = errors.New("super users cannot be modified")
	// ErrEmailTaken indicates another user already has the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken indicates the bearer token doesn't resolve to a user.
	ErrInvalidToken = errors.New("invalid token")
)
