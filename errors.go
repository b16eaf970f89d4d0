package photoapi

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned when the login password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a bearer token is missing or invalid
	ErrUnauthorized = errors.New("unauthorized")
)
