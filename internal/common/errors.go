// Package common defines sentinel errors and small helpers shared by the
// fintrack server and the finctl client. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrValidation = errors.New("validation error")

	// Account errors.
	ErrDuplicateUser      = errors.New("email or username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Auth gate errors.
	ErrMissingToken = errors.New("access denied, no token provided")
	ErrInvalidToken = errors.New("invalid token")

	ErrRateLimited = errors.New("rate limit exceeded")

	// Export is not configured on this server.
	ErrExportDisabled = errors.New("export is not configured")
)
