package domain

import "errors"

var (
	// ErrUnauthenticated covers missing, malformed, expired and unknown-subject tokens.
	ErrUnauthenticated = errors.New("invalid or expired token")
	// ErrForbidden signals a role or ownership violation.
	ErrForbidden = errors.New("not allowed to perform this action")
	// ErrInvalidInput signals a request that passed binding but fails domain validation.
	ErrInvalidInput = errors.New("invalid input")

	ErrUserNotFound       = errors.New("user not found")
	ErrListNotFound       = errors.New("vocab list not found")
	ErrColumnNotFound     = errors.New("column not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrFieldValueNotFound = errors.New("field value not found")

	ErrUsernameTaken   = errors.New("username already registered")
	ErrEmailTaken      = errors.New("email already registered")
	ErrAlreadyActive   = errors.New("user is already active")
	ErrAlreadyInactive = errors.New("user is already deactivated")

	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrUserInactive is returned when a deactivated account tries to authenticate.
	ErrUserInactive = errors.New("user account is deactivated")
	// ErrStorageDisabled is returned by export operations without a configured bucket.
	ErrStorageDisabled = errors.New("export storage is not configured")
)
