package errs

import (
	"errors"
	"net/http"
)

// Authentication & Authorization Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingSession     = errors.New("missing session")
	ErrInvalidSession     = errors.New("invalid session")
	ErrSessionExpired     = errors.New("session expired")
)

// Authentication & Authorization Error Constructors
func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidCredentials,
	}
}

func NewMissingSessionError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrMissingSession,
		Field:      "session",
	}
}

func NewInvalidSessionError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidSession,
		Field:      "session",
	}
}

func NewSessionExpiredError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrSessionExpired,
		Details:    "Session has expired",
		Field:      "session",
	}
}

// Authentication & Authorization Error Type Checkers
func IsInvalidCredentialsError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

// IsSessionError reports whether err means the caller is not authenticated.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrMissingSession) ||
		errors.Is(err, ErrInvalidSession) ||
		errors.Is(err, ErrSessionExpired)
}
