package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Third-Party API Errors
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrTransport         = errors.New("message transport failed")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
	ErrConfigInvalid = errors.New("configuration invalid")
)

func NewRateLimitExceededError(window time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    fmt.Sprintf("Too many attempts, retry within %s", window),
	}
}

// NewTransportError wraps a failure of an outbound delivery channel (mail, SMS).
func NewTransportError(channel string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrTransport,
		Details:    fmt.Sprintf("Failed to deliver via %s", channel),
		Cause:      cause,
	}
}

func NewConfigMissingError(keys []string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Missing required settings: %s", strings.Join(keys, ", ")),
	}
}

func NewConfigInvalidError(key, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigInvalid,
		Details:    fmt.Sprintf("Invalid setting %s: %s", key, reason),
		Field:      key,
	}
}

func IsRateLimitExceededError(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

func IsConfigMissingError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}
