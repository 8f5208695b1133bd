package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSecondFactorRequired = errors.New("second factor required")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrSessionExpired       = errors.New("session expired")
)

// RateLimitedError tells the caller how long to wait before the next login
// attempt is accepted.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %d seconds", e.WaitSeconds())
}

// WaitSeconds rounds the wait up so a client sleeping exactly this long is
// never rejected again.
func (e *RateLimitedError) WaitSeconds() int {
	secs := int((e.Wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func NewRateLimitedError(wait time.Duration) *RateLimitedError {
	return &RateLimitedError{Wait: wait}
}
