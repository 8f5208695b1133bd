package credentials

import (
	"errors"
	"strings"
)

var (
	ErrCredentialNotFound = errors.New("admin credential not found")
	ErrInvalidSecret      = errors.New("invalid admin code")
	ErrNoInitialCode      = errors.New("no admin code configured")
	ErrTOTPNotEnrolled    = errors.New("TOTP not enrolled")
	ErrTOTPVerifyFailed   = errors.New("TOTP verification failed")
)

// PolicyViolationError reports why a candidate admin code was rejected.
type PolicyViolationError struct {
	Reasons []string
}

func (e *PolicyViolationError) Error() string {
	return "admin code policy violation: " + strings.Join(e.Reasons, "; ")
}

func NewPolicyViolationError(reasons ...string) *PolicyViolationError {
	return &PolicyViolationError{Reasons: reasons}
}
