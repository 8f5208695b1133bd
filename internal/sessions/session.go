package sessions

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/vhoang/folio/params"
)

// SessionData is the state persisted per session. Times are unix millis so
// every storage backend round-trips them losslessly.
type SessionData struct {
	Subject      string `json:"subject"`              // which admin this session belongs to
	IP           string `json:"ip"`                   // client address at login
	UserAgent    string `json:"user_agent,omitempty"` // client user agent at login
	LoginTime    int64  `json:"login_time"`           // unix millis
	LastActivity int64  `json:"last_activity"`        // unix millis, bookkeeping only
}

// Session is a validated session handle. Expiry is absolute: LoginTime plus
// maxAge, regardless of activity.
type Session struct {
	SessionData
	id     string
	maxAge time.Duration
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) MaxAge() time.Duration {
	return s.maxAge
}

func (s *Session) LoginAt() time.Time {
	return time.UnixMilli(s.LoginTime)
}

func (s *Session) LastActivityAt() time.Time {
	return time.UnixMilli(s.LastActivity)
}

func (s *Session) ExpiresAt() time.Time {
	return s.LoginAt().Add(s.maxAge)
}

func (s *Session) Remaining(now time.Time) time.Duration {
	remaining := s.ExpiresAt().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func generateSessionID() string {
	b := make([]byte, params.SessionIDLength)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Could not generate session id", "error", err)
		return ""
	}
	return hex.EncodeToString(b)
}
