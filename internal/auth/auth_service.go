package auth

import (
	"context"
	"errors"
	"time"

	"github.com/vhoang/folio/internal/audit"
	"github.com/vhoang/folio/internal/common"
	"github.com/vhoang/folio/internal/credentials"
	"github.com/vhoang/folio/internal/ratelimit"
	"github.com/vhoang/folio/internal/sessions"
)

// SubjectAdmin is the only authentication subject; the editing UI is gated by
// a single shared credential.
const SubjectAdmin = "admin"

// ClientInfo describes the requester. Identity keys the attempt tracker and
// is derived by the transport layer (plain address or a trusted proxy header).
type ClientInfo struct {
	Identity  string
	IP        string
	UserAgent string
}

// Service orchestrates credential verification, attempt tracking, session
// issuance and audit into the login/logout/guard contract.
type Service struct {
	creds    *credentials.Store
	tracker  *ratelimit.Tracker
	sessions *sessions.Manager
	auditLog *audit.Log
	locks    *keyedMutex
}

func NewService(creds *credentials.Store, tracker *ratelimit.Tracker, sessionManager *sessions.Manager, auditLog *audit.Log) *Service {
	return &Service{
		creds:    creds,
		tracker:  tracker,
		sessions: sessionManager,
		auditLog: auditLog,
		locks:    newKeyedMutex(),
	}
}

// Login authenticates the admin code (and TOTP code when enrolled) and mints
// a session. The whole flow holds a per-identity lock so two simultaneous
// attempts from one client cannot both slip past the backoff check.
func (s *Service) Login(ctx context.Context, client ClientInfo, code string, totpCode string) (*sessions.Session, error) {
	unlock := s.locks.lock(client.Identity)
	defer unlock()

	if limited, wait := s.tracker.Check(client.Identity); limited {
		err := NewRateLimitedError(wait)
		s.auditLog.Record(ctx, audit.Entry{
			Action:    audit.ActionAuthFailed,
			Resource:  audit.ResourceAdminSession,
			Actor:     SubjectAdmin,
			IP:        client.IP,
			UserAgent: client.UserAgent,
			Changes:   map[string]any{"reason": "rate_limited", "wait_seconds": err.WaitSeconds()},
		})
		// skip the hash comparison entirely: no wasted work, no timing signal
		return nil, err
	}

	if !s.creds.Verify(ctx, code) {
		s.tracker.RecordFailure(client.Identity)
		s.auditLog.Record(ctx, audit.Entry{
			Action:    audit.ActionAuthFailed,
			Resource:  audit.ResourceAdminSession,
			Actor:     SubjectAdmin,
			IP:        client.IP,
			UserAgent: client.UserAgent,
			Changes:   map[string]any{"reason": "invalid_code"},
		})
		return nil, ErrInvalidCredentials
	}

	if s.creds.TOTPEnabled() {
		if totpCode == "" {
			// the primary secret was correct, this is not an attacker probing
			return nil, ErrSecondFactorRequired
		}
		if !s.creds.VerifyTOTP(totpCode) {
			s.tracker.RecordFailure(client.Identity)
			s.auditLog.Record(ctx, audit.Entry{
				Action:    audit.ActionAuthFailed,
				Resource:  audit.ResourceAdminSession,
				Actor:     SubjectAdmin,
				IP:        client.IP,
				UserAgent: client.UserAgent,
				Changes:   map[string]any{"reason": "invalid_second_factor"},
			})
			// the caller sees a generic failure, never which factor was wrong
			return nil, ErrInvalidCredentials
		}
	}

	sess, err := s.sessions.Create(ctx, sessions.SessionData{
		Subject:   SubjectAdmin,
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	if err != nil {
		return nil, err
	}
	s.tracker.RecordSuccess(client.Identity)
	s.auditLog.Record(ctx, audit.Entry{
		Action:     audit.ActionAuthSuccess,
		Resource:   audit.ResourceAdminSession,
		ResourceID: common.MaskIdentifier(sess.ID()),
		Actor:      SubjectAdmin,
		IP:         client.IP,
		UserAgent:  client.UserAgent,
		Changes:    map[string]any{"max_age_seconds": int(sess.MaxAge().Seconds())},
	})
	return sess, nil
}

// Logout destroys the session. It succeeds even when no session exists, and
// even when the audit append fails.
func (s *Service) Logout(ctx context.Context, sessionID string, client ClientInfo) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	s.auditLog.Record(ctx, audit.Entry{
		Action:     audit.ActionLogout,
		Resource:   audit.ResourceAdminSession,
		ResourceID: common.MaskIdentifier(sessionID),
		Actor:      SubjectAdmin,
		IP:         client.IP,
		UserAgent:  client.UserAgent,
	})
	return nil
}

// Status reports a session's state without touching attempt history or the
// activity timestamp.
type Status struct {
	Authenticated bool
	LoginTime     time.Time
	LastActivity  time.Time
	Remaining     time.Duration
}

func (s *Service) SessionStatus(ctx context.Context, sessionID string) (Status, error) {
	sess, err := s.sessions.Peek(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) || errors.Is(err, sessions.ErrSessionExpired) {
			return Status{}, nil
		}
		return Status{}, err
	}
	return Status{
		Authenticated: true,
		LoginTime:     sess.LoginAt(),
		LastActivity:  sess.LastActivityAt(),
		Remaining:     sess.Remaining(time.Now()),
	}, nil
}

// RequireSession is the authorization guard for protected operations. Guard
// failures are audited; callers receive ErrUnauthorized or ErrSessionExpired.
func (s *Service) RequireSession(ctx context.Context, sessionID string, client ClientInfo) (*sessions.Session, error) {
	sess, err := s.sessions.Validate(ctx, sessionID)
	switch {
	case errors.Is(err, sessions.ErrSessionExpired):
		s.auditLog.Record(ctx, audit.Entry{
			Action:     audit.ActionSessionExpired,
			Resource:   audit.ResourceAdminSession,
			ResourceID: common.MaskIdentifier(sessionID),
			Actor:      SubjectAdmin,
			IP:         client.IP,
			UserAgent:  client.UserAgent,
		})
		return nil, ErrSessionExpired
	case errors.Is(err, sessions.ErrSessionNotFound):
		s.auditLog.Record(ctx, audit.Entry{
			Action:    audit.ActionAuthFailed,
			Resource:  audit.ResourceAdminSession,
			Actor:     SubjectAdmin,
			IP:        client.IP,
			UserAgent: client.UserAgent,
			Changes:   map[string]any{"reason": "no_session"},
		})
		return nil, ErrUnauthorized
	case err != nil:
		return nil, err
	}
	return sess, nil
}

// RotateCode replaces the admin code. A valid session alone is not enough:
// the current code must verify again before the credential store accepts the
// replacement.
func (s *Service) RotateCode(ctx context.Context, sessionID string, client ClientInfo, current string, next string) error {
	if _, err := s.RequireSession(ctx, sessionID, client); err != nil {
		s.auditLog.Record(ctx, audit.Entry{
			Action:    audit.ActionCodeRotationFailed,
			Resource:  audit.ResourceAdminSettings,
			Actor:     SubjectAdmin,
			IP:        client.IP,
			UserAgent: client.UserAgent,
			Changes:   map[string]any{"reason": "unauthorized"},
		})
		return err
	}

	if err := s.creds.Rotate(ctx, current, next); err != nil {
		reason := "invalid_current_code"
		var policyErr *credentials.PolicyViolationError
		if errors.As(err, &policyErr) {
			reason = "policy_violation"
		}
		s.auditLog.Record(ctx, audit.Entry{
			Action:    audit.ActionCodeRotationFailed,
			Resource:  audit.ResourceAdminSettings,
			Actor:     SubjectAdmin,
			IP:        client.IP,
			UserAgent: client.UserAgent,
			Changes:   map[string]any{"reason": reason},
		})
		if errors.Is(err, credentials.ErrInvalidSecret) {
			return ErrInvalidCredentials
		}
		return err
	}

	s.auditLog.Record(ctx, audit.Entry{
		Action:    audit.ActionCodeRotationSuccess,
		Resource:  audit.ResourceAdminSettings,
		Actor:     SubjectAdmin,
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	return nil
}
