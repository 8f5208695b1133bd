package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/vhoang/folio/internal/audit"
	"github.com/vhoang/folio/internal/credentials"
	"github.com/vhoang/folio/internal/ratelimit"
	"github.com/vhoang/folio/internal/sessions"
	"github.com/vhoang/folio/internal/store"
	"github.com/vhoang/folio/model"
	"golang.org/x/crypto/bcrypt"
)

const testAdminCode = "initial-code"

type fakeCredentialRepo struct {
	cred *model.AdminCredential
}

func (r *fakeCredentialRepo) Load(ctx context.Context) (*model.AdminCredential, error) {
	if r.cred == nil {
		return nil, credentials.ErrCredentialNotFound
	}
	copied := *r.cred
	return &copied, nil
}

func (r *fakeCredentialRepo) Create(ctx context.Context, cred *model.AdminCredential) error {
	r.cred = cred
	return nil
}

func (r *fakeCredentialRepo) Replace(ctx context.Context, secretHash string, totpSecret string) error {
	if r.cred == nil {
		return credentials.ErrCredentialNotFound
	}
	r.cred.SecretHash = secretHash
	r.cred.TOTPSecret = totpSecret
	return nil
}

type fakeAuditRepo struct {
	entries []*model.AuditEntry
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *model.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) Find(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return r.entries[:limit], nil
}

func (r *fakeAuditRepo) byAction(action string) []*model.AuditEntry {
	var matched []*model.AuditEntry
	for _, entry := range r.entries {
		if entry.Action == action {
			matched = append(matched, entry)
		}
	}
	return matched
}

type testEnv struct {
	service   *Service
	creds     *credentials.Store
	tracker   *ratelimit.Tracker
	auditRepo *fakeAuditRepo
	clock     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		auditRepo: &fakeAuditRepo{},
		clock:     time.Unix(1700000000, 0),
	}
	env.creds = credentials.NewStore(&fakeCredentialRepo{}, credentials.DevelopmentPolicy(), "folio-test", bcrypt.MinCost)
	if err := env.creds.Bootstrap(context.Background(), testAdminCode, true); err != nil {
		t.Fatalf("credential bootstrap failed: %v", err)
	}
	env.tracker = ratelimit.NewTracker(ratelimit.TrackerConfig{
		Clock: func() time.Time { return env.clock },
	})
	sessionManager := sessions.NewManager(store.NewMemoryStorage(), 30*time.Minute)
	env.service = NewService(env.creds, env.tracker, sessionManager, audit.NewLog(env.auditRepo))
	return env
}

func testClient() ClientInfo {
	return ClientInfo{Identity: "1.2.3.4", IP: "1.2.3.4", UserAgent: "test"}
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.service.Login(ctx, testClient(), testAdminCode, "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if sess.Subject != SubjectAdmin {
		t.Fatalf("unexpected subject %q", sess.Subject)
	}

	successes := env.auditRepo.byAction(audit.ActionAuthSuccess)
	if len(successes) != 1 {
		t.Fatalf("expected one auth_success audit entry, got %d", len(successes))
	}
	// the raw session id must never reach the audit trail
	if strings.Contains(successes[0].ResourceID, sess.ID()) {
		t.Fatal("audit entry contains the raw session id")
	}
}

func TestLoginWrongCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Login(ctx, testClient(), "wrong-code", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	failures := env.auditRepo.byAction(audit.ActionAuthFailed)
	if len(failures) != 1 {
		t.Fatalf("expected one auth_failed audit entry, got %d", len(failures))
	}
	// no secret material in the audit payload
	for _, entry := range env.auditRepo.entries {
		if strings.Contains(string(entry.Changes), "wrong-code") {
			t.Fatal("audit entry contains the submitted code")
		}
	}
}

func TestLoginBackoffKicksIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := testClient()

	for i := 0; i < 3; i++ {
		if _, err := env.service.Login(ctx, client, "wrong-code", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// the correct code is rejected while the delay is running, and the
	// hash comparison is skipped entirely
	_, err := env.service.Login(ctx, client, testAdminCode, "")
	var limitedErr *RateLimitedError
	if !errors.As(err, &limitedErr) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if limitedErr.WaitSeconds() < 1 {
		t.Fatalf("expected a positive wait, got %d", limitedErr.WaitSeconds())
	}

	// after the delay has passed the correct code goes through
	env.clock = env.clock.Add(limitedErr.Wait)
	if _, err := env.service.Login(ctx, client, testAdminCode, ""); err != nil {
		t.Fatalf("expected login to succeed after the wait: %v", err)
	}
}

func TestLoginSuccessResetsBackoff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := testClient()

	for i := 0; i < 2; i++ {
		env.service.Login(ctx, client, "wrong-code", "")
	}
	env.clock = env.clock.Add(time.Minute)
	if _, err := env.service.Login(ctx, client, testAdminCode, ""); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// history is cleared, a fresh wrong attempt is not limited
	if _, err := env.service.Login(ctx, client, "wrong-code", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after reset, got %v", err)
	}
}

func TestLoginOtherIdentityUnaffected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.service.Login(ctx, testClient(), "wrong-code", "")
	}

	other := ClientInfo{Identity: "5.6.7.8", IP: "5.6.7.8", UserAgent: "test"}
	if _, err := env.service.Login(ctx, other, testAdminCode, ""); err != nil {
		t.Fatalf("other identity should not be limited: %v", err)
	}
}

func enrollTOTP(t *testing.T, env *testEnv) string {
	t.Helper()
	key, err := env.creds.GenerateTOTPKey("admin")
	if err != nil {
		t.Fatalf("GenerateTOTPKey failed: %v", err)
	}
	code, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if err := env.creds.EnrollTOTP(context.Background(), key.Secret(), code); err != nil {
		t.Fatalf("EnrollTOTP failed: %v", err)
	}
	return key.Secret()
}

func TestLoginSecondFactorRequired(t *testing.T) {
	env := newTestEnv(t)
	enrollTOTP(t, env)
	ctx := context.Background()

	// correct code without the second factor is not a failed attempt
	_, err := env.service.Login(ctx, testClient(), testAdminCode, "")
	if !errors.Is(err, ErrSecondFactorRequired) {
		t.Fatalf("expected ErrSecondFactorRequired, got %v", err)
	}
	if len(env.auditRepo.byAction(audit.ActionAuthFailed)) != 0 {
		t.Fatal("a missing second factor must not be recorded as a failure")
	}
	if limited, _ := env.tracker.Check(testClient().Identity); limited {
		t.Fatal("a missing second factor must not raise the backoff level")
	}
}

func TestLoginWrongSecondFactor(t *testing.T) {
	env := newTestEnv(t)
	enrollTOTP(t, env)
	ctx := context.Background()

	_, err := env.service.Login(ctx, testClient(), testAdminCode, "000000")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected a generic ErrInvalidCredentials, got %v", err)
	}
	if len(env.auditRepo.byAction(audit.ActionAuthFailed)) != 1 {
		t.Fatal("a wrong second factor must count as a failed attempt")
	}
}

func TestLoginWithSecondFactor(t *testing.T) {
	env := newTestEnv(t)
	secret := enrollTOTP(t, env)
	ctx := context.Background()

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if _, err := env.service.Login(ctx, testClient(), testAdminCode, code); err != nil {
		t.Fatalf("Login with second factor failed: %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.service.Login(ctx, testClient(), testAdminCode, "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := env.service.Logout(ctx, sess.ID(), testClient()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := env.service.Logout(ctx, sess.ID(), testClient()); err != nil {
		t.Fatalf("second Logout should be a no-op, got %v", err)
	}

	if _, err := env.service.RequireSession(ctx, sess.ID(), testClient()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestSessionStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status, err := env.service.SessionStatus(ctx, "missing")
	if err != nil {
		t.Fatalf("SessionStatus failed: %v", err)
	}
	if status.Authenticated {
		t.Fatal("an unknown session must not be authenticated")
	}

	sess, err := env.service.Login(ctx, testClient(), testAdminCode, "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	status, err = env.service.SessionStatus(ctx, sess.ID())
	if err != nil {
		t.Fatalf("SessionStatus failed: %v", err)
	}
	if !status.Authenticated || status.Remaining <= 0 {
		t.Fatalf("expected an authenticated status with time remaining, got %+v", status)
	}
}

func TestRequireSessionGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RequireSession(ctx, "", testClient())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a missing session, got %v", err)
	}
	if len(env.auditRepo.byAction(audit.ActionAuthFailed)) != 1 {
		t.Fatal("a guard rejection must be audited")
	}

	sess, err := env.service.Login(ctx, testClient(), testAdminCode, "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := env.service.RequireSession(ctx, sess.ID(), testClient()); err != nil {
		t.Fatalf("expected the fresh session to pass the guard: %v", err)
	}
}

func TestRotateCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.service.Login(ctx, testClient(), testAdminCode, "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// a valid session alone is not enough, the current code must verify
	err = env.service.RotateCode(ctx, sess.ID(), testClient(), "wrong-code", "replacement-code")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(env.auditRepo.byAction(audit.ActionCodeRotationFailed)) != 1 {
		t.Fatal("a failed rotation must be audited")
	}

	if err := env.service.RotateCode(ctx, sess.ID(), testClient(), testAdminCode, "replacement-code"); err != nil {
		t.Fatalf("RotateCode failed: %v", err)
	}
	if len(env.auditRepo.byAction(audit.ActionCodeRotationSuccess)) != 1 {
		t.Fatal("a successful rotation must be audited")
	}

	// existing sessions survive the rotation
	if _, err := env.service.RequireSession(ctx, sess.ID(), testClient()); err != nil {
		t.Fatalf("session should survive a code rotation: %v", err)
	}
}

func TestRotateCodeWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	err := env.service.RotateCode(context.Background(), "", testClient(), testAdminCode, "replacement-code")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
