package credentials

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/vhoang/folio/internal/common"
	"github.com/vhoang/folio/model"
	"golang.org/x/crypto/bcrypt"
)

// Store owns the single admin credential. Reads run concurrently; rotation is
// the only writer and publishes a fully written hash, never a partial one.
type Store struct {
	repo   Repository
	policy Policy
	issuer string
	cost   int

	mu         sync.RWMutex
	secretHash string
	totpSecret string
	createdAt  time.Time
	updatedAt  time.Time
}

func NewStore(repo Repository, policy Policy, issuer string, cost int) *Store {
	return &Store{
		repo:   repo,
		policy: policy,
		issuer: issuer,
		cost:   cost,
	}
}

// Bootstrap loads the credential or creates it from initialCode. With strict
// set and no code configured it refuses to proceed so the server fails closed;
// otherwise a temporary code is generated for developer convenience.
func (s *Store) Bootstrap(ctx context.Context, initialCode string, strict bool) error {
	cred, err := s.repo.Load(ctx)
	if err == nil {
		s.publish(cred)
		return nil
	}
	if err != ErrCredentialNotFound {
		return err
	}

	if initialCode == "" {
		if strict {
			return ErrNoInitialCode
		}
		initialCode, err = common.GenerateSecret(16)
		if err != nil {
			return err
		}
		slog.Warn("No admin code configured, generated a temporary one", "code", initialCode)
	}
	if err := s.policy.Validate(initialCode); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(initialCode), s.cost)
	if err != nil {
		return err
	}
	cred = &model.AdminCredential{SecretHash: string(hash)}
	if err := s.repo.Create(ctx, cred); err != nil {
		return err
	}
	s.publish(cred)
	return nil
}

func (s *Store) publish(cred *model.AdminCredential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secretHash = cred.SecretHash
	s.totpSecret = cred.TOTPSecret
	s.createdAt = cred.CreatedAt
	s.updatedAt = cred.UpdatedAt
}

// Verify reports whether plain matches the stored admin code. The comparison
// is deliberately slow and never logs the input.
func (s *Store) Verify(ctx context.Context, plain string) bool {
	s.mu.RLock()
	hash := s.secretHash
	s.mu.RUnlock()
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Rotate replaces the admin code after re-verifying the current one and
// checking the replacement against the strength policy.
func (s *Store) Rotate(ctx context.Context, current string, next string) error {
	if !s.Verify(ctx, current) {
		return ErrInvalidSecret
	}
	if err := s.policy.Validate(next); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Replace(ctx, string(hash), s.totpSecret); err != nil {
		return err
	}
	s.secretHash = string(hash)
	s.updatedAt = time.Now()
	return nil
}

func (s *Store) TOTPEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totpSecret != ""
}

// VerifyTOTP validates a time-based one-time code (RFC 6238).
func (s *Store) VerifyTOTP(code string) bool {
	s.mu.RLock()
	secret := s.totpSecret
	s.mu.RUnlock()
	if secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}

// GenerateTOTPKey issues a fresh enrollment key. The secret is not persisted
// until EnrollTOTP confirms the authenticator with a live code.
func (s *Store) GenerateTOTPKey(accountName string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
}

func (s *Store) EnrollTOTP(ctx context.Context, secret string, code string) error {
	if !totp.Validate(code, secret) {
		return ErrTOTPVerifyFailed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Replace(ctx, s.secretHash, secret); err != nil {
		return err
	}
	s.totpSecret = secret
	s.updatedAt = time.Now()
	return nil
}

func (s *Store) DisableTOTP(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.totpSecret == "" {
		return ErrTOTPNotEnrolled
	}
	if err := s.repo.Replace(ctx, s.secretHash, ""); err != nil {
		return err
	}
	s.totpSecret = ""
	s.updatedAt = time.Now()
	return nil
}

// Info describes the credential without exposing any secret material.
type Info struct {
	TOTPEnabled bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Store) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		TOTPEnabled: s.totpSecret != "",
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
}
