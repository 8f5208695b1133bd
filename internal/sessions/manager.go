package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vhoang/folio/internal/store"
	"github.com/vhoang/folio/params"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionID       = errors.New("could not generate session id")
)

// Manager issues, validates and destroys sessions over a Storage backend.
// Validate's check-then-destroy on expiry is serialized under one mutex.
type Manager struct {
	storage store.Storage
	maxAge  time.Duration
	mu      sync.Mutex
	now     func() time.Time
}

func NewManager(storage store.Storage, maxAge time.Duration) *Manager {
	if maxAge <= 0 {
		maxAge = params.SessionMaxAge
	}
	return &Manager{
		storage: store.StorageWithPrefix(storage, params.SessionKeyPrefix),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Create mints a session with an unguessable identifier. Concurrent sessions
// per subject are permitted; each login gets its own id.
func (m *Manager) Create(ctx context.Context, data SessionData) (*Session, error) {
	id := generateSessionID()
	if id == "" {
		return nil, ErrSessionID
	}
	now := m.now()
	data.LoginTime = now.UnixMilli()
	data.LastActivity = now.UnixMilli()
	if err := m.storage.Set(ctx, id, data, m.maxAge); err != nil {
		return nil, err
	}
	return &Session{SessionData: data, id: id, maxAge: m.maxAge}, nil
}

// Validate looks up id, destroys it if the absolute lifetime has passed, and
// otherwise bumps the activity timestamp. The lifetime is never extended.
func (m *Manager) Validate(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var data SessionData
	if err := m.storage.Get(ctx, id, &data); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	now := m.now()
	loginAt := time.UnixMilli(data.LoginTime)
	if now.Sub(loginAt) >= m.maxAge {
		m.delete(ctx, id)
		return nil, ErrSessionExpired
	}

	data.LastActivity = now.UnixMilli()
	ttl := loginAt.Add(m.maxAge).Sub(now)
	if err := m.storage.Set(ctx, id, data, ttl); err != nil {
		return nil, err
	}
	return &Session{SessionData: data, id: id, maxAge: m.maxAge}, nil
}

// Peek reads a session without touching its activity timestamp. Expired
// sessions are still removed on detection.
func (m *Manager) Peek(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var data SessionData
	if err := m.storage.Get(ctx, id, &data); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	now := m.now()
	if now.Sub(time.UnixMilli(data.LoginTime)) >= m.maxAge {
		m.delete(ctx, id)
		return nil, ErrSessionExpired
	}
	return &Session{SessionData: data, id: id, maxAge: m.maxAge}, nil
}

// Destroy removes id. Destroying an absent session is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := m.storage.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (m *Manager) MaxAge() time.Duration {
	return m.maxAge
}

func (m *Manager) delete(ctx context.Context, id string) {
	if err := m.storage.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		// storage cleanup will expire the key anyway
		return
	}
}
