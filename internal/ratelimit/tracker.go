package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/vhoang/folio/params"
)

// attemptRecord tracks failed logins for one client identity. Purely in
// process; losing it on restart re-opens the attack window but corrupts
// nothing.
type attemptRecord struct {
	failures    []time.Time // within the observation window, oldest first
	lastFailure time.Time
	level       int // backoff level, saturates at MaxLevel
}

type TrackerConfig struct {
	Window       time.Duration    // observation window for failures
	BaseAttempts int              // allowed failures per window at level zero
	MaxLevel     int              // backoff level cap
	MaxWait      time.Duration    // backoff delay plateau
	Clock        func() time.Time // defaults to time.Now
}

func (c TrackerConfig) withDefaults() TrackerConfig {
	if c.Window == 0 {
		c.Window = params.LoginAttemptWindow
	}
	if c.BaseAttempts == 0 {
		c.BaseAttempts = params.LoginBaseAttempts
	}
	if c.MaxLevel == 0 {
		c.MaxLevel = params.LoginBackoffMaxLevel
	}
	if c.MaxWait == 0 {
		c.MaxWait = params.LoginBackoffMaxWait
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Tracker drives exponential login backoff per client identity. All per-key
// reads and writes are serialized under one mutex so two concurrent attempts
// from the same client cannot both pass the check-then-record window.
type Tracker struct {
	config  TrackerConfig
	mu      sync.Mutex
	records map[string]*attemptRecord
}

func NewTracker(config TrackerConfig) *Tracker {
	return &Tracker{
		config:  config.withDefaults(),
		records: make(map[string]*attemptRecord),
	}
}

// Check reports whether identity must wait before its next attempt and for
// how long. Failures older than the window are pruned first.
func (t *Tracker) Check(identity string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[identity]
	if !ok {
		return false, 0
	}

	now := t.config.Clock()
	t.prune(rec, now)
	if len(rec.failures) == 0 {
		// the whole window passed without a failure, the penalty decays
		delete(t.records, identity)
		return false, 0
	}

	wait := t.backoff(rec.level)
	if since := now.Sub(rec.lastFailure); since < wait {
		return true, wait - since
	}
	if len(rec.failures) >= t.allowed(rec.level) {
		// limited until the oldest failure leaves the window
		return true, rec.failures[0].Add(t.config.Window).Sub(now)
	}
	return false, 0
}

// RecordFailure appends a failure for identity and raises its backoff level.
func (t *Tracker) RecordFailure(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[identity]
	if !ok {
		rec = &attemptRecord{}
		t.records[identity] = rec
	}

	now := t.config.Clock()
	t.prune(rec, now)
	rec.failures = append(rec.failures, now)
	rec.lastFailure = now
	if rec.level < t.config.MaxLevel {
		rec.level++
	}
}

// RecordSuccess clears identity's attempt history entirely; the next failure
// starts over at level one.
func (t *Tracker) RecordSuccess(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, identity)
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Janitor periodically drops records whose identities stopped failing long
// ago. Blocks until ctx is cancelled.
func (t *Tracker) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

func (t *Tracker) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.config.Clock()
	idleAfter := t.config.Window + t.config.MaxWait
	for identity, rec := range t.records {
		if now.Sub(rec.lastFailure) > idleAfter {
			delete(t.records, identity)
		}
	}
}

func (t *Tracker) prune(rec *attemptRecord, now time.Time) {
	cutoff := now.Add(-t.config.Window)
	i := 0
	for i < len(rec.failures) && rec.failures[i].Before(cutoff) {
		i++
	}
	rec.failures = rec.failures[i:]
}

// backoff grows as 2^level seconds and plateaus at MaxWait.
func (t *Tracker) backoff(level int) time.Duration {
	d := time.Second << uint(level)
	if d > t.config.MaxWait {
		return t.config.MaxWait
	}
	return d
}

// allowed loosens slightly as the level grows; the backoff delay is the
// primary defense at high failure counts.
func (t *Tracker) allowed(level int) int {
	return t.config.BaseAttempts + level/2
}
