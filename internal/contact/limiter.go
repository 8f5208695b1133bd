package contact

import (
	"context"
	"sync"
	"time"

	"github.com/vhoang/folio/params"
	"golang.org/x/time/rate"
)

// ipLimiter is a token bucket per client address. Contact submissions only
// need a constant ceiling, unlike logins which escalate per failure.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	burst   int
	every   time.Duration
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newIPLimiter(burst int, every time.Duration) *ipLimiter {
	return &ipLimiter{
		buckets: make(map[string]*bucket),
		burst:   burst,
		every:   every,
	}
}

func (l *ipLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.buckets[ip] = b
	}
	b.seen = time.Now()
	return b.lim.Allow()
}

// Janitor drops buckets idle past their TTL. Blocks until ctx is cancelled.
func (l *ipLimiter) Janitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for ip, b := range l.buckets {
				if now.Sub(b.seen) > params.ContactBucketTTL {
					delete(l.buckets, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}
