package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	SessionKeyPrefix = "s:"
	SessionMaxAge    = 30 * time.Minute // absolute lifetime from login, not sliding
	SessionIDLength  = 16               // random bytes per session id (32 hex chars)

	LoginAttemptWindow   = 15 * time.Minute // failures older than this are forgotten
	LoginBaseAttempts    = 3                // allowed failures per window before limiting kicks in
	LoginBackoffMaxWait  = 15 * time.Minute // backoff delay plateaus here
	LoginBackoffMaxLevel = 10               // backoff level saturates; 2^10s already exceeds the wait cap
	AttemptGCInterval    = 5 * time.Minute  // idle attempt record sweep interval

	BcryptCost = 12 // slow enough to resist offline brute force

	AuditDefaultQueryLimit = 50
	AuditMaxQueryLimit     = 200

	ContactBurst       = 3               // contact submissions allowed in a burst per client
	ContactRefillEvery = 1 * time.Minute // token bucket refill interval for contact submissions
	ContactBucketTTL   = 10 * time.Minute

	HealthCheckServerAddr = ":3001" // health check server address
)
