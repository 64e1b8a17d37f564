// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	lastSeen map[string]time.Time
	every    rate.Limit
	burst    int
	evictTTL time.Duration
}

// New creates a limiter that allows burst requests per key and refills one
// token every per/burst. Idle keys are evicted after 2*per.
func New(burst int, per time.Duration) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		every:    rate.Every(per / time.Duration(burst)),
		burst:    burst,
		evictTTL: 2 * per,
	}
	go l.cleanupLoop()
	return l
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}
	l.lastSeen[key] = time.Now()
	return b
}

// Allow reports whether a request for key fits within its limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucket(key).Allow()
}

// Remaining returns how many requests key could make right now.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		return l.burst
	}
	n := int(b.Tokens())
	if n < 0 {
		return 0
	}
	return n
}

// Reset forgets key, restoring its full burst.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	delete(l.lastSeen, key)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.evictTTL / 2)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-l.evictTTL)
		for key, last := range l.lastSeen {
			if last.Before(cutoff) {
				delete(l.buckets, key)
				delete(l.lastSeen, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP returns the host part of r.RemoteAddr. Client-supplied forwarding
// headers are ignored; behind a trusted proxy, middleware.RealIP rewrites
// RemoteAddr before this runs.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter tracks sign-in attempts per client IP and per login ID.
type LoginLimiter struct {
	ipLimiter    *Limiter
	loginLimiter *Limiter
}

// NewLoginLimiter creates a limiter with the default budgets:
// 10 attempts per IP per minute, 5 attempts per login ID per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, loginLimit int, loginWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:    New(ipLimit, ipWindow),
		loginLimiter: New(loginLimit, loginWindow),
	}
}

// Check reports whether a sign-in attempt may proceed, and if not, why.
func (ll *LoginLimiter) Check(r *http.Request, loginID string) (bool, string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}

	if key := loginKey(loginID); key != "" {
		if !ll.loginLimiter.Allow(key) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}

	return true, ""
}

// ResetLogin clears the per-account budget after a successful sign-in.
func (ll *LoginLimiter) ResetLogin(loginID string) {
	if key := loginKey(loginID); key != "" {
		ll.loginLimiter.Reset(key)
	}
}

func loginKey(loginID string) string {
	return strings.ToLower(strings.TrimSpace(loginID))
}
