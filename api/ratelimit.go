package api

import (
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	authMaxFailures   = 10
	authBaseLockout   = time.Minute
	authMaxLockout    = 30 * time.Minute
	authFailureExpiry = time.Hour
	// maxTrackedClients triggers a sweep of expired records.
	maxTrackedClients = 10000
)

type failureRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// authLimiter locks out client IPs that keep presenting a wrong bearer
// token. Lockouts start at authMaxFailures and double per further failure.
type authLimiter struct {
	mu      sync.Mutex
	clients map[string]*failureRecord
	now     func() time.Time
}

func newAuthLimiter() *authLimiter {
	return &authLimiter{
		clients: make(map[string]*failureRecord),
		now:     time.Now,
	}
}

func (l *authLimiter) check(ip string) (blocked bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.clients[ip]
	if !ok {
		return false, 0
	}
	now := l.now()
	if now.Sub(rec.lastFailure) > authFailureExpiry {
		delete(l.clients, ip)
		return false, 0
	}
	if now.Before(rec.lockedUntil) {
		return true, rec.lockedUntil.Sub(now)
	}
	return false, 0
}

func (l *authLimiter) recordFailure(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.clients) >= maxTrackedClients {
		for k, rec := range l.clients {
			if now.Sub(rec.lastFailure) > authFailureExpiry {
				delete(l.clients, k)
			}
		}
	}

	rec, ok := l.clients[ip]
	if !ok {
		rec = &failureRecord{}
		l.clients[ip] = rec
	}
	rec.failures++
	rec.lastFailure = now

	if rec.failures >= authMaxFailures {
		lockout := authBaseLockout
		for range rec.failures - authMaxFailures {
			lockout *= 2
			if lockout >= authMaxLockout {
				lockout = authMaxLockout
				break
			}
		}
		rec.lockedUntil = now.Add(lockout)
	}
}

func (l *authLimiter) recordSuccess(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, ip)
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Retry-After", retryAfterString(retryAfter))
	writeError(w, http.StatusTooManyRequests, "too many failed authentication attempts; try again later")
}

func retryAfterString(d time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1))
}

// clientIP returns the address the auth limiter keys on.
func (a *API) clientIP(r *http.Request) string {
	return clientIPWithProxies(r, a.trustedProxies)
}

// clientIPWithProxies returns the peer address, or the first valid
// X-Forwarded-For / X-Real-IP entry when the peer is inside one of
// trustedProxies. With no trusted proxies the headers are ignored.
func clientIPWithProxies(r *http.Request, trustedProxies []netip.Prefix) string {
	remote, _ := parseIPCandidate(r.RemoteAddr)
	if remote == "" || !isTrusted(remote, trustedProxies) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for part := range strings.SplitSeq(xff, ",") {
			if ip, ok := parseIPCandidate(part); ok {
				return ip
			}
		}
	}
	if ip, ok := parseIPCandidate(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	return remote
}

func isTrusted(ip string, trustedProxies []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func parseIPCandidate(raw string) (string, bool) {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	if s == "" {
		return "", false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
