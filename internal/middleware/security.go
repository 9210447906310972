package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Akram409/leafora-web-server/pkg/clientip"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// limiterTable keeps one token-bucket limiter per client IP, dropping entries
// that have been idle for a while.
type limiterTable struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	every   rate.Limit
	burst   int
	started bool
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterEntryTTL        = 30 * time.Minute
)

func newLimiterTable(every rate.Limit, burst int) *limiterTable {
	return &limiterTable{entries: make(map[string]*limiterEntry), every: every, burst: burst}
}

func (t *limiterTable) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startCleanupOnce()
	e, ok := t.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(t.every, t.burst)}
		t.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter.Allow()
}

func (t *limiterTable) startCleanupOnce() {
	if t.started {
		return
	}
	t.started = true
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			t.mu.Lock()
			now := time.Now()
			for ip, e := range t.entries {
				if now.Sub(e.lastUse) > limiterEntryTTL {
					delete(t.entries, ip)
				}
			}
			t.mu.Unlock()
		}
	}()
}

var (
	// 1 req/s, burst 10, applied to every route in production.
	globalLimiters = newLimiterTable(rate.Limit(1), 10)
	// 1 req/5s, burst 2, applied to token-issuing routes only.
	loginLimiters = newLimiterTable(rate.Every(5*time.Second), 2)
)

var loginPaths = map[string]bool{
	"/admin/login": true,
	"/auth/token":  true,
}

// GlobalRateLimit limits each IP to 1 req/s, burst 10. Returns 429 when exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalLimiters.allow(clientip.RealClientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many requests. Please slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRateLimit applies a stricter limit to token-issuing routes only.
// Use after GlobalRateLimit.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !loginPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		if !loginLimiters.allow(clientip.RealClientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many login attempts. Please try again later."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns the production middleware chain:
// SecurityHeaders → GlobalRateLimit → LoginRateLimit.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		GlobalRateLimit,
		LoginRateLimit,
	}
}
