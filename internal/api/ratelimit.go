package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/metrics"
)

// loginPath is the only route the login limiter applies to.
const loginPath = "/api/v1/sessions"

// ipLimiter is the token bucket for one client IP.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter throttles login attempts per client IP.
type LoginLimiter struct {
	perMinute int
	burst     int
	now       func() time.Time

	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

// NewLoginLimiter creates a limiter from cfg.
func NewLoginLimiter(cfg config.RateLimitConfig) *LoginLimiter {
	return &LoginLimiter{
		perMinute: cfg.LoginPerMinute,
		burst:     cfg.LoginBurst,
		now:       time.Now,
		limiters:  make(map[string]*ipLimiter),
	}
}

// Allow reports whether ip may attempt a login now.
func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = &ipLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.burst),
		}
		l.limiters[ip] = lim
	}
	lim.lastSeen = now
	return lim.limiter.AllowN(now, 1)
}

// Sweep forgets clients idle for longer than idle and returns how many remain.
func (l *LoginLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	for ip, lim := range l.limiters {
		if lim.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
	return len(l.limiters)
}

// Run sweeps idle clients every interval until ctx is done.
func (l *LoginLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(30 * time.Minute)
		}
	}
}

// Handler rejects login attempts over the limit with 429.
func (l *LoginLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != loginPath {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(clientIP(r)) {
			metrics.LoginAttempts.WithLabelValues("throttled").Inc()
			LogAuthFailure(r.Context(), clientIP(r), ReasonThrottled)

			retryAfter := int(time.Minute.Seconds()) / max(l.perMinute, 1)
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"title":"Too Many Requests","status":429,"detail":"Too many login attempts. Please try again later."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
