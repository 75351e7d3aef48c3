package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = 10 * time.Minute
)

// GetRealIP returns the client address, honoring CF-Connecting-IP and
// X-Forwarded-For only when trustProxy is set.
func GetRealIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
			return cf
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	seen    map[string]time.Time
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
}

func newIPLimiter(count int, window time.Duration) *ipLimiter {
	return &ipLimiter{
		seen:    make(map[string]time.Time),
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(count) / window.Seconds()),
		burst:   count,
	}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	b, ok := l.buckets[ip]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[ip] = b
	}
	l.seen[ip] = now
	l.mu.Unlock()

	return b.AllowN(now, 1)
}

// sweep forgets clients idle since before cutoff and returns how many were dropped.
func (l *ipLimiter) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for ip, at := range l.seen {
		if at.Before(cutoff) {
			delete(l.seen, ip)
			delete(l.buckets, ip)
			dropped++
		}
	}

	return dropped
}

// RateLimitMiddleware answers 429 once a client exceeds hardLimitCount
// requests per hardLimitWin. A non-positive count or window disables it.
func (s *Server) RateLimitMiddleware(next http.Handler) http.Handler {
	if s.hardLimitCount <= 0 || s.hardLimitWin <= 0 {
		return next
	}

	limiter := newIPLimiter(s.hardLimitCount, s.hardLimitWin)

	go func() {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-s.shutdown:
				return
			case now := <-ticker.C:
				if n := limiter.sweep(now.Add(-limiterIdleAfter)); n > 0 {
					log.Trace().Int("clients", n).Msg("Dropped idle rate limit entries")
				}
			}
		}
	}()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetRealIP(r, s.trustProxy)
		if !limiter.allow(ip, time.Now()) {
			log.Warn().Str("ip", ip).Msg("Notification rate limit exceeded")
			respondError(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs method, path, client and duration of every request.
func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", GetRealIP(r, s.trustProxy)).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
