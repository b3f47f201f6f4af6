package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Per-IP limiter bookkeeping.
const (
	limiterIdle    = 10 * time.Minute
	limiterSweep   = 5 * time.Minute
	maxTrackedIPs  = 1024
	retryAfterSecs = "1"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter hands out one token bucket per client IP.
type rateLimiter struct {
	rps   rate.Limit
	burst int

	mu  sync.Mutex
	ips map[string]*ipLimiter
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{rps: limit, burst: burst, ips: make(map[string]*ipLimiter)}
}

// get returns the limiter for ip, creating it on first use.
func (rl *rateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if l, ok := rl.ips[ip]; ok {
		l.lastSeen = now
		return l.limiter
	}
	if len(rl.ips) >= maxTrackedIPs {
		rl.evictOldest()
	}
	l := &ipLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst), lastSeen: now}
	rl.ips[ip] = l
	return l.limiter
}

// connection returns a fresh limiter for one WebSocket connection.
func (rl *rateLimiter) connection() *rate.Limiter {
	return rate.NewLimiter(rl.rps, rl.burst)
}

func (rl *rateLimiter) evictOldest() {
	var oldest string
	var at time.Time
	for ip, l := range rl.ips {
		if oldest == "" || l.lastSeen.Before(at) {
			oldest, at = ip, l.lastSeen
		}
	}
	delete(rl.ips, oldest)
}

// sweep drops idle limiters until ctx is done.
func (rl *rateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, l := range rl.ips {
				if time.Since(l.lastSeen) > limiterIdle {
					delete(rl.ips, ip)
				}
			}
			rl.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// middleware rejects requests over the per-IP rate with 429.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.get(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", retryAfterSecs)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the peer address of r. The server binds to loopback by
// default, so forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the response status for access logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack exposes the underlying connection for the WebSocket upgrade.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// accessLog logs each request at debug level.
func accessLog(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
