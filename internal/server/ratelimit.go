// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package server

import (
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained request rate per IP. Zero disables limiting.
	RequestsPerMinute int
	// Burst is the maximum burst size per IP. Defaults to RequestsPerMinute.
	Burst int
	// MaxVisitors caps the number of IPs tracked at once; the least recently
	// seen are evicted first. Default: 10000.
	MaxVisitors int
}

// Validate checks that the RateLimitConfig is valid and applies defaults.
func (c *RateLimitConfig) Validate() error {
	if c.RequestsPerMinute < 0 {
		return ragerr.Errorf(ragerr.CodeServerConfigInvalid,
			"rate limit requests per minute must not be negative (got %d)", c.RequestsPerMinute)
	}
	if c.Burst < 0 {
		return ragerr.Errorf(ragerr.CodeServerConfigInvalid,
			"rate limit burst must not be negative (got %d)", c.Burst)
	}
	if c.MaxVisitors < 0 {
		return ragerr.Errorf(ragerr.CodeServerConfigInvalid,
			"rate limit max visitors must not be negative (got %d)", c.MaxVisitors)
	}
	if c.RequestsPerMinute > 0 && c.Burst == 0 {
		c.Burst = c.RequestsPerMinute
	}
	if c.MaxVisitors == 0 {
		c.MaxVisitors = 10000
	}
	return nil
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimitMiddleware returns middleware that enforces per-IP rate limits.
// Returns a pass-through middleware when cfg.RequestsPerMinute is zero.
// The done channel signals the cleanup goroutine to exit on shutdown.
func rateLimitMiddleware(cfg RateLimitConfig, done <-chan struct{}) func(http.Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
		every    = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				evictVisitors(visitors, time.Now(), cfg.MaxVisitors)
				mu.Unlock()
			case <-done:
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Limit by IP, not by connection.
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			mu.Lock()
			v, ok := visitors[ip]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(every, cfg.Burst)}
				visitors[ip] = v
			}
			v.lastSeen = time.Now()
			allowed := v.limiter.Allow()
			mu.Unlock()

			if !allowed {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, ragerr.New(ragerr.CodeServerRateExceeded, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// evictVisitors drops entries idle for ten minutes, then the least recently
// seen ones until at most limit remain.
func evictVisitors(visitors map[string]*visitor, now time.Time, limit int) {
	const staleThreshold = 10 * time.Minute

	type entry struct {
		ip       string
		lastSeen time.Time
	}
	entries := make([]entry, 0, len(visitors))
	for ip, v := range visitors {
		if now.Sub(v.lastSeen) > staleThreshold {
			delete(visitors, ip)
			continue
		}
		entries = append(entries, entry{ip: ip, lastSeen: v.lastSeen})
	}

	if limit <= 0 || len(entries) <= limit {
		return
	}
	slices.SortFunc(entries, func(a, b entry) int { return a.lastSeen.Compare(b.lastSeen) })
	toEvict := len(entries) - limit
	for _, e := range entries[:toEvict] {
		delete(visitors, e.ip)
	}
	slog.Warn("rate limiter visitor map cap enforced",
		"evicted", toEvict, "max_visitors", limit, "remaining", len(visitors))
}
