package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	maxRequests    = 60              // Maximum requests per window
	windowDuration = time.Minute * 5 // Window duration
)

// RateLimiter tracks per-IP request counts over a fixed window. Each Server
// owns its own instance.
type RateLimiter struct {
	requests map[string]*clientRequests
	mu       sync.Mutex
	now      func() time.Time
}

type clientRequests struct {
	count    int
	lastSeen time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		requests: make(map[string]*clientRequests),
		now:      time.Now,
	}
}

// Limit applies the fixed per-IP window to mutation endpoints. Polling
// reads stay unlimited; a sync client refreshing every few seconds must not
// starve itself out of checking in.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.RemoteAddr

		l.mu.Lock()
		defer l.mu.Unlock()

		// Clean up old entries
		now := l.now()
		for ip, req := range l.requests {
			if now.Sub(req.lastSeen) > windowDuration {
				delete(l.requests, ip)
			}
		}

		client, exists := l.requests[clientIP]
		if !exists {
			client = &clientRequests{lastSeen: now}
			l.requests[clientIP] = client
		}

		if now.Sub(client.lastSeen) > windowDuration {
			client.count = 0
			client.lastSeen = now
		}

		if client.count >= maxRequests {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			w.Header().Set("X-RateLimit-Remaining", "0")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		client.count++
		client.lastSeen = now

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(maxRequests-client.count))

		next.ServeHTTP(w, r)
	})
}
