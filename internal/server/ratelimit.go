package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-IP limiter map. When exceeded, entries idle
// for staleAfter are swept.
const (
	maxTrackedClients = 10000
	staleAfter        = 10 * time.Minute
)

// limit is one rate window, e.g. 10 requests per minute.
type limit struct {
	rate  rate.Limit
	burst int
}

func perMinute(n int) limit {
	return limit{rate: rate.Limit(float64(n) / 60.0), burst: n}
}

func perHour(n int) limit {
	return limit{rate: rate.Limit(float64(n) / 3600.0), burst: n}
}

// clientLimiter tracks token buckets per client IP. A request is allowed only
// when every configured window has a token, mirroring stacked limits like
// "100 per hour, 20 per minute".
type clientLimiter struct {
	mu      sync.Mutex
	limits  []limit
	clients map[string]*client
}

type client struct {
	limiters []*rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(limits ...limit) *clientLimiter {
	return &clientLimiter{
		limits:  limits,
		clients: make(map[string]*client),
	}
}

func (cl *clientLimiter) allow(ip string) bool {
	cl.mu.Lock()
	c, ok := cl.clients[ip]
	if !ok {
		if len(cl.clients) >= maxTrackedClients {
			cl.sweepLocked()
		}
		c = &client{limiters: make([]*rate.Limiter, len(cl.limits))}
		for i, l := range cl.limits {
			c.limiters[i] = rate.NewLimiter(l.rate, l.burst)
		}
		cl.clients[ip] = c
	}
	c.lastSeen = time.Now()
	cl.mu.Unlock()

	allowed := true
	for _, lim := range c.limiters {
		if !lim.Allow() {
			allowed = false
		}
	}
	return allowed
}

// sweepLocked drops clients not seen recently. Caller holds cl.mu.
func (cl *clientLimiter) sweepLocked() {
	cutoff := time.Now().Add(-staleAfter)
	for ip, c := range cl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(cl.clients, ip)
		}
	}
}

// rateLimit wraps a handler chain with a per-IP limiter. A nil limiter turns
// the middleware into a pass-through, which is how disabling rate limits works.
func (s *Server) rateLimit(cl *clientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cl != nil && !cl.allow(clientIP(r)) {
				s.respondError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
