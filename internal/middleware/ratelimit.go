package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"steamprofile-rest-api/pkg/apierror"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds the per-client request limit.
type RateLimitConfig struct {
	// Window is the minimum spacing between requests of one client.
	Window time.Duration
	Burst  int
	Clock  clockwork.Clock
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter limits requests per client IP.
type ClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	window    time.Duration
	clock     clockwork.Clock
	lastSweep time.Time
}

// NewClientRateLimiter creates a per-IP limiter.
func NewClientRateLimiter(cfg RateLimitConfig) *ClientRateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = 3 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &ClientRateLimiter{
		clients:   make(map[string]*clientLimiter),
		limit:     rate.Every(cfg.Window),
		burst:     cfg.Burst,
		window:    cfg.Window,
		clock:     cfg.Clock,
		lastSweep: cfg.Clock.Now(),
	}
}

// Reserve admits one request for ip. It returns 0 when the request may
// proceed, or how long the client must wait otherwise.
func (l *ClientRateLimiter) Reserve(ip string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.sweep(now)

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay
	}
	return 0
}

// sweep drops clients idle long enough for their bucket to be full again.
func (l *ClientRateLimiter) sweep(now time.Time) {
	idle := l.window * time.Duration(l.burst)
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > idle {
			delete(l.clients, ip)
		}
	}
}

// Len returns the number of tracked clients.
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Handler rejects requests over the limit with 429 and Retry-After.
func (l *ClientRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait := l.Reserve(clientIP(r)); wait > 0 {
			apierror.TooManyRequests("Too many requests, slow down", wait).Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
