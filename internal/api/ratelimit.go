package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client budgets for API requests and fire
// commands.
type RateLimitConfig struct {
	RequestsPerSecond float64 // Requests allowed per second per client
	Burst             int

	// Fire commands share one budget across POST /api/fire and WebSocket
	// fire messages.
	FiresPerSecond float64
	FireBurst      int

	CleanupInterval time.Duration // Buckets idle for twice this long are dropped
}

// DefaultRateLimitConfig returns production-safe defaults
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 30,
	Burst:             60,
	FiresPerSecond:    10, // Above the fastest launcher cooldown
	FireBurst:         5,
	CleanupInterval:   5 * time.Minute,
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	d := DefaultRateLimitConfig
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	if c.FiresPerSecond <= 0 {
		c.FiresPerSecond = d.FiresPerSecond
	}
	if c.FireBurst <= 0 {
		c.FireBurst = d.FireBurst
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}

// ClientLimiter hands out one token bucket per client key.
type ClientLimiter struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	limit   rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a limiter allowing perSecond events per client
// with the given burst.
func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		buckets: make(map[string]*clientBucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

// Allow spends one token from key's bucket.
func (l *ClientLimiter) Allow(key string) bool {
	return l.allowAt(key, time.Now())
}

func (l *ClientLimiter) allowAt(key string, now time.Time) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Sweep drops buckets not used since cutoff and returns how many went.
func (l *ClientLimiter) Sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimiter throttles API requests and fire commands per client IP.
//
// Construction starts no goroutines. StartCleanup runs the sweep loop.
type RateLimiter struct {
	requests *ClientLimiter
	fires    *ClientLimiter
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{}
}

// NewRateLimiter builds a limiter. Zero fields in cfg take defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	cfg = cfg.withDefaults()
	return &RateLimiter{
		requests: NewClientLimiter(cfg.RequestsPerSecond, cfg.Burst),
		fires:    NewClientLimiter(cfg.FiresPerSecond, cfg.FireBurst),
		interval: cfg.CleanupInterval,
		stopChan: make(chan struct{}),
	}
}

// StartCleanup sweeps idle clients until Stop. Extra calls are no-ops.
func (rl *RateLimiter) StartCleanup() {
	rl.startOnce.Do(func() {
		go rl.cleanupLoop()
	})
}

// Stop ends the cleanup loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) int {
	cutoff := now.Add(-2 * rl.interval)
	return rl.requests.Sweep(cutoff) + rl.fires.Sweep(cutoff)
}

// AllowFire spends one fire token for ip.
func (rl *RateLimiter) AllowFire(ip string) bool {
	if rl.fires.Allow(ip) {
		return true
	}
	RecordConnectionRejected("fire_rate")
	return false
}

// Middleware rejects requests over the per-client request budget.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.requests.Allow(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientIP returns the host part of the request's remote address.
// Behind a trusted proxy the router's RealIP middleware has already
// rewritten RemoteAddr from the forwarding headers.
func GetClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ConnLimiter caps concurrent connections per client IP.
type ConnLimiter struct {
	mu       sync.Mutex
	open     map[string]int
	maxPerIP int
}

// NewConnLimiter creates a limiter allowing maxPerIP connections per IP.
func NewConnLimiter(maxPerIP int) *ConnLimiter {
	return &ConnLimiter{open: make(map[string]int), maxPerIP: maxPerIP}
}

// Acquire reserves a connection slot for ip.
func (c *ConnLimiter) Acquire(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open[ip] >= c.maxPerIP {
		return false
	}
	c.open[ip]++
	return true
}

// Release frees a slot taken by Acquire.
func (c *ConnLimiter) Release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open[ip] <= 1 {
		delete(c.open, ip)
		return
	}
	c.open[ip]--
}

// Count returns the open connections for ip.
func (c *ConnLimiter) Count(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open[ip]
}
