package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"golang.org/x/time/rate"
)

const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rps, rl.burst)
		rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: rl.now()}
		return limiter
	}

	v.lastSeen = rl.now()
	return v.limiter
}

// sweep forgets visitors idle for longer than ttl.
func (rl *ipRateLimiter) sweep(ttl time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > ttl {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *ipRateLimiter) cleanup() {
	ticker := time.NewTicker(visitorTTL)
	defer ticker.Stop()
	for range ticker.C {
		rl.sweep(visitorTTL)
	}
}

// RateLimit returns middleware that limits requests per IP address with a
// token bucket. rps is the allowed requests per second, burst is the maximum
// burst size. It guards the credential endpoints.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPRateLimiter(rps, burst)
	go limiter.cleanup()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.getLimiter(clientIP(r)).Allow() {
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GlobalRateLimit caps every client at perMinute requests per sliding minute.
func GlobalRateLimit(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, http.StatusTooManyRequests, "too many requests")
		}),
	)
}

// clientIP works with and without chi's RealIP, which replaces RemoteAddr
// with a bare address.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
