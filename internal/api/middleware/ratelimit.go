package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/good-yellow-bee/countdown/internal/metrics"
)

// RateLimiter hands out one token bucket per client key. Buckets of idle
// clients are evicted after ttl, and at most size clients are tracked.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter creates a limiter allowing perMinute requests per minute per
// key, with bursts up to the same amount.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		buckets: expirable.NewLRU[string, *rate.Limiter](10000, nil, 10*time.Minute),
	}
}

func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	if l, ok := rl.buckets.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.buckets.Add(key, l)
	return l
}

// Allow reports whether a request for key may proceed now. When it may not,
// it also returns how long until a token frees up.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	r := rl.bucket(key).Reserve()
	if !r.OK() {
		return false, time.Minute
	}
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return false, d
	}
	return true, 0
}

// jsonRateLimited writes a rate limited error response.
func jsonRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "RATE_LIMITED",
			"message": "too many requests",
		},
	})
}

// RateLimitByIP returns middleware that rate limits by client IP. Forwarding
// headers are honored only when trustProxy is set.
func RateLimitByIP(limiter *RateLimiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, wait := limiter.Allow(clientIP(r, trustProxy)); !ok {
				metrics.HTTPRateLimited.Inc()
				jsonRateLimited(w, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByShop returns middleware that rate limits authenticated admin
// requests by the shop in their token, falling back to the client IP.
func RateLimitByShop(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetShop(r.Context())
			if key == "" {
				key = clientIP(r, false)
			}
			if ok, wait := limiter.Allow("shop:" + key); !ok {
				metrics.HTTPRateLimited.Inc()
				jsonRateLimited(w, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Take the first IP
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if first != "" {
				return first
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
