package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines the rate limiting configuration.
// Valid values:
//   - RequestsPerWindow: must be > 0
//   - WindowDuration: must be > 0
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// Validate checks that the RateLimitConfig has valid values.
func (c RateLimitConfig) Validate() error {
	if c.RequestsPerWindow <= 0 {
		return fmt.Errorf("RequestsPerWindow must be > 0 (got %d)", c.RequestsPerWindow)
	}
	if c.WindowDuration <= 0 {
		return fmt.Errorf("WindowDuration must be > 0 (got %s)", c.WindowDuration)
	}
	return nil
}

// DefaultGlobalLimit returns the default global rate limit (100 requests per minute).
func DefaultGlobalLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerWindow: 100, WindowDuration: time.Minute}
}

// DefaultWriteLimit returns the default limit for mutating social endpoints
// (likes, follows, saves, comments): 30 requests per minute.
func DefaultWriteLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerWindow: 30, WindowDuration: time.Minute}
}

// DefaultSearchLimit returns the default search endpoint rate limit (30 requests per minute).
func DefaultSearchLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerWindow: 30, WindowDuration: time.Minute}
}

// RateLimitStore defines the interface for rate limit state storage.
type RateLimitStore interface {
	// Allow records a request for key and reports whether it is within the limit,
	// how many requests remain in the window, and the seconds until the window resets
	// when the request was rejected.
	Allow(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, retryAfter int)
}

// bucket represents a rate limit bucket for a single key.
type bucket struct {
	count     int
	windowEnd time.Time
}

// InMemoryRateLimitStore implements RateLimitStore using a fixed window counter.
// Used when no Redis URL is configured. Safe for concurrent use.
type InMemoryRateLimitStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewInMemoryRateLimitStore creates a new in-memory rate limit store.
func NewInMemoryRateLimitStore() *InMemoryRateLimitStore {
	return &InMemoryRateLimitStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow implements RateLimitStore.
func (s *InMemoryRateLimitStore) Allow(_ context.Context, key string, config RateLimitConfig) (bool, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	b, exists := s.buckets[key]
	if !exists || !now.Before(b.windowEnd) {
		s.buckets[key] = &bucket{
			count:     1,
			windowEnd: now.Add(config.WindowDuration),
		}
		return true, config.RequestsPerWindow - 1, 0
	}

	if b.count < config.RequestsPerWindow {
		b.count++
		return true, config.RequestsPerWindow - b.count, 0
	}

	return false, 0, secondsUntil(now, b.windowEnd)
}

// Cleanup removes expired buckets to prevent memory leaks.
// Run it periodically at 2-5x the longest configured WindowDuration.
func (s *InMemoryRateLimitStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, b := range s.buckets {
		if !now.Before(b.windowEnd) {
			delete(s.buckets, key)
		}
	}
}

// RedisRateLimitStore implements RateLimitStore with a fixed window counter in Redis,
// so limits hold across API replicas. Redis failures fail open.
type RedisRateLimitStore struct {
	client  redis.UniversalClient
	prefix  string
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client redis.UniversalClient) *RedisRateLimitStore {
	return &RedisRateLimitStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// WithMetrics attaches metrics used to count fail-open events.
func (s *RedisRateLimitStore) WithMetrics(m *Metrics) *RedisRateLimitStore {
	s.metrics = m
	return s
}

// Allow implements RateLimitStore.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	redisKey := s.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, config.WindowDuration)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "rate limit store unavailable, allowing request",
			"key", key,
			"error", err)
		if s.metrics != nil {
			s.metrics.IncRateLimitRedisErrors()
		}
		return true, config.RequestsPerWindow, 0
	}

	count := int(incr.Val())
	if count <= config.RequestsPerWindow {
		return true, config.RequestsPerWindow - count, 0
	}

	retryAfter := int(ttl.Val().Seconds())
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, 0, retryAfter
}

func secondsUntil(now, end time.Time) int {
	retryAfter := int(end.Sub(now).Seconds())
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return retryAfter
}

// KeyFunc extracts a rate limit key from an HTTP request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc returns a KeyFunc that uses the client's IP address.
func IPKeyFunc() KeyFunc {
	return func(r *http.Request) string {
		// Use the first IP in the X-Forwarded-For chain
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.Index(xff, ","); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}
			return strings.TrimSpace(xff)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// UserKeyFunc returns a KeyFunc that uses the authenticated user ID if available,
// falling back to IP address.
func UserKeyFunc() KeyFunc {
	ipFunc := IPKeyFunc()
	return func(r *http.Request) string {
		if id := GetUserID(r.Context()); id != "" {
			return "user:" + id
		}
		return "ip:" + ipFunc(r)
	}
}

// ScopedKeyFunc suffixes keys from kf with scope so that several limiters can
// share one store without sharing counters.
func ScopedKeyFunc(scope string, kf KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		return kf(r) + "|" + scope
	}
}

// keyType reports the label used for rate limit metrics.
func keyType(key string) string {
	if strings.HasPrefix(key, "user:") {
		return "user"
	}
	return "ip"
}

// RateLimiter is a middleware that limits request rates.
// It returns HTTP 429 with the JSON error envelope when the limit is exceeded.
// metrics may be nil.
func RateLimiter(store RateLimitStore, config RateLimitConfig, keyFunc KeyFunc, metrics *Metrics) func(http.Handler) http.Handler {
	limit := strconv.Itoa(config.RequestsPerWindow)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			endpoint := normalizePath(r.URL.Path)
			if metrics != nil {
				metrics.IncRateLimitRequests(endpoint, keyType(key))
			}

			allowed, remaining, retryAfter := store.Allow(r.Context(), key, config)
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				if metrics != nil {
					metrics.IncRateLimitBlocked(endpoint, keyType(key))
				}
				UpdateResponseContext(w, SetErrorCode(r.Context(), "rate_limited"))

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				// X-RateLimit-Reset is a Unix timestamp
				resetTime := time.Now().Add(time.Duration(retryAfter) * time.Second).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))
				writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSONError mirrors api.WriteError for middleware that cannot import the api package.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	body, _ := json.Marshal(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
