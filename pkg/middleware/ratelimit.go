package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Key strategies for RateLimitConfig.Strategy.
const (
	StrategyIP      = "ip"
	StrategySession = "session"
	StrategyCustom  = "custom"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Unique identifier for this rate limit bucket.
	// Interceptors sharing a BucketName and a limiter share the same budget.
	BucketName string

	// Maximum number of requests allowed in the time window
	Limit int

	// Time window for the rate limit (e.g., 1 minute, 1 hour)
	Window time.Duration

	// Strategy for identifying clients:
	// - "ip": Use the client IP address
	// - "session": Use the session identifier
	// - "custom": Use KeyExtractor
	Strategy string

	// Custom key extractor function (used when Strategy is "custom")
	KeyExtractor func(*common.Request) (string, error)

	// Answers requests over the limit. If nil, a 429 Too Many Requests
	// response is sent.
	ExceededHandler common.Handler
}

// RateLimiter defines the interface for rate limiting algorithms
type RateLimiter interface {
	// Allow reports whether a request for key is allowed, the number of
	// requests still available and the time until the budget is restored.
	Allow(key string, limit int, window time.Duration) (bool, int, time.Duration)
}

// TokenBucketLimiter implements RateLimiter with one token bucket per key.
// Buckets refill at limit/window and hold at most limit tokens. Idle buckets
// are evicted periodically.
type TokenBucketLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	hits    uint64
	idleTTL time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucketLimiter creates a limiter that evicts buckets unused for
// idleTTL, ten minutes when idleTTL is not positive.
func NewTokenBucketLimiter(idleTTL time.Duration) *TokenBucketLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &TokenBucketLimiter{
		buckets: make(map[string]*bucket),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow implements RateLimiter.
func (l *TokenBucketLimiter) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	every := rate.Limit(float64(limit) / window.Seconds())
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(every, limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	l.hits++
	if l.hits%512 == 0 {
		l.evict(now)
	}

	remaining := int(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}
	if !allowed {
		// Time until one whole token is available.
		return false, 0, durationFor(1-tokens, every)
	}
	return true, remaining, durationFor(float64(limit)-tokens, every)
}

// Len returns the number of live buckets.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *TokenBucketLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

func durationFor(tokens float64, r rate.Limit) time.Duration {
	if tokens <= 0 || r <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(r) * float64(time.Second))
}

// extractKey returns the client key for config's strategy.
func extractKey(req *common.Request, config *RateLimitConfig) (string, error) {
	switch config.Strategy {
	case StrategySession:
		if req.SessionID != "" {
			return req.SessionID, nil
		}
	case StrategyCustom:
		if config.KeyExtractor != nil {
			return config.KeyExtractor(req)
		}
	}
	return ClientIP(req), nil
}

// RateLimit creates an interceptor that enforces config using limiter. A nil
// limiter selects a TokenBucketLimiter private to this interceptor.
func RateLimit(config *RateLimitConfig, limiter RateLimiter, logger *zap.Logger) common.Interceptor {
	if limiter == nil {
		limiter = NewTokenBucketLimiter(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(req *common.Request, res *common.Response, next common.Next) error {
		// Skip rate limiting if config is nil
		if config == nil {
			next()
			return nil
		}

		key, err := extractKey(req, config)
		if err != nil {
			logger.Error("Failed to extract rate limit key",
				zap.Error(err),
				zap.String("method", req.Method),
				zap.String("path", req.Path),
			)
			return err
		}

		// Combine bucket name and key to create a unique identifier
		allowed, remaining, reset := limiter.Allow(config.BucketName+":"+key, config.Limit, config.Window)

		res.Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		res.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		res.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

		if !allowed {
			res.Set("Retry-After", strconv.FormatInt(int64(math.Ceil(reset.Seconds())), 10))

			logger.Warn("Rate limit exceeded",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.String("key", key),
				zap.Int("limit", config.Limit),
			)

			// Use custom handler if provided, otherwise return 429
			if config.ExceededHandler != nil {
				return config.ExceededHandler(req, res)
			}
			return res.Status(http.StatusTooManyRequests).Send(http.StatusText(http.StatusTooManyRequests))
		}

		next()
		return nil
	}
}

// ThrottleConfig defines configuration for request pacing.
type ThrottleConfig struct {
	Rate  int           // Requests let through per Per
	Per   time.Duration // Pacing period, one second when zero
	Slack int           // Requests that may be let through in a burst after idle time, 0 for none

	// PerClient paces every client IP separately instead of globally.
	PerClient bool
}

// Throttle creates an interceptor that paces requests to config.Rate instead
// of rejecting them: each request waits for its slot before calling next.
// The wait ends early if the client goes away.
func Throttle(config ThrottleConfig) common.Interceptor {
	t := &throttle{config: config}
	return func(req *common.Request, res *common.Response, next common.Next) error {
		key := ""
		if config.PerClient {
			key = ClientIP(req)
		}
		limiter := t.limiter(key)

		slot := make(chan struct{})
		go func() {
			limiter.Take()
			close(slot)
		}()

		select {
		case <-slot:
			next()
		case <-req.Context().Done():
		}
		return nil
	}
}

// throttle keeps one leaky bucket per key.
type throttle struct {
	config   ThrottleConfig
	limiters sync.Map // map[string]ratelimit.Limiter
	mu       sync.Mutex
}

// limiter gets or creates the limiter for key.
func (t *throttle) limiter(key string) ratelimit.Limiter {
	if limiter, ok := t.limiters.Load(key); ok {
		return limiter.(ratelimit.Limiter)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring lock
	if limiter, ok := t.limiters.Load(key); ok {
		return limiter.(ratelimit.Limiter)
	}

	per := t.config.Per
	if per <= 0 {
		per = time.Second
	}
	rps := t.config.Rate
	if rps < 1 {
		rps = 1
	}
	opts := []ratelimit.Option{ratelimit.Per(per)}
	if t.config.Slack > 0 {
		opts = append(opts, ratelimit.WithSlack(t.config.Slack))
	} else {
		opts = append(opts, ratelimit.WithoutSlack)
	}

	limiter := ratelimit.New(rps, opts...)
	t.limiters.Store(key, limiter)
	return limiter
}
