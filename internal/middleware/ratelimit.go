package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yigit/eduschedule/internal/app/models/dto"
	"github.com/yigit/eduschedule/internal/pkg/logger"
)

// RateLimiter decides whether a client may make another request
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket is an in-memory per-key rate limiter for single instance deployments
type TokenBucket struct {
	capacity int
	rate     int
	now      func() time.Time
	mu       sync.Mutex
	state    map[string]*bucket
	// idleAfter is how long a bucket must sit unused before it is dropped
	idleAfter time.Duration
	lastSweep time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates a limiter with capacity tokens refilled at perMinute
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	l := &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		now:      time.Now,
		state:    make(map[string]*bucket),
	}
	if perMinute > 0 {
		// Time to refill an empty bucket, plus a minute of slack for rounding
		l.idleAfter = time.Duration(float64(capacity)/float64(perMinute)*float64(time.Minute)) + time.Minute
	}
	return l
}

// Allow takes one token for key
func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true, nil
	}

	refill := int(now.Sub(b.last).Minutes() * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// prune drops buckets that have been idle long enough to be full again. A dropped
// key starts over with a full bucket, which is the state it would have had anyway.
func (l *TokenBucket) prune(now time.Time) {
	if l.idleAfter <= 0 || now.Sub(l.lastSweep) < l.idleAfter {
		return
	}
	l.lastSweep = now
	for key, b := range l.state {
		if now.Sub(b.last) >= l.idleAfter {
			delete(l.state, key)
		}
	}
}

// RedisWindowLimiter counts requests per key in fixed one minute windows shared by all instances
type RedisWindowLimiter struct {
	client    redis.UniversalClient
	perMinute int
	now       func() time.Time
}

// NewRedisWindowLimiter creates a limiter allowing perMinute requests per key and window
func NewRedisWindowLimiter(client redis.UniversalClient, perMinute int) *RedisWindowLimiter {
	return &RedisWindowLimiter{client: client, perMinute: perMinute, now: time.Now}
}

// Allow increments the key's counter for the current window
func (l *RedisWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().Unix() / 60
	redisKey := "eduschedule:ratelimit:" + key + ":" + strconv.FormatInt(window, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(l.perMinute), nil
}

// RateLimit enforces limiter per client IP. A failing limiter lets traffic through.
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			logger.Warn().Err(err).Str("clientIP", ip).Msg("Rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			detail := dto.NewErrorDetail(dto.ErrorCodeRateLimited, "Too many requests").
				WithSeverity(dto.ErrorSeverityWarning)
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(detail))
			return
		}
		c.Next()
	}
}
