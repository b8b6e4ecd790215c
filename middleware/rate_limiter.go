package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"shipbook/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter decides whether one more request for key fits the budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalRateLimiter keeps a token bucket per key in process memory. Budgets
// are not shared between instances.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perMin   int
}

func NewLocalRateLimiter(perMinute int) *LocalRateLimiter {
	return &LocalRateLimiter{limiters: make(map[string]*rate.Limiter), perMin: perMinute}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow(), nil
}

// RedisRateLimiter is a fixed-window counter shared by every instance
// pointing at the same Redis.
type RedisRateLimiter struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
	Prefix string
	Now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, perMinute int) *RedisRateLimiter {
	return &RedisRateLimiter{Client: client, Limit: perMinute, Window: time.Minute, Prefix: "ratelimit:"}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	window := now().UnixNano() / int64(l.Window)
	redisKey := fmt.Sprintf("%s%s:%d", l.Prefix, key, window)

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.Limit), nil
}

// NewRateLimiter picks the backend named by RATE_LIMIT_BACKEND.
func NewRateLimiter(cfg config.Config, client *redis.Client) RateLimiter {
	perMin := cfg.MaxRequestsPerMin
	if perMin <= 0 {
		perMin = 100
	}
	if strings.EqualFold(cfg.RateLimitBackend, "redis") && client != nil {
		return NewRedisRateLimiter(client, perMin)
	}
	return NewLocalRateLimiter(perMin)
}

// RateLimitMiddleware limits requests per caller. A limiter backend error
// lets the request through.
func RateLimitMiddleware(limiter RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			logger.Warn("Rate limit exceeded", zap.String("key", key))
			abort(c, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
			return
		}
		c.Next()
	}
}

// clientKey buckets authenticated callers by user and everyone else by IP.
func clientKey(c *gin.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return "user:" + id.UserID
	}
	return "ip:" + c.ClientIP()
}
