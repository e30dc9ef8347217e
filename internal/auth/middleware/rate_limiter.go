package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/redis"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/validator"
)

// RateLimiterConfig bounds requests per window
type RateLimiterConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	MaxRequests   int    `mapstructure:"max_requests"`
	WindowSeconds int    `mapstructure:"window_seconds"`
	Strategy      string `mapstructure:"strategy" validate:"omitempty,oneof=user ip endpoint"`
}

// Evaler runs a Lua script. *redis.Client satisfies it.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

var _ Evaler = (*redis.Client)(nil)

// sliding window over a sorted set; members are unique per request
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window * 1000)
local current = redis.call('ZCARD', key)

if current < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window * 1000)
	return {1, limit - current - 1}
end
return {0, 0}
`

// RateLimiter limits requests with a Redis sliding window. A Redis failure
// lets the request through.
func RateLimiter(store Evaler, cfg RateLimiterConfig, log *logger.Logger) gin.HandlerFunc {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = 60
	}
	if cfg.Strategy == "" {
		cfg.Strategy = "user"
	}

	return func(c *gin.Context) {
		key := buildRateLimitKey(c, cfg.Strategy)

		allowed, remaining, err := checkRateLimit(c.Request.Context(), store, key, cfg)
		if err != nil {
			log.Error("rate limiter error", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(cfg.WindowSeconds))
			response429(c, cfg.WindowSeconds)
			return
		}
		c.Next()
	}
}

func buildRateLimitKey(c *gin.Context, strategy string) string {
	const prefix = "drive:rate_limit"
	client := validator.ClientKey(c.ClientIP())

	switch strategy {
	case "user":
		if userID, ok := GetUserID(c); ok {
			return fmt.Sprintf("%s:user:%s", prefix, userID)
		}
		return fmt.Sprintf("%s:ip:%s", prefix, client)
	case "endpoint":
		return fmt.Sprintf("%s:endpoint:%s:%s", prefix, c.FullPath(), client)
	default:
		return fmt.Sprintf("%s:ip:%s", prefix, client)
	}
}

func checkRateLimit(ctx context.Context, store Evaler, key string, cfg RateLimiterConfig) (bool, int, error) {
	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10)

	result, err := store.Eval(ctx, slidingWindowScript, []string{key},
		now.UnixMilli(), cfg.WindowSeconds, cfg.MaxRequests, member)
	if err != nil {
		return false, 0, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("invalid rate limit result: %v", result)
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	return allowed == 1, int(remaining), nil
}

func response429(c *gin.Context, windowSeconds int) {
	c.AbortWithStatusJSON(apperrors.GetHTTPStatus(apperrors.ErrTooManyRequests), gin.H{
		"code":    apperrors.ErrTooManyRequests,
		"message": fmt.Sprintf("too many requests, retry in %d seconds", windowSeconds),
		"data":    struct{}{},
	})
}
