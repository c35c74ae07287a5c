package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisLimiter is a distributed fixed-window limiter.
// On Redis failures it fails closed and denies the request.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter creates a Redis-backed limiter sharing state across instances.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "studyhub:ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow counts the request within the current fixed window for the key.
func (l *RedisLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.client == nil || rule.Max <= 0 || rule.Window <= 0 {
		return true, 0
	}
	windowMs := rule.Window.Milliseconds()
	windowSlot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowSlot)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, rule.Window
	}
	if count <= int64(rule.Max) {
		return true, 0
	}
	nextWindow := time.UnixMilli((windowSlot + 1) * windowMs)
	return false, time.Until(nextWindow)
}
