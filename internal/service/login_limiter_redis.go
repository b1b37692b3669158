package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLoginFailureScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisLoginLimiter struct {
	client redisLimiterClient
	window time.Duration
	max    int
	prefix string
}

type redisLimiterClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisLoginLimiter comparte el conteo de fallos entre instancias. Ante
// errores de redis no bloquea a nadie.
func NewRedisLoginLimiter(client *redis.Client, window time.Duration, max int) LoginLimiter {
	if client == nil {
		return nil
	}
	return newRedisLoginLimiter(client, window, max)
}

func newRedisLoginLimiter(client redisLimiterClient, window time.Duration, max int) *redisLoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisLoginLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "login:fail:",
	}
}

func (l *redisLoginLimiter) Blocked(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	count, err := l.client.Get(ctx, l.prefix+normalizeLimiterKey(key)).Int()
	if err != nil {
		return false
	}
	return count >= l.max
}

func (l *redisLoginLimiter) RecordFailure(ctx context.Context, key string) {
	if l == nil || l.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	_ = l.client.Eval(ctx, redisLoginFailureScript, []string{l.prefix + normalizeLimiterKey(key)}, seconds).Err()
}

func (l *redisLoginLimiter) Reset(ctx context.Context, key string) {
	if l == nil || l.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = l.client.Del(ctx, l.prefix+normalizeLimiterKey(key)).Err()
}
