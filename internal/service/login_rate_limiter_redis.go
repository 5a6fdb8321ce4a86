package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLoginFailScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

const redisCallTimeout = 500 * time.Millisecond

type redisLimiterClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisLoginRateLimiter comparte el contador de fallos entre instancias.
// Ante errores de Redis deja pasar el intento.
type redisLoginRateLimiter struct {
	client redisLimiterClient
	window time.Duration
	max    int
	prefix string
}

// NewRedisLoginRateLimiter no limita si client es nil o max <= 0.
func NewRedisLoginRateLimiter(client *redis.Client, window time.Duration, max int) LoginRateLimiter {
	if client == nil || max <= 0 {
		return noopLoginRateLimiter{}
	}
	return newRedisLoginRateLimiter(client, window, max)
}

func newRedisLoginRateLimiter(client redisLimiterClient, window time.Duration, max int) *redisLoginRateLimiter {
	if window <= 0 {
		window = DefaultLoginFailureWindow
	}
	return &redisLoginRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "login:fail:",
	}
}

func (l *redisLoginRateLimiter) Allow(key string) bool {
	normalizedKey := limiterKey(key)
	if normalizedKey == "" {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	count, err := l.client.Get(ctx, l.prefix+normalizedKey).Int()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		// fail-open
		return true
	}
	return count < l.max
}

func (l *redisLoginRateLimiter) Fail(key string) {
	normalizedKey := limiterKey(key)
	if normalizedKey == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	_ = l.client.Eval(ctx, redisLoginFailScript, []string{l.prefix + normalizedKey}, seconds).Err()
}

func (l *redisLoginRateLimiter) Reset(key string) {
	normalizedKey := limiterKey(key)
	if normalizedKey == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	_ = l.client.Del(ctx, l.prefix+normalizedKey).Err()
}
