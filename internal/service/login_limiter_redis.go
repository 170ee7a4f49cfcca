package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// El primer fallo fija la expiracion; los siguientes solo incrementan.
const redisLoginFailScript = `
local failures = redis.call("INCR", KEYS[1])
if failures == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return failures
`

const redisLoginTimeout = 500 * time.Millisecond

type loginCounterClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisLoginLimiter struct {
	client loginCounterClient
	window time.Duration
	max    int
	prefix string
}

// NewRedisLoginLimiter comparte el conteo de fallos entre instancias.
func NewRedisLoginLimiter(client *redis.Client, window time.Duration, max int) LoginLimiter {
	if client == nil {
		return nil
	}
	return newRedisLoginLimiter(client, window, max)
}

func newRedisLoginLimiter(client loginCounterClient, window time.Duration, max int) *redisLoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisLoginLimiter{client: client, window: window, max: max, prefix: "login:fail:"}
}

func (l *redisLoginLimiter) counterKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	return l.prefix + key, true
}

func (l *redisLoginLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	counter, ok := l.counterKey(key)
	if !ok {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisLoginTimeout)
	defer cancel()

	failures, err := l.client.Get(ctx, counter).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return true
	case err != nil:
		// sin redis el login sigue disponible
		return true
	}
	return failures < l.max
}

func (l *redisLoginLimiter) Fail(key string) {
	if l == nil || l.client == nil {
		return
	}
	counter, ok := l.counterKey(key)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisLoginTimeout)
	defer cancel()
	_ = l.client.Eval(ctx, redisLoginFailScript, []string{counter}, l.window.Milliseconds()).Err()
}

func (l *redisLoginLimiter) Reset(key string) {
	if l == nil || l.client == nil {
		return
	}
	counter, ok := l.counterKey(key)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisLoginTimeout)
	defer cancel()
	_ = l.client.Del(ctx, counter).Err()
}
