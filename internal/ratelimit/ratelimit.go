package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tillpoint/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// tokenBucket refills rate tokens per second up to capacity and takes one per
// call, all inside Redis so every replica shares the same bucket.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])
if tokens == nil then
  tokens = capacity
  ts = now
end

tokens = math.min(capacity, tokens + (now - ts) * rate)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HMSET', key, 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', key, math.ceil(capacity / rate) * 2)
return allowed
`)

type Limiter struct {
	client   *redis.Client
	log      *zap.Logger
	rate     float64
	capacity int
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

// New builds a login limiter backed by Redis. With no REDIS_ADDR configured
// the limiter is nil and Allow lets everything through.
func New(p Params) *Limiter {
	if p.Config.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     p.Config.RedisAddr,
		Password: p.Config.RedisPassword,
	})
	return &Limiter{
		client:   client,
		log:      p.Log.Named("ratelimit"),
		rate:     0.5,
		capacity: 5,
	}
}

// Allow takes one token for key. Redis trouble fails open.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return true
	}
	allowed, err := tokenBucket.Run(ctx, l.client,
		[]string{"ratelimit:" + key},
		l.rate,
		l.capacity,
		time.Now().Unix(),
	).Int()
	if err != nil {
		l.log.Warn("bucket check failed, allowing", zap.String("key", key), zap.Error(err))
		return true
	}
	return allowed == 1
}

var Module = fx.Module("ratelimit",
	fx.Provide(New),
)
