package locker

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/domaehub/settle/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrNotObtained is returned when another process holds the lock.
var ErrNotObtained = errors.New("lock_not_obtained")

// Locker serializes critical sections across processes via redislock.
// Without a configured redis client it degrades to a passthrough, which
// is correct for single-instance deployments where row locks suffice.
type Locker struct {
	client *redislock.Client
	log    *zap.Logger
}

var Module = fx.Module("locker",
	fx.Provide(NewRedisClient),
	fx.Provide(New),
)

// NewRedisClient returns nil when no redis address is configured.
func NewRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

func New(client *redis.Client, log *zap.Logger) *Locker {
	l := &Locker{log: log.Named("locker")}
	if client != nil {
		l.client = redislock.New(client)
	}
	return l
}

// WithLock runs fn while holding the named lock. The lock is retried
// briefly before giving up with ErrNotObtained.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if l == nil || l.client == nil {
		return fn(ctx)
	}

	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 10),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.log.Warn("lock not obtained", zap.String("key", key))
		return ErrNotObtained
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release(ctx)
	}()

	return fn(ctx)
}
