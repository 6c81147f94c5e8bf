package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tinacopro/config"
	"tinacopro/logging"
)

// RedisManager locks keys across processes sharing one Redis.
type RedisManager struct {
	locker *redislock.Client
	ttl    time.Duration
	opts   *redislock.Options
	log    logrus.FieldLogger
}

func NewRedisManager(rdb *redis.Client, cfg config.LocksConfig, logger logrus.FieldLogger) *RedisManager {
	if logger == nil {
		logger = logging.Discard()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &RedisManager{
		locker: redislock.New(rdb),
		ttl:    ttl,
		opts: &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(interval), cfg.RetryCount),
		},
		log: logger.WithField("module", "locks"),
	}
}

func (m *RedisManager) Acquire(ctx context.Context, keys ...string) (Unlock, error) {
	return acquireAll(ctx, keys, func(ctx context.Context, key string) (func(), error) {
		lock, err := m.locker.Obtain(ctx, key, m.ttl, m.opts)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
		}
		if err != nil {
			logging.LogError(m.log, "locks", "Acquire", "obtain redis lock", key, err)
			return nil, fmt.Errorf("obtain lock %s: %w", key, err)
		}
		return func() {
			// release with a fresh context so a cancelled request still frees the key
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				m.log.WithField("key", key).Warnf("release lock: %v", err)
			}
		}, nil
	})
}
