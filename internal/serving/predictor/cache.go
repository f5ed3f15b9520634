package predictor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

// Cache stores predicted labels by key. Misses return ok=false, nil error.
type Cache interface {
	Get(ctx context.Context, key string) (label int, ok bool, err error)
	Set(ctx context.Context, key string, label int) error
	Close() error
}

type redisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects to addr and pings it. An empty addr disables the
// cache and returns (nil, nil).
func NewRedisCache(ctx context.Context, log *logger.Logger, addr string, ttl time.Duration) (Cache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisCache(log, rdb, ttl), nil
}

func newRedisCache(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) *redisCache {
	return &redisCache{
		log:    log.With("service", "RedisPredictionCache"),
		rdb:    rdb,
		ttl:    ttl,
		prefix: "hrp:prediction:",
	}
}

func (c *redisCache) Get(ctx context.Context, key string) (int, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	label, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry %q: %w", raw, err)
	}
	return label, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, label int) error {
	return c.rdb.Set(ctx, c.prefix+key, strconv.Itoa(label), c.ttl).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
