// Package cache is a read-through Redis cache with request coalescing.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

// New wraps a client. A nil client disables caching and every read goes to
// the loader.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func Dial(addr, password string, db int) *Cache {
	if addr == "" {
		return New(nil)
	}
	return New(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}))
}

func (c *Cache) Enabled() bool {
	return c.rdb != nil
}

// GetOrLoad returns the cached bytes for key, or runs load once for all
// concurrent callers and stores the result for ttl. Redis failures fall
// through to the loader.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.rdb == nil {
		return load(ctx)
	}

	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, redis.Nil) {
		logrus.WithError(err).WithField("key", key).Warn("Cache read failed")
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if e := c.rdb.Set(ctx, key, b, ttl).Err(); e != nil {
			logrus.WithError(e).WithField("key", key).Warn("Cache write failed")
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c.rdb == nil || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
