package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// GetOrLoadMsgpack is GetOrLoad for values stored as msgpack.
func GetOrLoadMsgpack[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
) (T, error) {
	var out T
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		bytes, e := msgpack.Marshal(v)
		if e != nil {
			return nil, fmt.Errorf("msgpack marshal error: %w", e)
		}
		return bytes, nil
	})
	if err != nil {
		return out, err
	}
	if err := msgpack.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("msgpack unmarshal error: %w", err)
	}
	return out, nil
}
