// Package cache keeps recently read business hours specs in Redis so status
// queries do not hit Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/metrics"
	"github.com/redis/go-redis/v9"
)

type Entry struct {
	Spec     string `json:"spec"`
	Timezone string `json:"timezone"`
	Version  int64  `json:"version"`
}

type Cache interface {
	Get(ctx context.Context, businessID string) (Entry, bool, error)
	Set(ctx context.Context, businessID string, e Entry) error
	Delete(ctx context.Context, businessID string) error
}

// client is the subset of redis.Cmdable the cache needs.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Redis struct {
	rdb    client
	prefix string
	ttl    time.Duration
}

func NewRedis(rdb client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "hours:"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Redis) key(businessID string) string {
	return c.prefix + businessID
}

func (c *Redis) Get(ctx context.Context, businessID string) (Entry, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(businessID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Entry{}, false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return Entry{}, false, err
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return e, true, nil
}

func (c *Redis) Set(ctx context.Context, businessID string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(businessID), raw, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, businessID string) error {
	return c.rdb.Del(ctx, c.key(businessID)).Err()
}

// Noop is used when no Redis is configured; every lookup misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, nil
}

func (Noop) Set(context.Context, string, Entry) error {
	return nil
}

func (Noop) Delete(context.Context, string) error {
	return nil
}

// ReadyCheck pings Redis.
func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
