package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ZoneNameCache keeps zone display names in Redis so listings skip the registry.
type ZoneNameCache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

type ZoneNameCacheOption func(*ZoneNameCache)

func WithKeyPrefix(prefix string) ZoneNameCacheOption {
	return func(c *ZoneNameCache) { c.prefix = strings.Trim(prefix, ":") }
}

// WithTTL sets the expiry of each cached name. Zero keeps names forever.
func WithTTL(d time.Duration) ZoneNameCacheOption {
	return func(c *ZoneNameCache) { c.ttl = d }
}

func NewZoneNameCache(rdb *goredis.Client, opts ...ZoneNameCacheOption) *ZoneNameCache {
	c := &ZoneNameCache{
		rdb:    rdb,
		prefix: "parking:zone-name",
		ttl:    10 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ZoneNameCache) key(zoneID string) string {
	return c.prefix + ":" + zoneID
}

// Lookup returns the cached names for ids; misses are absent from the result.
func (c *ZoneNameCache) Lookup(ctx context.Context, ids []string) (map[string]string, error) {
	found := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("zone name lookup: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			found[ids[i]] = s
		}
	}
	return found, nil
}

func (c *ZoneNameCache) Store(ctx context.Context, names map[string]string) error {
	if len(names) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for id, name := range names {
		pipe.Set(ctx, c.key(id), name, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("zone name store: %w", err)
	}
	return nil
}

// Ping checks the connection, used by the health endpoint.
func (c *ZoneNameCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
