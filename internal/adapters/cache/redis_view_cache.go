package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"station-cargo-service/internal/domain"
)

// Redis-backed implementation of the ViewCache port. Snapshots are stored
// under cargoview:<station>:<variant> so a station invalidation can drop all
// of its variants in one scan.
type RedisViewCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisViewCache(client *redis.Client, ttl time.Duration) *RedisViewCache {
	return &RedisViewCache{Client: client, TTL: ttl}
}

func viewKey(station domain.StationID, variant string) string {
	return fmt.Sprintf("cargoview:%d:%s", station, variant)
}

func (c *RedisViewCache) Get(ctx context.Context, station domain.StationID, variant string) ([]byte, bool, error) {
	payload, err := c.Client.Get(ctx, viewKey(station, variant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("view cache get station=%d: %w", station, err)
	}
	return payload, true, nil
}

func (c *RedisViewCache) Put(ctx context.Context, station domain.StationID, variant string, payload []byte) error {
	if err := c.Client.Set(ctx, viewKey(station, variant), payload, c.TTL).Err(); err != nil {
		return fmt.Errorf("view cache put station=%d: %w", station, err)
	}
	return nil
}

// Drop removes every cached variant for the station.
func (c *RedisViewCache) Drop(ctx context.Context, station domain.StationID) error {
	pattern := fmt.Sprintf("cargoview:%d:*", station)
	iter := c.Client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("view cache drop station=%d: %w", station, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("view cache drop scan station=%d: %w", station, err)
	}
	return nil
}
