// Package cache is a Redis-backed port.FillPublisher, adapted from the
// teacher's RedisCache (internal/adapter/cache/redis_cache.go): the same
// go-redis/v9 client construction, the same JSON-marshal-then-Set shape,
// generalized from a cached orderbook snapshot to a pub/sub channel per
// symbol so out-of-process subscribers can tail fills in real time.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vkarasev/matchcore/internal/domain"
	"github.com/vkarasev/matchcore/internal/port"
)

var _ port.FillPublisher = (*RedisPublisher)(nil)

// RedisPublisher publishes EnhancedFills to a per-symbol Redis pub/sub
// channel, matching the teacher's own NewRedisCache(addr, password, db, ttl)
// construction shape.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher constructs a publisher against addr/password/db, as
// the teacher's NewRedisCache does.
func NewRedisPublisher(addr, password string, db int) *RedisPublisher {
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func channel(symbol string) string { return "fills:" + symbol }

// PublishFill marshals fill as JSON and publishes it to the symbol's
// channel.
func (p *RedisPublisher) PublishFill(ctx context.Context, symbol string, fill domain.EnhancedFill) error {
	data, err := json.Marshal(fill)
	if err != nil {
		return fmt.Errorf("cache: publish fill: %w", err)
	}
	if err := p.client.Publish(ctx, channel(symbol), data).Err(); err != nil {
		return fmt.Errorf("cache: publish fill: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
