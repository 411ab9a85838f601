package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

var _ port.Cache = (*RedisCache)(nil)

const boardKey = "board:auctions"

// RedisCache mirrors the auction board for external readers. The engine's
// memory stays authoritative; a cache miss just falls back to it.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func (c *RedisCache) SetBoard(ctx context.Context, auctions []domain.Auction) error {
	b, err := json.Marshal(auctions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, boardKey, b, c.ttl).Err()
}

func (c *RedisCache) GetBoard(ctx context.Context) ([]domain.Auction, error) {
	b, err := c.client.Get(ctx, boardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var board []domain.Auction
	if err := json.Unmarshal(b, &board); err != nil {
		return nil, err
	}
	return board, nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, boardKey).Err()
}
