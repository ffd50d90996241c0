package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockchat/market"

	goredis "github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "stockchat:history:"

type RedisCache struct {
	client *goredis.Client
	now    func() time.Time
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisCache{client: client, now: time.Now}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]market.Bar, bool, error) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	var bars []market.Bar
	if err := json.Unmarshal(payload, &bars); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached bars: %w", err)
	}
	return bars, true, nil
}

// Put stores bars until the end of the current day.
func (c *RedisCache) Put(ctx context.Context, key string, bars []market.Bar) error {
	payload, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("failed to encode bars: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, payload, untilMidnight(c.now())).Err(); err != nil {
		return fmt.Errorf("failed to store bars: %w", err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func untilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
