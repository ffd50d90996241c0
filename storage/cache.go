package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockchat/config"
	"stockchat/market"
	"stockchat/metrics"
)

// PriceCache stores daily history keyed by ticker, period and trading day.
type PriceCache interface {
	Get(ctx context.Context, key string) ([]market.Bar, bool, error)
	Put(ctx context.Context, key string, bars []market.Bar) error
	Ping(ctx context.Context) error
	Close() error
}

const staleAfter = 48 * time.Hour

// CacheKey builds the cache key for a lookup made on day. Entries roll over
// when the local calendar day changes.
func CacheKey(ticker, period string, day time.Time) string {
	return fmt.Sprintf("%s|%s|%s", strings.ToUpper(ticker), period, day.Format("2006-01-02"))
}

// CachedSource is a read-through cache in front of a market.Source.
// Info is never cached.
type CachedSource struct {
	src     market.Source
	cache   PriceCache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCachedSource(src market.Source, cache PriceCache, m *metrics.Metrics) *CachedSource {
	return &CachedSource{src: src, cache: cache, metrics: m, now: time.Now}
}

func (c *CachedSource) History(ctx context.Context, ticker, period string) ([]market.Bar, error) {
	symbol, err := market.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	key := CacheKey(symbol, period, c.now())

	bars, ok, err := c.cache.Get(ctx, key)
	if err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Cache] get %s failed: %v", key, err)
	}
	if ok {
		c.metrics.ObserveFetch("cache", "hit")
		return bars, nil
	}
	c.metrics.ObserveFetch("cache", "miss")

	bars, err = c.src.History(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, key, bars); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Cache] put %s failed: %v", key, err)
	}
	return bars, nil
}

func (c *CachedSource) Info(ctx context.Context, ticker string) (market.Info, error) {
	return c.src.Info(ctx, ticker)
}

// OpenCache builds the cache selected in cfg. It returns nil for the "none" backend.
func OpenCache(cfg config.CacheConfig) (PriceCache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		c, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.CacheSQLite, "":
		path := cfg.SQLitePath
		if path != ":memory:" {
			path = config.ExpandPath(path)
		}
		c, err := NewSQLiteCache(path)
		if err != nil {
			return nil, err
		}
		// Keys carry the day, so older rows can never hit again
		n, err := c.Prune(context.Background(), time.Now().Add(-staleAfter))
		if err != nil {
			c.Close()
			return nil, err
		}
		if n > 0 && config.DebugLog != nil {
			config.DebugLog.Printf("[Cache] Pruned %d stale entries", n)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", cfg.Backend)
	}
}
