package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"stockchat/market"

	_ "modernc.org/sqlite"
)

type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens the cache database at path. ":memory:" keeps it for
// the life of the process.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cache := &SQLiteCache{db: db}

	if err := cache.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cache, nil
}

func (c *SQLiteCache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS price_history (
		cache_key TEXT PRIMARY KEY,
		bars TEXT NOT NULL,
		fetched_at DATETIME NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]market.Bar, bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT bars FROM price_history WHERE cache_key = ?`, key,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cache: %w", err)
	}

	var bars []market.Bar
	if err := json.Unmarshal([]byte(payload), &bars); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached bars: %w", err)
	}
	return bars, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, key string, bars []market.Bar) error {
	payload, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("failed to encode bars: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO price_history (cache_key, bars, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET bars = excluded.bars, fetched_at = excluded.fetched_at
	`, key, string(payload), time.Now())
	if err != nil {
		return fmt.Errorf("failed to store bars: %w", err)
	}
	return nil
}

// Prune removes entries fetched before cutoff.
func (c *SQLiteCache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM price_history WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}

func (c *SQLiteCache) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
