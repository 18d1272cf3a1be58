package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tasklist/core/internal/infrastructure/config"
	"github.com/tasklist/core/internal/infrastructure/logger"
)

const (
	maxConnectAttempts = 5
	initialRetryDelay  = 2 * time.Second
)

// Client wraps a go-redis client with health reporting
type Client struct {
	*goredis.Client
	addr string
	db   int
}

// New connects to Redis, retrying with exponential backoff
func New(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*Client, error) {
	return connect(ctx, cfg, log, maxConnectAttempts, initialRetryDelay)
}

func connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger, attempts int, delay time.Duration) (*Client, error) {
	opts := &goredis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		log.Infow("Connecting to Redis", "addr", opts.Addr, "attempt", attempt, "max_attempts", attempts)

		rdb := goredis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
		lastErr = rdb.Ping(pingCtx).Err()
		cancel()

		if lastErr == nil {
			log.Infow("Redis connected", "addr", opts.Addr, "db", cfg.DB)
			return &Client{Client: rdb, addr: opts.Addr, db: cfg.DB}, nil
		}

		_ = rdb.Close()
		log.Warnw("Redis connection failed", "error", lastErr, "attempt", attempt)

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", attempts, lastErr)
}

// HealthCheck pings Redis
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// GetConnectionInfo returns connection information
func (c *Client) GetConnectionInfo() map[string]interface{} {
	stats := c.PoolStats()
	return map[string]interface{}{
		"address":     c.addr,
		"database":    c.db,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
	}
}
