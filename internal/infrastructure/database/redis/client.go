// Package redis provides the Redis-backed read cache for patent documents.
// The cache sits in front of the PostgreSQL document store as a
// read-through decorator; it is an availability optimisation, never a
// source of truth.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// Cache is the minimal JSON-document cache contract the pipeline needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Client wraps a go-redis client with key prefixing and JSON serialisation.
type Client struct {
	rdb        *redis.Client
	prefix     string
	defaultTTL time.Duration
	logger     logging.Logger
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "redis connection failed")
	}

	logger.Info("connected to Redis", logging.String("addr", cfg.Addr))

	return &Client{
		rdb:        rdb,
		prefix:     cfg.KeyPrefix + ":",
		defaultTTL: cfg.DefaultTTL,
		logger:     logger,
	}, nil
}

func (c *Client) fullKey(key string) string { return c.prefix + key }

// GetJSON fetches and decodes a cached JSON document into dest.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "cache read failed").WithDetail(key)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cached document is corrupt").WithDetail(key)
	}
	return nil
}

// SetJSON encodes value as JSON and stores it under key.  A zero ttl uses
// the configured default.
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode cache value").WithDetail(key)
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if err := c.rdb.Set(ctx, c.fullKey(key), raw, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "cache write failed").WithDetail(key)
	}
	return nil
}

// Delete removes the given keys.  Missing keys are not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "cache delete failed")
	}
	return nil
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close shuts down the underlying client.
func (c *Client) Close() error {
	return c.rdb.Close()
}
