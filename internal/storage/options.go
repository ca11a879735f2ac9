// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Option is a functional option for configuring a store.
type Option func(*storeConfig)

type storeConfig struct {
	path        string
	redisClient *redis.Client
	redisPrefix string
	redisTTL    time.Duration
	debounce    time.Duration
	logger      *zap.Logger
}

// WithPath sets the file or sqlite database location.
func WithPath(path string) Option {
	return func(c *storeConfig) {
		c.path = path
	}
}

// WithRedisClient sets the Redis client for the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisPrefix namespaces redis keys (default "bloodbridge:").
func WithRedisPrefix(prefix string) Option {
	return func(c *storeConfig) {
		c.redisPrefix = prefix
	}
}

// WithRedisTTL sets the expiry for redis keys. Zero keeps keys forever.
func WithRedisTTL(ttl time.Duration) Option {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// WithDebounce sets how long the file watcher waits for writes to settle.
func WithDebounce(d time.Duration) Option {
	return func(c *storeConfig) {
		c.debounce = d
	}
}

// WithLogger sets the logger used for watcher and driver diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *storeConfig) {
		c.logger = l
	}
}
