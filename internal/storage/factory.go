// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// New creates a Store for the given driver.
// The file and sqlite drivers require WithPath; redis requires WithRedisClient.
func New(driver Driver, opts ...Option) (Store, error) {
	config := &storeConfig{
		redisPrefix: "bloodbridge:",
		debounce:    defaultDebounce,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.logger == nil {
		config.logger = zap.NewNop()
	}
	logger := config.logger.With(zap.String("driver", string(driver)))

	switch Driver(strings.ToLower(string(driver))) {
	case DriverMemory:
		return NewMemoryStore(), nil

	case DriverFile:
		if config.path == "" {
			return nil, fmt.Errorf("%w: file driver requires a path", ErrInvalidConfig)
		}
		return NewFileStore(config.path, config.debounce, logger), nil

	case DriverSQLite:
		if config.path == "" {
			return nil, fmt.Errorf("%w: sqlite driver requires a path", ErrInvalidConfig)
		}
		return NewSQLiteStore(config.path)

	case DriverRedis:
		if config.redisClient == nil {
			return nil, fmt.Errorf("%w: redis driver requires a client", ErrInvalidConfig)
		}
		return NewRedisStore(config.redisClient, config.redisPrefix, config.redisTTL), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, driver)
	}
}
