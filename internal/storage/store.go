// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors for store operations.
var (
	ErrInvalidConfig = errors.New("invalid storage configuration")
	ErrInvalidDriver = errors.New("invalid storage driver")
	ErrClosed        = errors.New("store is closed")
)

// Store is a string key/value store. SetMany and DeleteMany are group
// writes: either every key in the call takes effect or none does. GetMany
// is the matching group read and never mixes two group writes.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// GetMany reads keys as one group. Absent keys are omitted.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)

	// SetMany stores all values as one group.
	SetMany(ctx context.Context, values map[string]string) error

	// DeleteMany removes all keys as one group. Absent keys are ignored.
	DeleteMany(ctx context.Context, keys ...string) error

	// Close releases any resources held by the store.
	Close() error
}

// Watcher is implemented by stores that can report changes made by other
// processes. onChange is called after each settled change until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// pick copies the present keys out of values.
func pick(values map[string]string, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := values[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Driver names a store implementation.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverFile   Driver = "file"
	DriverSQLite Driver = "sqlite"
	DriverRedis  Driver = "redis"
)

const defaultDebounce = 100 * time.Millisecond
