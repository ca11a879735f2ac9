// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the persistent key/value store behind the
// bloodbridge session.
//
// # Drivers
//
//   - memory: process-local map, nothing survives exit
//   - file: one JSON file written by atomic rename, with fsnotify change watch
//   - sqlite: single kv table, group writes in one transaction
//   - redis: shared store for several terminals, group writes via MULTI/EXEC
//
// # Usage
//
//	store, err := storage.New(storage.DriverFile, storage.WithPath(path))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	err = store.SetMany(ctx, map[string]string{"auth_token": tok, "auth_role": role})
package storage
