// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kvstore is chatpad's local key-value storage.
//
// It plays the role browser local storage plays for a web client: a small
// set of string keys holding serialized JSON, with a total size quota.
// Three backends share the Store interface:
//
//   - file:   one <key>.json per key, written atomically
//   - sqlite: a single table in chatpad.db (modernc.org/sqlite, no cgo)
//   - memory: process-local map (storage.backend = "memory"), nothing persists
//
// Stores are safe for concurrent use. Nothing coordinates two processes
// writing the same key; the last write wins.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Get when the key has never been set.
	ErrNotFound = errors.New("kvstore: key not found")

	// ErrQuotaExceeded is returned by Set when the write would push the
	// store past its byte quota. The previous value is left intact.
	ErrQuotaExceeded = errors.New("kvstore: quota exceeded")

	// ErrInvalidKey rejects keys that cannot be used as file names.
	ErrInvalidKey = errors.New("kvstore: invalid key")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kvstore: store closed")
)

// =============================================================================
// INTERFACES
// =============================================================================

// Store is a byte-valued key-value store with a size quota.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}

// Watcher is implemented by stores that can report keys changed by another
// process. The channel closes when ctx is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// =============================================================================
// FACTORY
// =============================================================================

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open builds the named backend rooted at dir. quota <= 0 disables the quota.
func Open(backend, dir string, quota int64) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dir, quota)
	case BackendSQLite:
		return NewSQLiteStore(dir, quota)
	case BackendMemory:
		return NewMemoryStore(quota), nil
	default:
		return nil, fmt.Errorf("kvstore: unknown backend %q", backend)
	}
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// overQuota reports whether replacing key's current value (oldSize bytes)
// with newSize bytes would push total past quota.
func overQuota(quota, total, oldSize, newSize int64) bool {
	if quota <= 0 {
		return false
	}
	return total-oldSize+newSize > quota
}
