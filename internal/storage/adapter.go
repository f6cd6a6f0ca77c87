// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrLocked means another process holds the data directory.
	ErrLocked = errors.New("storage is locked by another bnanab process")

	// ErrReadOnly is returned by Set on a store opened read-only.
	ErrReadOnly = errors.New("storage opened read-only")

	// ErrInvalidKey rejects keys that cannot be used as file names.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage is closed")
)

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter is a string-to-string key-value store.
// A missing key is reported as ok == false with a nil error.
type Adapter interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backends lists every supported backend name.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendMemory}
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string

	// ReadOnly skips the writer lock; Set returns ErrReadOnly.
	ReadOnly bool
}

// Open creates the adapter named by opts.Backend. An empty name selects
// the file backend.
func Open(opts Options) (Adapter, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir, opts.ReadOnly)
	case BackendSQLite:
		return NewSQLiteStore(opts.Dir, opts.ReadOnly)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// validateKey allows ASCII letters, digits, '_', '-' and '.', not leading.
func validateKey(key string) error {
	if key == "" || key[0] == '.' {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
