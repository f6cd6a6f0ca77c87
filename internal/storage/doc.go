// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local key-value persistence for bnanab.
//
// Every backend implements Adapter: string keys mapping to string values,
// with no transactions and no cross-key atomicity. The session layer stores
// three keys (user, chats, settings) as JSON text.
//
// # Backends
//
//   - FileStore: one <key>.json file per key, atomic writes, and an
//     exclusive directory lock so two writers never interleave.
//   - SQLiteStore: a single kv table in bnanab.db (pure Go driver).
//   - MemoryStore: process-local map, used by tests and the "memory" backend.
//
// # Usage
//
//	store, err := storage.Open(storage.Options{Backend: "file", Dir: dataDir})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	raw, ok, err := store.Get(ctx, "banana_chats")
package storage
