// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the signed-in user's state: account, settings and
// chats, and writes it back to a storage.Adapter after every change.
//
// # Key Types
//
//   - ChatList: ordered chats (newest first) plus an optional current id
//   - Store: the account, the settings and a ChatList, persisted under
//     three fixed keys
//
// # Usage
//
//	store := session.NewStore(adapter, logger)
//	store.Load(ctx)
//
//	if !store.IsAuthenticated() {
//		err := store.Login(ctx, session.LoginForm{Email: e, Password: p})
//	}
//
//	chat, err := store.CreateChat(ctx)
//
// Storage failures never leave the process unusable: a failed read is a
// cold start and a failed write is logged and returned, but in-memory state
// is kept.
package session
