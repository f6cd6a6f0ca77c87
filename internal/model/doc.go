// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, users and
// settings.
//
// This package defines the core domain types used throughout bnanab. The
// JSON field names match the snapshots written to the key-value store, so a
// change here is a change to the on-disk format.
//
// # Key Types
//
//   - Chat: titled, ordered sequence of messages
//   - Message: single turn with role, content and timestamp
//   - User: local account owning the session
//   - Settings: completion parameters, theme and API key
//   - Role: message author (user, assistant)
//
// # Usage
//
//	chat := model.NewChat(id)
//	chat.Messages = append(chat.Messages, model.NewUserMessage("Hello!"))
//	if chat.HasDefaultTitle() {
//	    chat.Title = model.DeriveTitle("Hello!")
//	}
package model
