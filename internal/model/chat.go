// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, users and settings.
package model

import (
	"time"

	"github.com/jeranaias/bnanab/internal/util"
)

const (
	// DefaultChatTitle is the title of a chat that has not completed a turn yet.
	DefaultChatTitle = "New Chat"

	// TitleMaxRunes is how much of the first user message becomes the title.
	TitleMaxRunes = 50

	// titleEllipsis marks a title clipped from a longer message.
	titleEllipsis = "..."
)

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds a titled conversation. Messages are kept in append order.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []Message `json:"messages"`
}

// NewChat creates an empty chat with the default title.
func NewChat(id string) *Chat {
	return &Chat{
		ID:        id,
		Title:     DefaultChatTitle,
		CreatedAt: time.Now().UTC(),
		Messages:  make([]Message, 0),
	}
}

// HasDefaultTitle reports whether the title was never derived.
func (c *Chat) HasDefaultTitle() bool {
	return c.Title == DefaultChatTitle
}

// MessageCount returns the number of messages.
func (c *Chat) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Chat) IsEmpty() bool {
	return len(c.Messages) == 0
}

// LastMessage returns the most recent message and false when the chat is empty.
func (c *Chat) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// History returns a copy of the messages, safe to hand to another goroutine.
func (c *Chat) History() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

// Clone creates a deep copy of the chat.
func (c *Chat) Clone() *Chat {
	clone := *c
	clone.Messages = c.History()
	return &clone
}

// DeriveTitle turns the first user message into a chat title: the first
// TitleMaxRunes characters, with an ellipsis when the message was longer.
func DeriveTitle(input string) string {
	return util.ClipRunes(input, TitleMaxRunes, titleEllipsis)
}
