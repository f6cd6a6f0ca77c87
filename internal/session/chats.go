// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"iter"

	"github.com/google/uuid"

	"github.com/jeranaias/bnanab/internal/model"
)

// ErrChatNotFound is returned when an operation addresses an unknown chat.
var ErrChatNotFound = errors.New("chat not found")

// =============================================================================
// CHAT LIST
// =============================================================================

// ChatList is the ordered set of chats. The most recently created chat is
// first. At most one chat is current, and a current id always names a chat
// in the list.
type ChatList struct {
	chats   []*model.Chat
	current string

	newID func() string
}

// NewChatList creates an empty list.
func NewChatList() *ChatList {
	return &ChatList{newID: newChatID}
}

// newChatID returns a time-ordered UUIDv7.
func newChatID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CreateChat inserts an empty chat at the head and makes it current.
func (l *ChatList) CreateChat() *model.Chat {
	id := l.newID()
	for l.index(id) >= 0 {
		id = l.newID()
	}

	chat := model.NewChat(id)
	l.chats = append([]*model.Chat{chat}, l.chats...)
	l.current = id
	return chat
}

// SelectChat makes id current. Unknown ids are ignored and false is returned.
func (l *ChatList) SelectChat(id string) bool {
	if l.index(id) < 0 {
		return false
	}
	l.current = id
	return true
}

// DeleteChat removes id. If it was current, nothing is current afterwards.
// Deleting an absent id is a no-op returning false.
func (l *ChatList) DeleteChat(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.chats = append(l.chats[:i], l.chats[i+1:]...)
	if l.current == id {
		l.current = ""
	}
	return true
}

// AppendTurn appends the user message and the reply to chat id, deriving
// the title from the user message while the title is still the default.
func (l *ChatList) AppendTurn(id string, user, assistant model.Message) error {
	chat, ok := l.Get(id)
	if !ok {
		return ErrChatNotFound
	}
	chat.Messages = append(chat.Messages, user, assistant)
	if chat.HasDefaultTitle() {
		chat.Title = model.DeriveTitle(user.Content)
	}
	return nil
}

// Current resolves the current id against the list.
func (l *ChatList) Current() (*model.Chat, bool) {
	if l.current == "" {
		return nil, false
	}
	return l.Get(l.current)
}

// CurrentID returns the current chat id or "".
func (l *ChatList) CurrentID() string {
	return l.current
}

// Get finds a chat by id.
func (l *ChatList) Get(id string) (*model.Chat, bool) {
	i := l.index(id)
	if i < 0 {
		return nil, false
	}
	return l.chats[i], true
}

// All iterates chats newest first.
func (l *ChatList) All() iter.Seq[*model.Chat] {
	return func(yield func(*model.Chat) bool) {
		for _, c := range l.chats {
			if !yield(c) {
				return
			}
		}
	}
}

// Len returns the number of chats.
func (l *ChatList) Len() int {
	return len(l.chats)
}

// Snapshot returns deep copies in list order.
func (l *ChatList) Snapshot() []*model.Chat {
	out := make([]*model.Chat, len(l.chats))
	for i, c := range l.chats {
		out[i] = c.Clone()
	}
	return out
}

// Restore replaces the contents with chats and clears the current id.
// Nil entries and repeated ids are dropped so ids stay unique.
func (l *ChatList) Restore(chats []*model.Chat) {
	seen := make(map[string]bool, len(chats))
	l.chats = make([]*model.Chat, 0, len(chats))
	for _, c := range chats {
		if c == nil || c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		if c.Messages == nil {
			c.Messages = make([]model.Message, 0)
		}
		l.chats = append(l.chats, c)
	}
	l.current = ""
}

// Reset empties the list.
func (l *ChatList) Reset() {
	l.chats = nil
	l.current = ""
}

func (l *ChatList) index(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range l.chats {
		if c.ID == id {
			return i
		}
	}
	return -1
}
