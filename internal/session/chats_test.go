// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bnanab/internal/model"
)

func ids(l *ChatList) []string {
	var out []string
	for c := range l.All() {
		out = append(out, c.ID)
	}
	return out
}

func TestChatList_CreateTwoChats(t *testing.T) {
	l := NewChatList()
	first := l.CreateChat()
	second := l.CreateChat()

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, second.ID, l.CurrentID())
	assert.Equal(t, []string{second.ID, first.ID}, ids(l))
	assert.Equal(t, model.DefaultChatTitle, second.Title)
	assert.Empty(t, second.Messages)
}

func TestChatList_CreateRegeneratesCollidingID(t *testing.T) {
	l := NewChatList()
	seq := []string{"same", "same", "same", "other"}
	n := 0
	l.newID = func() string {
		id := seq[n]
		n++
		return id
	}

	a := l.CreateChat()
	b := l.CreateChat()
	assert.Equal(t, "same", a.ID)
	assert.Equal(t, "other", b.ID)
}

func TestChatList_SelectUnknownIsNoop(t *testing.T) {
	l := NewChatList()
	c := l.CreateChat()
	l.CreateChat()

	require.True(t, l.SelectChat(c.ID))
	assert.False(t, l.SelectChat("missing"))
	assert.Equal(t, c.ID, l.CurrentID())
}

func TestChatList_DeleteAbsentLeavesStateUnchanged(t *testing.T) {
	l := NewChatList()
	a := l.CreateChat()
	b := l.CreateChat()
	before := ids(l)

	assert.False(t, l.DeleteChat("missing"))
	assert.False(t, l.DeleteChat("missing"))
	assert.Equal(t, before, ids(l))
	assert.Equal(t, b.ID, l.CurrentID())

	// Deleting a non-current chat keeps the pointer.
	assert.True(t, l.DeleteChat(a.ID))
	assert.Equal(t, b.ID, l.CurrentID())
	assert.False(t, l.DeleteChat(a.ID))
}

func TestChatList_DeleteCurrentClearsPointer(t *testing.T) {
	l := NewChatList()
	c := l.CreateChat()

	require.True(t, l.DeleteChat(c.ID))
	assert.Equal(t, "", l.CurrentID())
	_, ok := l.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())
}

func TestChatList_AppendTurnDerivesTitleOnce(t *testing.T) {
	l := NewChatList()
	c := l.CreateChat()

	long := strings.Repeat("q", 60)
	require.NoError(t, l.AppendTurn(c.ID, model.NewUserMessage(long), model.NewAssistantMessage("a1")))
	require.NoError(t, l.AppendTurn(c.ID, model.NewUserMessage("second"), model.NewAssistantMessage("a2")))

	got, ok := l.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("q", 50)+"...", got.Title)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, model.RoleUser, got.Messages[0].Role)
	assert.Equal(t, "a2", got.Messages[3].Content)
}

func TestChatList_AppendTurnUnknownChat(t *testing.T) {
	l := NewChatList()
	err := l.AppendTurn("nope", model.NewUserMessage("u"), model.NewAssistantMessage("a"))
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestChatList_SnapshotIsIndependent(t *testing.T) {
	l := NewChatList()
	c := l.CreateChat()

	snap := l.Snapshot()
	snap[0].Title = "changed"
	snap[0].Messages = append(snap[0].Messages, model.NewUserMessage("x"))

	got, _ := l.Get(c.ID)
	assert.Equal(t, model.DefaultChatTitle, got.Title)
	assert.Empty(t, got.Messages)
}

func TestChatList_RestoreDropsDuplicates(t *testing.T) {
	l := NewChatList()
	l.CreateChat()

	l.Restore([]*model.Chat{
		{ID: "a", Title: "A"},
		nil,
		{ID: "b", Title: "B"},
		{ID: "a", Title: "dup"},
		{ID: "", Title: "blank"},
	})

	assert.Equal(t, []string{"a", "b"}, ids(l))
	assert.Equal(t, "", l.CurrentID())
	a, _ := l.Get("a")
	assert.Equal(t, "A", a.Title)
	assert.NotNil(t, a.Messages)
}

func TestChatList_AllStopsEarly(t *testing.T) {
	l := NewChatList()
	for i := 0; i < 5; i++ {
		l.CreateChat()
	}
	n := 0
	for range l.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n, fmt.Sprint(ids(l)))
}
