// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bnanab/internal/model"
)

func sampleChat() *model.Chat {
	chat := model.NewChat("c1")
	chat.Title = "Sorting in Go"
	chat.Messages = append(chat.Messages,
		model.NewUserMessage("how do I sort?"),
		model.NewAssistantMessage("Use sort:\n```go\nsort.Ints(xs)\n```\nDone."),
	)
	return chat
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

// =============================================================================
// JSON EXPORT TESTS
// =============================================================================

func TestExportToFile_JSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	chat := sampleChat()
	opts := &Options{OutputDir: dir, Now: fixedNow}

	path, err := ExportToFile(chat, NewJSONExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chat-export-1740830400000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"title\""))

	doc, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, chat.Title, doc.Title)
	require.Len(t, doc.Messages, len(chat.Messages))
	for i := range chat.Messages {
		assert.Equal(t, chat.Messages[i].Role, doc.Messages[i].Role)
		assert.Equal(t, chat.Messages[i].Content, doc.Messages[i].Content)
		assert.True(t, chat.Messages[i].Timestamp.Equal(doc.Messages[i].Timestamp))
	}
	assert.True(t, fixedNow().Equal(doc.ExportedAt))
}

func TestExport_JSONFieldNames(t *testing.T) {
	data, err := NewJSONExporter(nil).Export(NewDocument(sampleChat(), fixedNow()))
	require.NoError(t, err)
	for _, field := range []string{`"title"`, `"messages"`, `"exportedAt"`, `"role": "assistant"`} {
		assert.Contains(t, string(data), field)
	}
}

func TestNewDocument_FallbackTitle(t *testing.T) {
	chat := model.NewChat("x")
	chat.Title = ""
	assert.Equal(t, FallbackTitle, NewDocument(chat, fixedNow()).Title)
}

func TestNewDocument_IsSnapshot(t *testing.T) {
	chat := sampleChat()
	doc := NewDocument(chat, fixedNow())
	chat.Messages = append(chat.Messages, model.NewUserMessage("later"))
	assert.Len(t, doc.Messages, 2)
}

func TestExportToFile_NoChat(t *testing.T) {
	_, err := ExportToFile(nil, NewJSONExporter(nil), nil)
	assert.ErrorIs(t, err, ErrNoChat)
}

// =============================================================================
// MARKDOWN EXPORT TESTS
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	opts := &Options{IncludeTimestamps: false}
	data, err := NewMarkdownExporter(opts).Export(NewDocument(sampleChat(), fixedNow()))
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "# Sorting in Go")
	assert.Contains(t, out, "### You\n\nhow do I sort?")
	assert.Contains(t, out, "### BnanaB")
	assert.Contains(t, out, "```go\nsort.Ints(xs)\n```")
	assert.Contains(t, out, "Done.")
}

func TestMarkdownExporter_UnterminatedFenceStaysText(t *testing.T) {
	chat := model.NewChat("x")
	chat.Messages = append(chat.Messages, model.NewAssistantMessage("x ```py\nhello"))
	data, err := NewMarkdownExporter(&Options{}).Export(NewDocument(chat, fixedNow()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "x ```py\nhello")
}

func TestForFormat(t *testing.T) {
	e, err := ForFormat("md", nil)
	require.NoError(t, err)
	assert.Equal(t, ".md", e.FileExtension())
	assert.Equal(t, "text/markdown", e.MimeType())

	e, err = ForFormat("json", nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", e.MimeType())

	_, err = ForFormat("pdf", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "chat-export-1740830400000.md", FileName(fixedNow(), ".md"))
}
