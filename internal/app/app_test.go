// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bnanab/internal/cloud"
	"github.com/jeranaias/bnanab/internal/config"
	"github.com/jeranaias/bnanab/internal/export"
	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/security/auth"
	"github.com/jeranaias/bnanab/internal/session"
	"github.com/jeranaias/bnanab/internal/storage"
)

func TestMain(m *testing.M) {
	auth.Iterations = 1000
	m.Run()
}

// stubCompleter returns a fixed reply and records the history it was given.
type stubCompleter struct {
	reply   string
	err     error
	block   chan struct{}
	history []model.Message
	calls   int
}

func (s *stubCompleter) Complete(ctx context.Context, history []model.Message, settings model.Settings) (model.Message, error) {
	s.calls++
	s.history = history
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return model.Message{}, s.err
	}
	return model.NewAssistantMessage(s.reply), nil
}

func newApp(t *testing.T, client Completer, apiKey string) *App {
	t.Helper()
	ctx := context.Background()

	store := session.NewStore(storage.NewMemoryStore(), nil)
	a := New(Options{
		Store:         store,
		Client:        client,
		APIKey:        apiKey,
		ExportOptions: &export.Options{OutputDir: t.TempDir(), Now: func() time.Time { return time.UnixMilli(1700000000000) }},
	})
	a.Start(ctx)
	require.NoError(t, a.Signup(ctx, session.SignupForm{Name: "Ada", Email: "ada@example.com", Password: "pw"}))
	return a
}

// =============================================================================
// SEND
// =============================================================================

func TestSend_AppendsTwoMessagesAndDerivesTitle(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "Use slices.Sort."}
	a := newApp(t, stub, "sk-test")

	res, err := a.Send(ctx, "How do I sort a slice?")
	require.NoError(t, err)

	require.Len(t, res.Chat.Messages, 2)
	assert.Equal(t, model.RoleUser, res.Chat.Messages[0].Role)
	assert.Equal(t, "How do I sort a slice?", res.Chat.Messages[0].Content)
	assert.Equal(t, "Use slices.Sort.", res.Chat.Messages[1].Content)
	assert.Equal(t, "How do I sort a slice?", res.Chat.Title)
	assert.False(t, res.Fallback)
	assert.False(t, a.Pending())

	// The completion saw the user message at the end of the history.
	require.Len(t, stub.history, 1)
	assert.Equal(t, "How do I sort a slice?", stub.history[0].Content)

	// A chat was created because none was current.
	assert.Equal(t, res.Chat.ID, a.Store().CurrentID())
}

func TestSend_KeepsInputVerbatim(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "ok"}
	a := newApp(t, stub, "sk-test")

	input := "    indented code line  "
	res, err := a.Send(ctx, input)
	require.NoError(t, err)

	require.Len(t, res.Chat.Messages, 2)
	assert.Equal(t, input, res.Chat.Messages[0].Content)
	assert.Equal(t, input, res.User.Content)
	assert.Equal(t, input, res.Chat.Title)
	require.Len(t, stub.history, 1)
	assert.Equal(t, input, stub.history[0].Content)

	_, err = a.Send(ctx, " \t\n ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSend_SecondTurnKeepsTitleAndHistory(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "ok"}
	a := newApp(t, stub, "sk-test")

	_, err := a.Send(ctx, "first question")
	require.NoError(t, err)
	res, err := a.Send(ctx, "second question")
	require.NoError(t, err)

	assert.Equal(t, "first question", res.Chat.Title)
	assert.Len(t, res.Chat.Messages, 4)
	assert.Len(t, stub.history, 3)
}

func TestSend_MissingKeyAppendsNothing(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "unused"}
	a := newApp(t, stub, "")

	_, err := a.Send(ctx, "hello")
	require.ErrorIs(t, err, cloud.ErrMissingAPIKey)
	assert.Equal(t, 0, stub.calls)
	assert.Empty(t, a.Store().Chats())
	assert.False(t, a.Pending())
}

func TestSend_EmptyInput(t *testing.T) {
	a := newApp(t, &stubCompleter{}, "sk-test")
	_, err := a.Send(context.Background(), " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSend_SignedOut(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, &stubCompleter{}, "sk-test")
	require.NoError(t, a.Logout(ctx))

	_, err := a.Send(ctx, "hello")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestSend_TransportFailureAppendsFallback(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := newApp(t, cloud.NewClient(cloud.Options{BaseURL: srv.URL}), "sk-test")

	res, err := a.Send(ctx, "hello")
	require.NoError(t, err)
	require.Len(t, res.Chat.Messages, 2)
	assert.Equal(t, cloud.FallbackText, res.Chat.Messages[1].Content)
	assert.True(t, res.Fallback)
}

func TestSend_RealClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		var body struct {
			Messages []map[string]string `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Messages, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hi there"}]}`))
	}))
	defer srv.Close()

	a := newApp(t, cloud.NewClient(cloud.Options{BaseURL: srv.URL}), "sk-test")
	res, err := a.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", res.Reply.Content)
}

func TestBeginTurn_BusyGuard(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "done", block: make(chan struct{})}
	a := newApp(t, stub, "sk-test")

	turn, err := a.BeginTurn(ctx, "one")
	require.NoError(t, err)
	assert.True(t, a.Pending())

	_, err = a.BeginTurn(ctx, "two")
	assert.ErrorIs(t, err, ErrBusy)

	done := make(chan struct{})
	var reply model.Message
	var runErr error
	go func() {
		reply, runErr = turn.Run(ctx)
		close(done)
	}()
	close(stub.block)
	<-done

	res, err := a.FinishTurn(ctx, turn, reply, runErr)
	require.NoError(t, err)
	assert.Len(t, res.Chat.Messages, 2)
	assert.False(t, a.Pending())

	_, err = a.BeginTurn(ctx, "three")
	assert.NoError(t, err)
}

func TestFinishTurn_ErrorLeavesChatUntouched(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, &stubCompleter{err: errors.New("boom")}, "sk-test")

	_, err := a.Send(ctx, "hello")
	require.Error(t, err)
	chat, ok := a.Store().CurrentChat()
	require.True(t, ok)
	assert.Empty(t, chat.Messages)
	assert.False(t, a.Pending())
}

func TestFinishTurn_ChatDeletedWhilePending(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, &stubCompleter{reply: "late"}, "sk-test")

	turn, err := a.BeginTurn(ctx, "hello")
	require.NoError(t, err)
	require.True(t, a.DeleteChat(ctx, turn.ChatID))

	reply, runErr := turn.Run(ctx)
	_, err = a.FinishTurn(ctx, turn, reply, runErr)
	assert.ErrorIs(t, err, session.ErrChatNotFound)
	assert.False(t, a.Pending())
}

// =============================================================================
// API KEY SEEDING
// =============================================================================

func TestSeedAPIKey(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, &stubCompleter{}, "sk-env")
	assert.Equal(t, "sk-env", a.Store().Settings().APIKey)

	s := a.Store().Settings()
	s.APIKey = "sk-user"
	require.NoError(t, a.UpdateSettings(ctx, s))

	require.NoError(t, a.Logout(ctx))
	require.NoError(t, a.Login(ctx, session.LoginForm{Email: "ada@example.com", Password: "pw"}))
	assert.Equal(t, "sk-user", a.Store().Settings().APIKey)
}

// =============================================================================
// EXPORT AND RECONFIGURE
// =============================================================================

func TestCodeBlock_LastReply(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "try\n```go\nx := 1\n```\nor\n```\ny\n```"}
	a := newApp(t, stub, "sk-test")

	_, _, err := a.CodeBlock(1)
	assert.ErrorIs(t, err, ErrNoCode)

	_, err = a.Send(ctx, "show me")
	require.NoError(t, err)

	block, total, err := a.CodeBlock(2)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "text", block.Language)
	assert.Equal(t, "y", block.Content)

	_, total, err = a.CodeBlock(3)
	assert.ErrorIs(t, err, ErrNoCode)
	assert.Equal(t, 2, total)

	stub.reply = "no code this time"
	_, err = a.Send(ctx, "again")
	require.NoError(t, err)
	_, _, err = a.CodeBlock(1)
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestExport_CurrentChat(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, &stubCompleter{reply: "```go\nfmt.Println(1)\n```"}, "sk-test")

	_, err := a.Send(ctx, "print one")
	require.NoError(t, err)

	path, err := a.Export("", "markdown")
	require.NoError(t, err)
	assert.Equal(t, "chat-export-1700000000000.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "```go")

	path, err = a.Export("", "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json"))
}

func TestExport_NoChat(t *testing.T) {
	a := newApp(t, &stubCompleter{}, "sk-test")
	_, err := a.Export("", "")
	assert.ErrorIs(t, err, export.ErrNoChat)

	_, err = a.Export("missing", "json")
	assert.ErrorIs(t, err, export.ErrNoChat)
}

func TestReconfigure(t *testing.T) {
	client := cloud.NewClient(cloud.Options{})
	a := newApp(t, client, "sk-test")

	cfg := config.Default()
	cfg.API.Model = "claude-test"
	cfg.API.BaseURL = "http://127.0.0.1:9"
	cfg.Export.Format = "markdown"
	a.Reconfigure(cfg)

	assert.Equal(t, "claude-test", client.Model())
	assert.Equal(t, "http://127.0.0.1:9", client.BaseURL())
	assert.Equal(t, "markdown", a.exportFormat)
}
