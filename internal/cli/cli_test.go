// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bnanab/internal/app"
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
	os.Exit(m.Run())
}

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"set", "api.model", "x", "--json", "--format=md", "--output", "dir", "--all"}, "json", "all")

	assert.Equal(t, "set", p.Subcommand())
	assert.Equal(t, "api.model", p.Positional(1))
	assert.Equal(t, "x", p.Positional(2))
	assert.Equal(t, "", p.Positional(3))
	assert.Equal(t, 3, p.PositionalCount())
	assert.True(t, p.BoolFlag("json"))
	assert.True(t, p.BoolFlag("--all"))
	assert.Equal(t, "md", p.Flag("format"))
	assert.Equal(t, "dir", p.Flag("o", "output"))
	assert.Equal(t, "json", p.FlagOrDefault("missing", "json"))
	assert.True(t, p.HasFlag("--format"))
	assert.False(t, p.HasFlag("missing"))
}

func TestArgParser_DoubleDash(t *testing.T) {
	p := NewArgParser([]string{"a", "--", "--not-a-flag", "b"})
	assert.Equal(t, []string{"--not-a-flag", "b"}, p.PositionalFrom(1))
	assert.False(t, p.HasFlag("not-a-flag"))
}

// =============================================================================
// COMMAND PARSING TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		cmd  Command
		raw  []string
	}{
		{"no args starts tui", nil, CmdTUI, nil},
		{"chat", []string{"chat"}, CmdChat, []string{}},
		{"repl alias", []string{"repl"}, CmdChat, []string{}},
		{"export with args", []string{"export", "--all"}, CmdExport, []string{"--all"}},
		{"config get", []string{"config", "get", "api.model"}, CmdConfig, []string{"get", "api.model"}},
		{"version flag", []string{"--version"}, CmdVersion, []string{}},
		{"help", []string{"help"}, CmdHelp, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, args, err := ParseArgs(tc.argv)
			require.NoError(t, err)
			assert.Equal(t, tc.cmd, cmd)
			if tc.raw != nil {
				assert.Equal(t, tc.raw, args.Raw)
			}
		})
	}
}

func TestParseArgs_GlobalFlagsAnywhere(t *testing.T) {
	cmd, args, err := ParseArgs([]string{"-q", "chat", "--model", "m1", "--storage=sqlite", "--data-dir", "/tmp/d", "--json", "-v"})
	require.NoError(t, err)

	assert.Equal(t, CmdChat, cmd)
	assert.True(t, args.Quiet)
	assert.True(t, args.Verbose)
	assert.True(t, args.JSON)
	assert.Equal(t, "m1", args.Model)
	assert.Equal(t, "sqlite", args.Storage)
	assert.Equal(t, "/tmp/d", args.DataDir)
	assert.Empty(t, args.Raw)

	cfg := config.Default()
	args.ApplyOverrides(cfg)
	assert.Equal(t, "m1", cfg.API.Model)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/d", cfg.Storage.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseArgs_Errors(t *testing.T) {
	_, _, err := ParseArgs([]string{"frobnicate"})
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Contains(t, usage.Message, "frobnicate")

	_, _, err = ParseArgs([]string{"chat", "--model"})
	require.ErrorAs(t, err, &usage)
	assert.Contains(t, usage.Message, "--model")
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "tui", CmdTUI.String())
	assert.Equal(t, "export", CmdExport.String())
	assert.Equal(t, "unknown", Command(99).String())
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{&UsageError{Message: "bad"}, ExitUsageError},
		{fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "log.level", Message: "x"}}), ExitConfigError},
		{storage.ErrUnknownBackend, ExitConfigError},
		{session.ErrInvalidCredentials, ExitAuthError},
		{fmt.Errorf("wrapped: %w", session.ErrNotAuthenticated), ExitAuthError},
		{cloud.ErrMissingAPIKey, ExitAuthError},
		{&NotFoundError{Resource: "chat", ID: "x"}, ExitNotFoundError},
		{export.ErrNoChat, ExitNotFoundError},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, GetExitCode(tc.err), "%v", tc.err)
	}
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, &NotFoundError{Resource: "chat", ID: "abc"}, true)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "chat not found: abc", out["error"])
	assert.Equal(t, float64(ExitNotFoundError), out["exit_code"])
	assert.Equal(t, false, out["success"])
}

func TestHandleVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleVersion(&buf, Args{JSON: true}))

	var info VersionInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	buf.Reset()
	require.NoError(t, HandleVersion(&buf, Args{Quiet: true}))
	assert.Equal(t, "bnanab "+Version+"\n", buf.String())
}

// =============================================================================
// REPL TESTS
// =============================================================================

// scriptedReader replays lines and passwords, then reports end of input.
type scriptedReader struct {
	lines     []string
	passwords []string
	prompts   []string
}

func (r *scriptedReader) ReadLine(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) ReadPassword(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.passwords) == 0 {
		return "", io.EOF
	}
	pw := r.passwords[0]
	r.passwords = r.passwords[1:]
	return pw, nil
}

func (r *scriptedReader) Close() error { return nil }

type echoCompleter struct{}

func (echoCompleter) Complete(ctx context.Context, history []model.Message, settings model.Settings) (model.Message, error) {
	return model.NewAssistantMessage("echo: " + history[len(history)-1].Content), nil
}

func newREPLApp(t *testing.T, apiKey string) *app.App {
	t.Helper()
	a := app.New(app.Options{
		Store:         session.NewStore(storage.NewMemoryStore(), nil),
		Client:        echoCompleter{},
		APIKey:        apiKey,
		ExportOptions: &export.Options{OutputDir: t.TempDir()},
	})
	a.Start(context.Background())
	return a
}

func runREPL(t *testing.T, a *app.App, in *scriptedReader) string {
	t.Helper()
	var out bytes.Buffer
	s := NewChatSession(a, in, &out, SessionOptions{Width: 80})
	require.NoError(t, s.Run(context.Background()))
	return ansi.Strip(out.String())
}

func TestChatSession_SignupThenChat(t *testing.T) {
	a := newREPLApp(t, "sk-test")
	in := &scriptedReader{
		lines:     []string{"Ada", "ada@example.com", "hello there", "/new", "/list", "/quit"},
		passwords: []string{"pw"},
	}

	out := runREPL(t, a, in)

	assert.True(t, a.Store().IsAuthenticated())
	assert.Contains(t, out, "Create your BnanaB account")
	assert.Contains(t, out, "echo: hello there")
	assert.Contains(t, out, "*  1. New Chat (empty)")
	assert.Contains(t, out, "   2. hello there (2 messages) echo: hello there")

	chats := a.Store().Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, "hello there", chats[1].Title)
}

func TestChatSession_LoginWithExistingAccount(t *testing.T) {
	ctx := context.Background()
	a := newREPLApp(t, "sk-test")
	require.NoError(t, a.Signup(ctx, session.SignupForm{Name: "Ada", Email: "ada@example.com", Password: "pw"}))
	require.NoError(t, a.Logout(ctx))

	in := &scriptedReader{
		lines:     []string{"ada@example.com", "ada@example.com"},
		passwords: []string{"wrong", "pw"},
	}
	out := runREPL(t, a, in)

	assert.True(t, a.Store().IsAuthenticated())
	assert.Contains(t, out, "Sign in to BnanaB")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "welcome back, Ada")
}

func TestChatSession_EOFDuringSignupEndsQuietly(t *testing.T) {
	a := newREPLApp(t, "")
	out := runREPL(t, a, &scriptedReader{lines: []string{"Ada"}})
	assert.False(t, a.Store().IsAuthenticated())
	assert.NotContains(t, out, "[ERROR]")
}

func signedInREPL(t *testing.T, apiKey string) *app.App {
	t.Helper()
	a := newREPLApp(t, apiKey)
	require.NoError(t, a.Signup(context.Background(), session.SignupForm{Name: "Ada", Email: "ada@example.com", Password: "pw"}))
	return a
}

func TestChatSession_MissingKeyHint(t *testing.T) {
	a := signedInREPL(t, "")
	out := runREPL(t, a, &scriptedReader{lines: []string{"hi"}})

	assert.Contains(t, out, "No API key set")
	assert.Contains(t, out, "/set api_key")
	assert.Empty(t, a.Store().Chats(), "a refused send leaves no chat behind")
}

func TestChatSession_SetSettings(t *testing.T) {
	a := signedInREPL(t, "")
	in := &scriptedReader{lines: []string{
		"/set api_key sk-ant-abcdwxyz",
		"/set temperature 0.2",
		"/set max_tokens 100",
		"/set theme DARK",
		"/set temperature hot",
		"/settings",
		"hi",
	}}
	out := runREPL(t, a, in)

	settings := a.Store().Settings()
	assert.Equal(t, "sk-ant-abcdwxyz", settings.APIKey)
	assert.Equal(t, 0.2, settings.Temperature)
	assert.Equal(t, 100, settings.MaxTokens)
	assert.Equal(t, model.ThemeDark, settings.Theme)

	assert.Contains(t, out, "temperature must be a number")
	assert.Contains(t, out, "********wxyz")
	assert.NotContains(t, out, "sk-ant-abcdwxyz")
	assert.Contains(t, out, "echo: hi")
}

func TestChatSession_ChatManagement(t *testing.T) {
	ctx := context.Background()
	a := signedInREPL(t, "sk-test")
	s := NewChatSession(a, &scriptedReader{}, io.Discard, SessionOptions{Width: 80})

	_, err := s.HandleLine(ctx, "first")
	require.NoError(t, err)
	_, err = s.HandleLine(ctx, "/new")
	require.NoError(t, err)
	_, err = s.HandleLine(ctx, "second")
	require.NoError(t, err)

	chats := a.Store().Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, "second", chats[0].Title)

	_, err = s.HandleLine(ctx, "/select 2")
	require.NoError(t, err)
	assert.Equal(t, chats[1].ID, a.Store().CurrentID())

	_, err = s.HandleLine(ctx, "/select "+chats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, chats[0].ID, a.Store().CurrentID())

	_, err = s.HandleLine(ctx, "/select 9")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = s.HandleLine(ctx, "/delete 2")
	require.NoError(t, err)
	remaining := a.Store().Chats()
	require.Len(t, remaining, 1)
	assert.Equal(t, "second", remaining[0].Title)

	_, err = s.HandleLine(ctx, "/delete")
	require.NoError(t, err)
	assert.Empty(t, a.Store().Chats())

	_, err = s.HandleLine(ctx, "/delete")
	assert.ErrorAs(t, err, &notFound)
}

func TestChatSession_ExportAndCopy(t *testing.T) {
	ctx := context.Background()
	a := signedInREPL(t, "sk-test")
	var out bytes.Buffer
	s := NewChatSession(a, &scriptedReader{}, &out, SessionOptions{Width: 80})

	_, err := s.HandleLine(ctx, "/copy")
	assert.Error(t, err, "no chat yet")

	_, err = s.HandleLine(ctx, "```go\nfmt.Println(1)\n```")
	require.NoError(t, err)

	var copied []string
	s.copy = func(text string) error {
		copied = append(copied, text)
		return nil
	}
	out.Reset()
	_, err = s.HandleLine(ctx, "/copy 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fmt.Println(1)"}, copied)
	assert.Contains(t, ansi.Strip(out.String()), "Copied code block 1 of 1.")

	_, err = s.HandleLine(ctx, "/copy 2")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	out.Reset()
	_, err = s.HandleLine(ctx, "/export md")
	require.NoError(t, err)
	line := strings.TrimSpace(ansi.Strip(out.String()))
	path := strings.TrimPrefix(line, "[OK] Exported to ")
	assert.Equal(t, ".md", filepath.Ext(path))
	assert.FileExists(t, path)

	_, err = s.HandleLine(ctx, "/export yaml")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestChatSession_CopyFallsBackToPrinting(t *testing.T) {
	ctx := context.Background()
	a := signedInREPL(t, "sk-test")
	var out bytes.Buffer
	s := NewChatSession(a, &scriptedReader{}, &out, SessionOptions{Width: 80, Quiet: true})
	s.copy = func(string) error { return errors.New("no clipboard utility") }

	_, err := s.HandleLine(ctx, "```sh\necho a\n```\n```py\nprint(2)\n```")
	require.NoError(t, err)

	out.Reset()
	_, err = s.HandleLine(ctx, "/copy 2")
	require.NoError(t, err)
	assert.Equal(t, "print(2)\n", out.String())

	_, err = s.HandleLine(ctx, "/copy x")
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestChatSession_CommandsAndQuit(t *testing.T) {
	ctx := context.Background()
	a := signedInREPL(t, "sk-test")
	var out bytes.Buffer
	s := NewChatSession(a, &scriptedReader{}, &out, SessionOptions{Width: 80})

	cont, err := s.HandleLine(ctx, "   ")
	assert.True(t, cont)
	assert.NoError(t, err)

	cont, err = s.HandleLine(ctx, "/help")
	assert.True(t, cont)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "/export [FORMAT]")

	cont, err = s.HandleLine(ctx, "/bogus")
	assert.True(t, cont)
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)

	out.Reset()
	_, err = s.HandleLine(ctx, "/mfa")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "otpauth://")
	u, _ := a.Store().User()
	assert.True(t, u.HasTOTP())

	for _, q := range []string{"/quit", "/exit", "/q"} {
		cont, err = s.HandleLine(ctx, q)
		assert.False(t, cont, q)
		assert.NoError(t, err)
	}
}

func TestChatSession_LogoutReauthenticates(t *testing.T) {
	a := signedInREPL(t, "sk-test")
	in := &scriptedReader{
		lines:     []string{"/logout", "ada@example.com", "/quit"},
		passwords: []string{"pw"},
	}
	out := runREPL(t, a, in)

	assert.Contains(t, out, "Signed out.")
	assert.True(t, a.Store().IsAuthenticated())
}

// =============================================================================
// CONFIG COMMAND TESTS
// =============================================================================

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("BNANAB_HOME", home)
	for _, name := range []string{
		"BNANAB_API_KEY", "BNANAB_MODEL", "BNANAB_API_URL", "BNANAB_STORAGE",
		"BNANAB_DATA_DIR", "BNANAB_LOG_LEVEL", "BNANAB_LOG_FILE", "BNANAB_EXPORT_DIR",
	} {
		t.Setenv(name, "")
	}
	t.Chdir(home)
	return home
}

func TestHandleConfig(t *testing.T) {
	home := isolateHome(t)
	var buf bytes.Buffer

	require.NoError(t, HandleConfig(&buf, Args{Raw: []string{"path"}}))
	assert.Equal(t, filepath.Join(home, "config.toml")+"\n", buf.String())

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Raw: []string{"init"}}))
	assert.FileExists(t, filepath.Join(home, "config.toml"))
	assert.Error(t, HandleConfig(&buf, Args{Raw: []string{"init"}}), "init refuses to overwrite")
	require.NoError(t, HandleConfig(&buf, Args{Raw: []string{"init", "--force"}}))

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Quiet: true, Raw: []string{"set", "api.model", "claude-3-5-haiku-20241022"}}))
	require.NoError(t, HandleConfig(&buf, Args{Raw: []string{"get", "api.model"}}))
	assert.Equal(t, "claude-3-5-haiku-20241022\n", buf.String())

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Raw: []string{"set", "api.api_key", "sk-secret"}}))
	assert.NotContains(t, buf.String(), "sk-secret")

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Raw: []string{"show"}}))
	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "claude-3-5-haiku-20241022")
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "sk-secret")

	err := HandleConfig(&buf, Args{Raw: []string{"set", "log.level", "loud"}})
	assert.Error(t, err)
	err = HandleConfig(&buf, Args{Raw: []string{"get", "nope"}})
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)
	err = HandleConfig(&buf, Args{Raw: []string{"explode"}})
	assert.ErrorAs(t, err, &usage)
}

// =============================================================================
// EXPORT COMMAND TESTS
// =============================================================================

func TestHandleExport(t *testing.T) {
	home := isolateHome(t)
	ctx := context.Background()

	cfg, err := LoadConfig(Args{Quiet: true})
	require.NoError(t, err)

	// Seed a signed-in session with two chats.
	rt, err := NewRuntime(ctx, cfg, RuntimeOptions{})
	require.NoError(t, err)
	require.NoError(t, rt.App.Signup(ctx, session.SignupForm{Name: "Ada", Email: "ada@example.com", Password: "pw"}))
	for _, q := range []string{"first", "second"} {
		chat, err := rt.App.CreateChat(ctx)
		require.NoError(t, err)
		require.NoError(t, rt.App.Store().AppendTurn(ctx, chat.ID, model.NewUserMessage(q), model.NewAssistantMessage("re: "+q)))
	}
	require.NoError(t, rt.Close())

	outDir := filepath.Join(home, "exports")
	var buf bytes.Buffer
	require.NoError(t, HandleExport(ctx, &buf, cfg.Clone(), Args{JSON: true, Raw: []string{"--all", "--format", "md", "--output", outDir}}))

	var results []ExportResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].Path, results[1].Path)
	for _, r := range results {
		assert.Equal(t, ".md", filepath.Ext(r.Path))
		data, err := os.ReadFile(r.Path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# "+r.Title)
	}

	buf.Reset()
	require.NoError(t, HandleExport(ctx, &buf, cfg.Clone(), Args{JSON: true, Raw: []string{"--list"}}))
	var listed []ChatSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "second", listed[0].Title)
	assert.Equal(t, 2, listed[0].Messages)

	err = HandleExport(ctx, &buf, cfg.Clone(), Args{Raw: []string{"missing-id"}})
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	err = HandleExport(ctx, &buf, cfg.Clone(), Args{Raw: []string{"--format", "yaml"}})
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestHandleExport_RequiresSignIn(t *testing.T) {
	isolateHome(t)
	cfg, err := LoadConfig(Args{Quiet: true})
	require.NoError(t, err)

	err = HandleExport(context.Background(), io.Discard, cfg, Args{})
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}
