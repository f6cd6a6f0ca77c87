// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL for bnanab.
//
// Command: chat
// Short:   Line-oriented chat with slash commands
//
// Examples:
//   bnanab chat                       Start chatting
//   bnanab chat --model NAME          Use a specific model
//
// Interactive Commands (during chat):
//   /new                Start a new chat
//   /list               List chats
//   /select N|ID        Switch to a chat
//   /delete [N|ID]      Delete a chat (current by default)
//   /export [FORMAT]    Export the current chat
//   /settings           Show settings
//   /set KEY VALUE      Change a setting
//   /mfa                Set up an authenticator app
//   /copy [N]           Copy the Nth code block of the last reply
//   /logout             Sign out
//   /help, /quit
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/bnanab/internal/app"
	"github.com/jeranaias/bnanab/internal/cloud"
	"github.com/jeranaias/bnanab/internal/config"
	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/security/auth"
	"github.com/jeranaias/bnanab/internal/session"
	"github.com/jeranaias/bnanab/internal/ui/components"
	"github.com/jeranaias/bnanab/internal/ui/styles"
)

// ErrAborted is returned by a LineReader when the user presses Ctrl+C.
var ErrAborted = errors.New("input aborted")

// LineReader reads user input for the REPL.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Close() error
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and history backed by liner.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history in the bnanab directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads a line and records it in history.
func (c *ChatCLI) ReadLine(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrAborted
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// ReadPassword reads a line without echo. Without a terminal the line is
// read normally.
func (c *ChatCLI) ReadPassword(prompt string) (string, error) {
	if !IsTTY() {
		pw, err := c.line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrAborted
		}
		return pw, err
	}
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// SaveHistory persists command history with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	c.SaveHistory()
	return c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionOptions configures a ChatSession.
type SessionOptions struct {
	Width     int
	CodeStyle string
	Quiet     bool
}

// ChatSession is one REPL run.
type ChatSession struct {
	app  *app.App
	in   LineReader
	out  io.Writer
	opts SessionOptions

	theme *styles.Theme
	text  *components.TextRenderer
	copy  func(string) error
}

// NewChatSession creates a REPL over a.
func NewChatSession(a *app.App, in LineReader, out io.Writer, opts SessionOptions) *ChatSession {
	if opts.Width <= 0 {
		opts.Width = DefaultTerminalWidth
	}
	s := &ChatSession{app: a, in: in, out: out, opts: opts, copy: clipboard.WriteAll}
	s.applyTheme(a.Store().Settings().Theme)
	return s
}

func (s *ChatSession) applyTheme(name model.Theme) {
	s.theme = styles.NewTheme(name)
	s.theme.CodeStyle = s.opts.CodeStyle
	s.text = components.NewTextRenderer(name)
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the REPL on the terminal.
func HandleChatCommand(ctx context.Context, rt *Runtime, args Args) error {
	width := GetTerminalWidth()
	if ww := rt.Config.UI.WordWrap; ww > 0 && ww < width {
		width = ww
	}

	in := NewChatCLI()
	defer in.Close()

	s := NewChatSession(rt.App, in, os.Stdout, SessionOptions{
		Width:     width,
		CodeStyle: rt.Config.UI.CodeStyle,
		Quiet:     args.Quiet,
	})
	return s.Run(ctx)
}

// Run signs in if needed, then reads lines until /quit or end of input.
func (s *ChatSession) Run(ctx context.Context) error {
	if !s.app.Store().IsAuthenticated() {
		if err := s.authenticate(ctx); err != nil {
			return ignoreEOF(err)
		}
	}
	s.printWelcome()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := s.in.ReadLine(PromptStyle.Render("you") + " > ")
		if errors.Is(err, ErrAborted) {
			continue
		}
		if err != nil {
			return ignoreEOF(err)
		}

		cont, err := s.HandleLine(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
		}
		if !cont {
			return nil
		}
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
		return nil
	}
	return err
}

// HandleLine processes one line. It returns false when the REPL should end.
// Messages are sent as typed; only commands are trimmed.
func (s *ChatSession) HandleLine(ctx context.Context, line string) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true, nil
	}
	if strings.HasPrefix(trimmed, "/") {
		return s.handleSlashCommand(ctx, trimmed)
	}
	return true, s.send(ctx, line)
}

func (s *ChatSession) send(ctx context.Context, text string) error {
	if !s.opts.Quiet {
		fmt.Fprintln(s.out, DimStyle.Render("BnanaB is thinking..."))
	}
	res, err := s.app.Send(ctx, text)
	if errors.Is(err, cloud.ErrMissingAPIKey) {
		return fmt.Errorf("%w (use /set api_key <key>)", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, components.RenderMessage(res.Reply, s.opts.Width, s.theme, s.text))
	fmt.Fprintln(s.out)
	return nil
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func (s *ChatSession) authenticate(ctx context.Context) error {
	for {
		var err error
		if s.app.Store().HasAccount(ctx) {
			err = s.login(ctx)
		} else {
			err = s.signup(ctx)
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
			return err
		}
		fmt.Fprintf(s.out, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	}
}

func (s *ChatSession) signup(ctx context.Context) error {
	fmt.Fprintln(s.out, TitleStyle.Render("Create your BnanaB account"))
	name, err := s.in.ReadLine("Name: ")
	if err != nil {
		return err
	}
	email, err := s.in.ReadLine("Email: ")
	if err != nil {
		return err
	}
	password, err := s.in.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	return s.app.Signup(ctx, session.SignupForm{Name: name, Email: email, Password: password})
}

func (s *ChatSession) login(ctx context.Context) error {
	fmt.Fprintln(s.out, TitleStyle.Render("Sign in to BnanaB"))
	fmt.Fprintln(s.out, DimStyle.Render("Type 'signup' as the email to create a new account."))
	email, err := s.in.ReadLine("Email: ")
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(email), "signup") {
		return s.signup(ctx)
	}
	password, err := s.in.ReadPassword("Password: ")
	if err != nil {
		return err
	}

	form := session.LoginForm{Email: email, Password: password}
	err = s.app.Login(ctx, form)
	if !errors.Is(err, auth.ErrTOTPRequired) {
		return err
	}
	form.Code, err = s.in.ReadLine("Authenticator code: ")
	if err != nil {
		return err
	}
	return s.app.Login(ctx, form)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand returns (shouldContinue, error).
func (s *ChatSession) handleSlashCommand(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		s.printHelp()

	case "/quit", "/q", "/exit":
		return false, nil

	case "/new", "/n":
		chat, err := s.app.CreateChat(ctx)
		if err != nil {
			return true, err
		}
		fmt.Fprintf(s.out, "%s %s\n", SuccessStyle.Render("[OK]"), "Started "+chat.Title+".")

	case "/list", "/ls":
		s.printChats()

	case "/select", "/s":
		if len(args) == 0 {
			return true, &UsageError{Message: "usage: /select N|ID"}
		}
		id, ok := s.resolveChat(args[0])
		if !ok || !s.app.SelectChat(ctx, id) {
			return true, &NotFoundError{Resource: "chat", ID: args[0]}
		}
		s.printTranscript()

	case "/delete", "/d":
		id := s.app.Store().CurrentID()
		if len(args) > 0 {
			var ok bool
			if id, ok = s.resolveChat(args[0]); !ok {
				return true, &NotFoundError{Resource: "chat", ID: args[0]}
			}
		}
		if id == "" || !s.app.DeleteChat(ctx, id) {
			return true, &NotFoundError{Resource: "chat", ID: "current"}
		}
		fmt.Fprintf(s.out, "%s Chat deleted.\n", SuccessStyle.Render("[OK]"))

	case "/export", "/e":
		format := ""
		if len(args) > 0 {
			format = args[0]
		}
		path, err := s.app.Export("", format)
		if err != nil {
			return true, err
		}
		fmt.Fprintf(s.out, "%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)

	case "/settings":
		s.printSettings()

	case "/set":
		if len(args) < 2 {
			return true, &UsageError{Message: "usage: /set temperature|max_tokens|theme|api_key VALUE"}
		}
		return true, s.setSetting(ctx, args[0], strings.Join(args[1:], " "))

	case "/mfa":
		enr, err := s.app.EnrollTOTP(ctx)
		if err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, "Add this account to your authenticator app:")
		fmt.Fprintln(s.out, "  "+enr.URL)
		fmt.Fprintln(s.out, DimStyle.Render("Secret: "+enr.Secret))

	case "/copy", "/c":
		return true, s.copyCode(args)

	case "/logout":
		if err := s.app.Logout(ctx); err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, "Signed out.")
		if err := s.authenticate(ctx); err != nil {
			return false, ignoreEOF(err)
		}
		s.printWelcome()

	default:
		return true, &UsageError{Message: fmt.Sprintf("unknown command: %s (type /help for commands)", command)}
	}
	return true, nil
}

// resolveChat accepts a 1-based position from /list or a chat id.
func (s *ChatSession) resolveChat(ref string) (string, bool) {
	chats := s.app.Store().Chats()
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(chats) {
			return chats[n-1].ID, true
		}
		return "", false
	}
	for _, c := range chats {
		if c.ID == ref {
			return c.ID, true
		}
	}
	return "", false
}

func (s *ChatSession) setSetting(ctx context.Context, name, value string) error {
	settings := s.app.Store().Settings()
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "temperature", "temp":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: temperature must be a number", model.ErrInvalidSettings)
		}
		settings.Temperature = f
	case "max_tokens", "maxtokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: max tokens must be a whole number", model.ErrInvalidSettings)
		}
		settings.MaxTokens = n
	case "theme":
		settings.Theme = model.Theme(strings.ToLower(value))
	case "api_key", "apikey", "key":
		settings.APIKey = strings.TrimSpace(value)
	default:
		return &UsageError{Message: "unknown setting: " + name}
	}

	if err := s.app.UpdateSettings(ctx, settings); err != nil {
		return err
	}
	s.applyTheme(settings.Theme)
	fmt.Fprintf(s.out, "%s Settings saved.\n", SuccessStyle.Render("[OK]"))
	return nil
}

// copyCode puts the Nth code block of the last reply on the clipboard.
// Without a clipboard the block is printed raw instead.
func (s *ChatSession) copyCode(args []string) error {
	n := 1
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil {
			return &UsageError{Message: "usage: /copy [N]"}
		}
	}

	block, total, err := s.app.CodeBlock(n)
	switch {
	case errors.Is(err, app.ErrNoCode):
		return &NotFoundError{Resource: "code block", ID: fmt.Sprintf("%d (last reply has %d)", n, total)}
	case err != nil:
		return err
	}

	if err := s.copy(block.Content); err != nil {
		if !s.opts.Quiet {
			fmt.Fprintln(s.out, DimStyle.Render("Clipboard unavailable; code block follows."))
		}
		fmt.Fprintln(s.out, block.Content)
		return nil
	}
	fmt.Fprintf(s.out, "%s Copied code block %d of %d.\n", SuccessStyle.Render("[OK]"), n, total)
	return nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

func (s *ChatSession) printWelcome() {
	if s.opts.Quiet {
		return
	}
	name := ""
	if u, ok := s.app.Store().User(); ok {
		name = u.Name
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, TitleStyle.Render("BnanaB")+" "+DimStyle.Render("welcome back, "+name))
	fmt.Fprintln(s.out, RenderSeparator(30))
	if !s.app.Store().Settings().HasAPIKey() {
		fmt.Fprintln(s.out, WarningStyle.Render("No API key set. Use /set api_key <key>."))
	}
	fmt.Fprintln(s.out, DimStyle.Render("Type a message and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/new", "Start a new chat"},
		{"/list", "List chats"},
		{"/select N|ID", "Switch to a chat"},
		{"/delete [N|ID]", "Delete a chat (current by default)"},
		{"/export [FORMAT]", "Export the current chat (json, markdown)"},
		{"/settings", "Show settings"},
		{"/set KEY VALUE", "Set temperature, max_tokens, theme or api_key"},
		{"/mfa", "Set up an authenticator app"},
		{"/copy [N]", "Copy a code block from the last reply"},
		{"/logout", "Sign out"},
		{"/help", "Show this help"},
		{"/quit", "Exit chat"},
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, TitleStyle.Render("Available Commands"))
	for _, c := range commands {
		fmt.Fprintf(s.out, "  %s  %s\n", CommandStyle.Render(fmt.Sprintf("%-18s", c.cmd)), c.desc)
	}
	fmt.Fprintln(s.out)
}

// previewRunes bounds the last-message preview in /list.
const previewRunes = 40

func (s *ChatSession) printChats() {
	chats := s.app.Store().Chats()
	if len(chats) == 0 {
		fmt.Fprintln(s.out, DimStyle.Render("No chats yet."))
		return
	}
	current := s.app.Store().CurrentID()
	for i, c := range chats {
		marker := " "
		if c.ID == current {
			marker = "*"
		}
		detail := "(empty)"
		if !c.IsEmpty() {
			detail = fmt.Sprintf("(%d messages)", c.MessageCount())
			if last, ok := c.LastMessage(); ok {
				detail += " " + last.Preview(previewRunes)
			}
		}
		fmt.Fprintf(s.out, "%s %2d. %s %s\n", marker, i+1, c.Title, DimStyle.Render(detail))
	}
}

func (s *ChatSession) printTranscript() {
	chat, ok := s.app.Store().CurrentChat()
	if !ok {
		return
	}
	fmt.Fprintln(s.out, TitleStyle.Render(chat.Title))
	for _, msg := range chat.Messages {
		fmt.Fprintln(s.out, components.RenderMessage(msg, s.opts.Width, s.theme, s.text))
	}
}

func (s *ChatSession) printSettings() {
	settings := s.app.Store().Settings()
	fmt.Fprintf(s.out, "%s%s\n", RenderLabel("Temperature"), ValueStyle.Render(strconv.FormatFloat(settings.Temperature, 'f', -1, 64)))
	fmt.Fprintf(s.out, "%s%s\n", RenderLabel("Max tokens"), ValueStyle.Render(strconv.Itoa(settings.MaxTokens)))
	fmt.Fprintf(s.out, "%s%s\n", RenderLabel("Theme"), ValueStyle.Render(string(settings.Theme)))
	fmt.Fprintf(s.out, "%s%s\n", RenderLabel("API key"), ValueStyle.Render(settings.MaskedAPIKey()))
	if u, ok := s.app.Store().User(); ok {
		mfa := "off"
		if u.HasTOTP() {
			mfa = "on"
		}
		fmt.Fprintf(s.out, "%s%s\n", RenderLabel("Authenticator"), ValueStyle.Render(mfa))
	}
}
