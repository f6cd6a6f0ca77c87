// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jeranaias/bnanab/internal/cloud"
	"github.com/jeranaias/bnanab/internal/config"
	"github.com/jeranaias/bnanab/internal/export"
	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/render"
	"github.com/jeranaias/bnanab/internal/security/auth"
	"github.com/jeranaias/bnanab/internal/session"
)

var (
	// ErrBusy is returned while a previous send is still pending.
	ErrBusy = errors.New("a reply is still pending")

	// ErrEmptyInput is returned for blank messages.
	ErrEmptyInput = errors.New("message is empty")

	// ErrNoCode is returned by CodeBlock when the last reply has no such block.
	ErrNoCode = errors.New("no code block in the last reply")
)

// Completer produces one assistant reply for a history.
type Completer interface {
	Complete(ctx context.Context, history []model.Message, settings model.Settings) (model.Message, error)
}

// Options configures an App.
type Options struct {
	Store  *session.Store
	Client Completer
	Logger *zap.Logger

	// APIKey seeds the stored setting when that is empty.
	APIKey string

	ExportFormat  string
	ExportOptions *export.Options
}

// App is the single owner of session state for one front end.
type App struct {
	store  *session.Store
	client Completer
	logger *zap.Logger
	apiKey string

	exportFormat string
	exportOpts   *export.Options

	pending atomic.Bool
}

// New creates an App. Call Start before use.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	exportOpts := opts.ExportOptions
	if exportOpts == nil {
		exportOpts = export.DefaultOptions()
	}
	return &App{
		store:        opts.Store,
		client:       opts.Client,
		logger:       logger.Named("app"),
		apiKey:       strings.TrimSpace(opts.APIKey),
		exportFormat: opts.ExportFormat,
		exportOpts:   exportOpts,
	}
}

// Start loads the persisted session.
func (a *App) Start(ctx context.Context) {
	a.store.Load(ctx)
	a.seedAPIKey(ctx)
}

// Store exposes the session store for read access.
func (a *App) Store() *session.Store {
	return a.store
}

// Pending reports whether a send is in flight.
func (a *App) Pending() bool {
	return a.pending.Load()
}

// Reconfigure applies a reloaded configuration to the client.
func (a *App) Reconfigure(cfg *config.Config) {
	if c, ok := a.client.(interface {
		SetModel(string)
		SetBaseURL(string)
	}); ok {
		c.SetModel(cfg.API.Model)
		c.SetBaseURL(cfg.API.BaseURL)
	}
	if cfg.Export.Format != "" {
		a.exportFormat = cfg.Export.Format
	}
	if cfg.Export.Dir != "" {
		a.exportOpts.OutputDir = cfg.Export.Dir
	}
	a.logger.Info("configuration reloaded", zap.String("model", cfg.API.Model))
}

func (a *App) seedAPIKey(ctx context.Context) {
	if a.apiKey == "" || !a.store.IsAuthenticated() {
		return
	}
	settings := a.store.Settings()
	if settings.HasAPIKey() {
		return
	}
	settings.APIKey = a.apiKey
	if err := a.store.UpdateSettings(ctx, settings); err != nil {
		a.logger.Warn("could not seed api key", zap.Error(err))
	}
}

// =============================================================================
// SEND
// =============================================================================

// Turn is one open send: the user message and the history it completes.
type Turn struct {
	ChatID string
	User   model.Message

	history  []model.Message
	settings model.Settings
	client   Completer
}

// TurnResult describes a finished send.
type TurnResult struct {
	Chat     *model.Chat
	User     model.Message
	Reply    model.Message
	Fallback bool
}

// BeginTurn validates input and opens a turn. A chat is created when none
// is current. Missing credentials fail here, before anything changes.
// The message is sent exactly as typed; blank input is refused.
func (a *App) BeginTurn(ctx context.Context, input string) (*Turn, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if !a.store.IsAuthenticated() {
		return nil, session.ErrNotAuthenticated
	}
	settings := a.store.Settings()
	if !settings.HasAPIKey() {
		return nil, cloud.ErrMissingAPIKey
	}
	if !a.pending.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	chat, ok := a.store.CurrentChat()
	if !ok {
		created, err := a.store.CreateChat(ctx)
		if err != nil {
			a.pending.Store(false)
			return nil, err
		}
		chat = created
	}

	user := model.NewUserMessage(input)
	return &Turn{
		ChatID:   chat.ID,
		User:     user,
		history:  append(chat.History(), user),
		settings: settings,
		client:   a.client,
	}, nil
}

// Run performs the completion. It is safe to call off the event loop.
func (t *Turn) Run(ctx context.Context) (model.Message, error) {
	return t.client.Complete(ctx, t.history, t.settings)
}

// FinishTurn closes the turn. On success both messages are appended and
// the session is saved. A completion error leaves the chat untouched.
func (a *App) FinishTurn(ctx context.Context, t *Turn, reply model.Message, runErr error) (*TurnResult, error) {
	defer a.pending.Store(false)

	if runErr != nil {
		return nil, runErr
	}
	if err := a.store.AppendTurn(ctx, t.ChatID, t.User, reply); err != nil {
		a.logger.Info("dropping reply", zap.String("chat_id", t.ChatID), zap.Error(err))
		return nil, err
	}

	chat, _ := a.store.Chat(t.ChatID)
	return &TurnResult{
		Chat:     chat,
		User:     t.User,
		Reply:    reply,
		Fallback: reply.Content == cloud.FallbackText,
	}, nil
}

// Send runs a whole turn synchronously.
func (a *App) Send(ctx context.Context, input string) (*TurnResult, error) {
	turn, err := a.BeginTurn(ctx, input)
	if err != nil {
		return nil, err
	}
	reply, err := turn.Run(ctx)
	return a.FinishTurn(ctx, turn, reply, err)
}

// =============================================================================
// PASS-THROUGH OPERATIONS
// =============================================================================

// Signup creates the account and signs it in.
func (a *App) Signup(ctx context.Context, form session.SignupForm) error {
	if err := a.store.Signup(ctx, form); err != nil {
		return err
	}
	a.seedAPIKey(ctx)
	return nil
}

// Login signs in the stored account.
func (a *App) Login(ctx context.Context, form session.LoginForm) error {
	if err := a.store.Login(ctx, form); err != nil {
		return err
	}
	a.seedAPIKey(ctx)
	return nil
}

// Logout signs out.
func (a *App) Logout(ctx context.Context) error {
	return a.store.Logout(ctx)
}

// EnrollTOTP adds an authenticator to the account.
func (a *App) EnrollTOTP(ctx context.Context) (auth.Enrollment, error) {
	return a.store.EnrollTOTP(ctx)
}

// UpdateSettings validates and stores settings.
func (a *App) UpdateSettings(ctx context.Context, settings model.Settings) error {
	return a.store.UpdateSettings(ctx, settings)
}

// CreateChat starts a new chat and makes it current.
func (a *App) CreateChat(ctx context.Context) (*model.Chat, error) {
	return a.store.CreateChat(ctx)
}

// SelectChat makes id current. Unknown ids are ignored.
func (a *App) SelectChat(ctx context.Context, id string) bool {
	return a.store.SelectChat(ctx, id)
}

// DeleteChat removes id. Absent ids are ignored.
func (a *App) DeleteChat(ctx context.Context, id string) bool {
	return a.store.DeleteChat(ctx, id)
}

// Export writes chat id (the current chat when id is empty) in format
// (the configured format when empty) and returns the file path.
func (a *App) Export(id, format string) (string, error) {
	var (
		chat *model.Chat
		ok   bool
	)
	if id == "" {
		chat, ok = a.store.CurrentChat()
	} else {
		chat, ok = a.store.Chat(id)
	}
	if !ok {
		return "", export.ErrNoChat
	}

	if format == "" {
		format = a.exportFormat
	}
	exporter, err := export.ForFormat(format, a.exportOpts)
	if err != nil {
		return "", err
	}

	path, err := export.ExportToFile(chat, exporter, a.exportOpts)
	if err != nil {
		return "", err
	}
	a.logger.Info("chat exported", zap.String("chat_id", chat.ID), zap.String("path", path))
	return path, nil
}

// CodeBlock returns code block n (1-based) of the current chat's last
// reply, along with the number of blocks in that reply.
func (a *App) CodeBlock(n int) (render.Segment, int, error) {
	chat, ok := a.store.CurrentChat()
	if !ok {
		return render.Segment{}, 0, ErrNoCode
	}
	last, ok := chat.LastMessage()
	if !ok || !last.IsAssistant() || !render.HasCode(last.Content) {
		return render.Segment{}, 0, ErrNoCode
	}

	blocks := render.CodeBlocks(last.Content)
	if n < 1 || n > len(blocks) {
		return render.Segment{}, len(blocks), fmt.Errorf("%w: %d of %d", ErrNoCode, n, len(blocks))
	}
	return blocks[n-1], len(blocks), nil
}
