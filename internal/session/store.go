// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/security/auth"
	"github.com/jeranaias/bnanab/internal/storage"
)

// Storage keys for the three persisted snapshots.
const (
	KeyUser     = "banana_user"
	KeyChats    = "banana_chats"
	KeySettings = "banana_settings"
)

var (
	// ErrMissingField is returned when a required form field is blank.
	ErrMissingField = errors.New("please fill in all fields")

	// ErrInvalidCredentials is returned when the email or password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoAccount is returned by Login when no account has been created.
	ErrNoAccount = errors.New("no account found, please sign up first")

	// ErrNotAuthenticated is returned by chat operations while signed out.
	ErrNotAuthenticated = errors.New("not signed in")
)

// SignupForm holds the fields of the sign-up form.
type SignupForm struct {
	Name     string
	Email    string
	Password string
}

// LoginForm holds the fields of the sign-in form. Code is only needed when
// an authenticator is enrolled.
type LoginForm struct {
	Email    string
	Password string
	Code     string
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Store holds the session state and persists it through an adapter.
type Store struct {
	mu sync.Mutex

	adapter storage.Adapter
	logger  *zap.Logger
	limiter *auth.Limiter

	user          *model.User
	authenticated bool
	settings      model.Settings
	chats         *ChatList
}

// NewStore creates a signed-out store with default settings. A nil logger
// discards log output.
func NewStore(adapter storage.Adapter, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		adapter:  adapter,
		logger:   logger.Named("session"),
		limiter:  auth.NewLimiter(),
		settings: model.DefaultSettings(),
		chats:    NewChatList(),
	}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the persisted snapshot. Each key that cannot be read or parsed
// falls back to its empty state; the failure is logged, never returned.
// A stored user that was signed in is signed in again.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.authenticated = false
	s.chats.Reset()
	s.settings = s.readSettings(ctx)

	user, err := s.readUser(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoAccount) {
			s.logger.Warn("discarding stored user", zap.Error(err))
		}
		return
	}
	s.user = user
	if user.Active {
		s.authenticated = true
		s.chats.Restore(s.readChats(ctx))
	}
}

// Save writes the snapshot: the user when one exists, the chats while
// signed in, and the settings. Every failed write is logged; the joined
// error is returned and in-memory state is kept.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	var errs []error

	if s.user != nil {
		errs = append(errs, s.write(ctx, KeyUser, s.user))
	}
	if s.authenticated {
		errs = append(errs, s.write(ctx, KeyChats, s.chats.Snapshot()))
	}
	errs = append(errs, s.write(ctx, KeySettings, s.settings))

	return errors.Join(errs...)
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err == nil {
		err = s.adapter.Set(ctx, key, string(data))
	}
	if err != nil {
		s.logger.Error("storage write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.adapter.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) readUser(ctx context.Context) (*model.User, error) {
	var user model.User
	ok, err := s.read(ctx, KeyUser, &user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoAccount
	}
	return &user, nil
}

func (s *Store) readChats(ctx context.Context) []*model.Chat {
	var chats []*model.Chat
	if _, err := s.read(ctx, KeyChats, &chats); err != nil {
		s.logger.Warn("discarding stored chats", zap.Error(err))
		return nil
	}
	return chats
}

func (s *Store) readSettings(ctx context.Context) model.Settings {
	settings := model.DefaultSettings()
	ok, err := s.read(ctx, KeySettings, &settings)
	if err != nil {
		s.logger.Warn("discarding stored settings", zap.Error(err))
		return model.DefaultSettings()
	}
	if !ok {
		return settings
	}
	if err := settings.Validate(); err != nil {
		s.logger.Warn("discarding stored settings", zap.Error(err))
		return model.DefaultSettings()
	}
	return settings
}

// =============================================================================
// ACCOUNT OPERATIONS
// =============================================================================

// Signup creates the local account, replacing any previous one, and signs
// it in. Chats already on disk are kept.
func (s *Store) Signup(ctx context.Context, form SignupForm) error {
	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)
	if name == "" || email == "" || form.Password == "" {
		return ErrMissingField
	}

	cred, err := auth.HashPassword(form.Password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &model.User{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		Credential: cred,
		CreatedAt:  time.Now().UTC(),
		Active:     true,
	}
	s.authenticated = true
	s.chats.Restore(s.readChats(ctx))
	s.logger.Info("account created", zap.String("user_id", s.user.ID))

	return s.save(ctx)
}

// Login checks the form against the stored account. Chats and settings are
// reloaded from storage so signing back in never discards saved chats.
func (s *Store) Login(ctx context.Context, form LoginForm) error {
	if strings.TrimSpace(form.Email) == "" || form.Password == "" {
		return ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.limiter.Check(); err != nil {
		return err
	}

	stored, err := s.readUser(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoAccount) {
			s.logger.Warn("stored user unreadable", zap.Error(err))
			return ErrNoAccount
		}
		return err
	}

	if !auth.SameEmail(stored.Email, form.Email) || !auth.VerifyPassword(stored.Credential, form.Password) {
		s.limiter.Fail()
		s.logger.Info("login rejected", zap.String("reason", "credentials"))
		return ErrInvalidCredentials
	}
	if err := auth.VerifyTOTP(stored.TOTPSecret, form.Code); err != nil {
		if errors.Is(err, auth.ErrInvalidTOTP) {
			s.limiter.Fail()
		}
		return err
	}

	stored.Active = true
	s.user = stored
	s.authenticated = true
	s.settings = s.readSettings(ctx)
	s.chats.Restore(s.readChats(ctx))
	s.logger.Info("signed in", zap.String("user_id", stored.ID))

	return s.save(ctx)
}

// Logout persists the signed-out account and clears in-memory chats.
// Stored chats are left untouched.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	s.user.Active = false
	s.authenticated = false
	err := s.save(ctx)

	s.user = nil
	s.chats.Reset()
	return err
}

// EnrollTOTP adds an authenticator secret to the signed-in account. The
// returned enrollment carries the otpauth URL to show the user.
func (s *Store) EnrollTOTP(ctx context.Context) (auth.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return auth.Enrollment{}, ErrNotAuthenticated
	}
	enr, err := auth.EnrollTOTP(s.user.Email)
	if err != nil {
		return auth.Enrollment{}, err
	}
	s.user.TOTPSecret = enr.Secret
	return enr, s.save(ctx)
}

// UpdateSettings validates and stores new settings.
func (s *Store) UpdateSettings(ctx context.Context, settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	return s.save(ctx)
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// CreateChat adds an empty chat and makes it current.
func (s *Store) CreateChat(ctx context.Context) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return nil, ErrNotAuthenticated
	}
	chat := s.chats.CreateChat()
	_ = s.save(ctx) // write logs the failure; memory stays authoritative
	return chat.Clone(), nil
}

// SelectChat makes id current. Unknown ids change nothing.
func (s *Store) SelectChat(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated || !s.chats.SelectChat(id) {
		return false
	}
	_ = s.save(ctx) // write logs the failure; memory stays authoritative
	return true
}

// DeleteChat removes id. Absent ids change nothing.
func (s *Store) DeleteChat(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated || !s.chats.DeleteChat(id) {
		return false
	}
	_ = s.save(ctx) // write logs the failure; memory stays authoritative
	return true
}

// AppendTurn records one completed exchange in chat id.
func (s *Store) AppendTurn(ctx context.Context, id string, user, assistant model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNotAuthenticated
	}
	if err := s.chats.AppendTurn(id, user, assistant); err != nil {
		return err
	}
	_ = s.save(ctx) // write logs the failure; memory stays authoritative
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// HasAccount reports whether an account exists on disk or in memory.
func (s *Store) HasAccount(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		return true
	}
	_, err := s.readUser(ctx)
	return err == nil
}

// User returns a copy of the signed-in user.
func (s *Store) User() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated || s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Settings returns the current settings.
func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Chats returns copies of all chats, newest first.
func (s *Store) Chats() []*model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chats.Snapshot()
}

// Chat returns a copy of chat id.
func (s *Store) Chat(id string) (*model.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats.Get(id)
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// CurrentChat returns a copy of the current chat.
func (s *Store) CurrentChat() (*model.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats.Current()
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// CurrentID returns the current chat id or "".
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chats.CurrentID()
}
