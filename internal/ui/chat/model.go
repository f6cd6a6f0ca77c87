// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/bnanab/internal/app"
	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/ui/components"
	"github.com/jeranaias/bnanab/internal/ui/styles"
)

// Screen identifies which view is active.
type Screen int

const (
	ScreenAuth Screen = iota
	ScreenChat
	ScreenSettings
)

// Layout constants.
const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 4 // spinner, input, status, help
	minWidth     = 40
)

// Auth form field indexes.
const (
	fieldName = iota
	fieldEmail
	fieldPassword
	fieldCode
)

// Settings form field indexes.
const (
	fieldTemperature = iota
	fieldMaxTokens
	fieldTheme
	fieldAPIKey
)

// Options configures the interface.
type Options struct {
	// WordWrap caps the transcript width; 0 uses the full width.
	WordWrap int
	// CodeStyle overrides the chroma style.
	CodeStyle string
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	ctx  context.Context
	app  *app.App
	opts Options

	theme *styles.Theme
	text  *components.TextRenderer
	keys  KeyMap
	help  help.Model

	screen Screen
	width  int
	height int

	// Auth
	signup     bool
	authInputs []textinput.Model
	authFocus  int

	// Chat
	input    textinput.Model
	viewport viewport.Model
	spinner  components.Spinner
	turn     *app.Turn

	// copy writes to the clipboard; copied is the last block copied from
	// the current reply, 0 when none.
	copy   func(string) error
	copied int

	// Settings
	settingsInputs []textinput.Model
	settingsFocus  int
	enrollment     string

	status string
	err    error
}

// New creates the model. A restored session opens on the chat screen.
func New(ctx context.Context, a *app.App, opts Options) *Model {
	m := &Model{
		ctx:      ctx,
		app:      a,
		opts:     opts,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  components.NewSpinner(),
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
		copy:     clipboard.WriteAll,
	}
	m.applyTheme(a.Store().Settings().Theme)

	m.input = textinput.New()
	m.input.Placeholder = "Message BnanaB..."
	m.input.Prompt = "> "
	m.input.CharLimit = 0

	m.authInputs = newAuthInputs()
	m.settingsInputs = newSettingsInputs()

	if a.Store().IsAuthenticated() {
		m.enterChat()
	} else {
		m.enterAuth(!a.Store().HasAccount(ctx))
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Screen returns the active screen.
func (m *Model) Screen() Screen {
	return m.screen
}

// Err returns the error being displayed, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) applyTheme(name model.Theme) {
	m.theme = styles.NewTheme(name)
	m.theme.CodeStyle = m.opts.CodeStyle
	m.theme.SetSize(m.width, m.height)
	m.text = components.NewTextRenderer(name)
}

// =============================================================================
// FORMS
// =============================================================================

func newAuthInputs() []textinput.Model {
	inputs := make([]textinput.Model, 4)
	placeholders := []string{"Name", "Email", "Password", "Authenticator code (if enabled)"}
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Prompt = ""
		in.CharLimit = 256
		inputs[i] = in
	}
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '*'
	inputs[fieldCode].CharLimit = 6
	return inputs
}

func newSettingsInputs() []textinput.Model {
	inputs := make([]textinput.Model, 4)
	placeholders := []string{"0.0 - 1.0", "tokens", "light or dark", "sk-ant-..."}
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Prompt = ""
		inputs[i] = in
	}
	inputs[fieldAPIKey].EchoMode = textinput.EchoPassword
	inputs[fieldAPIKey].EchoCharacter = '*'
	return inputs
}

// authFields returns the indexes shown in the current auth mode.
func (m *Model) authFields() []int {
	if m.signup {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword, fieldCode}
}

func (m *Model) focusAuth(pos int) {
	fields := m.authFields()
	m.authFocus = (pos + len(fields)) % len(fields)
	for i := range m.authInputs {
		m.authInputs[i].Blur()
	}
	m.authInputs[fields[m.authFocus]].Focus()
}

func (m *Model) focusSettings(pos int) {
	m.settingsFocus = (pos + len(m.settingsInputs)) % len(m.settingsInputs)
	for i := range m.settingsInputs {
		m.settingsInputs[i].Blur()
	}
	m.settingsInputs[m.settingsFocus].Focus()
}

// =============================================================================
// SCREEN TRANSITIONS
// =============================================================================

func (m *Model) enterAuth(signup bool) {
	m.screen = ScreenAuth
	m.signup = signup
	for i := range m.authInputs {
		m.authInputs[i].Reset()
	}
	m.focusAuth(0)
	m.input.Blur()
}

func (m *Model) enterChat() {
	m.screen = ScreenChat
	m.enrollment = ""
	m.input.Focus()
	m.layout()
	m.refresh()
}

func (m *Model) enterSettings() {
	s := m.app.Store().Settings()
	m.settingsInputs[fieldTemperature].SetValue(strconv.FormatFloat(s.Temperature, 'f', -1, 64))
	m.settingsInputs[fieldMaxTokens].SetValue(strconv.Itoa(s.MaxTokens))
	m.settingsInputs[fieldTheme].SetValue(string(s.Theme))
	m.settingsInputs[fieldAPIKey].SetValue(s.APIKey)
	m.screen = ScreenSettings
	m.input.Blur()
	m.focusSettings(0)
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) layout() {
	w := m.transcriptWidth()
	h := m.height - headerHeight - footerHeight
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - len(m.input.Prompt) - 1
	m.help.Width = m.width
	m.theme.SetSize(m.width, m.height)
}

func (m *Model) showSidebar() bool {
	return m.width >= minWidth+sidebarWidth
}

func (m *Model) transcriptWidth() int {
	w := m.width
	if m.showSidebar() {
		w -= sidebarWidth + 1
	}
	if m.opts.WordWrap > 0 && w > m.opts.WordWrap {
		w = m.opts.WordWrap
	}
	if w < 20 {
		w = 20
	}
	return w
}

// refresh re-renders the transcript and scrolls to the bottom.
func (m *Model) refresh() {
	m.copied = 0
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
