// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/bnanab/internal/app"
	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/session"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.screen {
		case ScreenAuth:
			return m.updateAuth(msg)
		case ScreenSettings:
			return m.updateSettings(msg)
		default:
			return m.updateChat(msg)
		}

	case turnDoneMsg:
		return m.handleTurnDone(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// =============================================================================
// AUTH SCREEN
// =============================================================================

func (m *Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleMode):
		m.err = nil
		m.enterAuth(!m.signup)
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.focusAuth(m.authFocus + 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.focusAuth(m.authFocus - 1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitAuth()
	}

	field := m.authFields()[m.authFocus]
	var cmd tea.Cmd
	m.authInputs[field], cmd = m.authInputs[field].Update(msg)
	return m, cmd
}

func (m *Model) submitAuth() (tea.Model, tea.Cmd) {
	var err error
	if m.signup {
		err = m.app.Signup(m.ctx, session.SignupForm{
			Name:     m.authInputs[fieldName].Value(),
			Email:    m.authInputs[fieldEmail].Value(),
			Password: m.authInputs[fieldPassword].Value(),
		})
	} else {
		err = m.app.Login(m.ctx, session.LoginForm{
			Email:    m.authInputs[fieldEmail].Value(),
			Password: m.authInputs[fieldPassword].Value(),
			Code:     m.authInputs[fieldCode].Value(),
		})
	}
	if err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil
	m.status = ""
	m.applyTheme(m.app.Store().Settings().Theme)
	m.enterChat()
	return m, textinput.Blink
}

// =============================================================================
// CHAT SCREEN
// =============================================================================

func (m *Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.send()

	case key.Matches(msg, m.keys.NewChat):
		if _, err := m.app.CreateChat(m.ctx); err != nil {
			m.err = err
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.DeleteChat):
		if id := m.app.Store().CurrentID(); id != "" {
			m.app.DeleteChat(m.ctx, id)
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.PrevChat):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextChat):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		m.err = nil
		m.enterSettings()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		path, err := m.app.Export("", "")
		if err != nil {
			m.err = err
		} else {
			m.err = nil
			m.status = "Exported to " + path
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copyCode()
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		if err := m.app.Logout(m.ctx); err != nil {
			m.err = err
		}
		m.turn = nil
		m.spinner.Stop()
		m.enterAuth(false)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send opens a turn. A send while another is pending is ignored.
func (m *Model) send() (tea.Model, tea.Cmd) {
	turn, err := m.app.BeginTurn(m.ctx, m.input.Value())
	switch {
	case errors.Is(err, app.ErrBusy), errors.Is(err, app.ErrEmptyInput):
		return m, nil
	case err != nil:
		m.err = err
		return m, nil
	}

	m.err = nil
	m.status = ""
	m.turn = turn
	m.input.Reset()
	m.refresh()
	return m, tea.Batch(m.spinner.Start(), runTurn(m.ctx, turn))
}

func (m *Model) handleTurnDone(msg turnDoneMsg) (tea.Model, tea.Cmd) {
	m.spinner.Stop()
	m.turn = nil

	res, err := m.app.FinishTurn(m.ctx, msg.turn, msg.reply, msg.err)
	switch {
	case errors.Is(err, session.ErrChatNotFound), errors.Is(err, session.ErrNotAuthenticated):
		// The chat went away while waiting; the reply is dropped.
	case err != nil:
		m.err = err
	case res.Fallback:
		m.status = "The reply could not be fetched."
	}
	m.refresh()
	return m, nil
}

// copyCode copies the next code block of the last reply. Repeated presses
// step through the blocks and wrap around.
func (m *Model) copyCode() {
	n := m.copied + 1
	block, total, err := m.app.CodeBlock(n)
	if errors.Is(err, app.ErrNoCode) && total > 0 {
		n = 1
		block, total, err = m.app.CodeBlock(n)
	}
	if err != nil {
		m.err = err
		return
	}

	m.copied = n
	if err := m.copy(block.Content); err != nil {
		m.err = fmt.Errorf("clipboard unavailable: %w", err)
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("Copied code block %d of %d.", n, total)
}

func (m *Model) moveSelection(delta int) {
	chats := m.app.Store().Chats()
	if len(chats) == 0 {
		return
	}
	current := m.app.Store().CurrentID()
	idx := -1
	for i, c := range chats {
		if c.ID == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(chats) - 1
	default:
		idx = (idx + delta + len(chats)) % len(chats)
	}
	m.app.SelectChat(m.ctx, chats[idx].ID)
	m.refresh()
}

// =============================================================================
// SETTINGS SCREEN
// =============================================================================

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.err = nil
		m.enterChat()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.focusSettings(m.settingsFocus + 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.focusSettings(m.settingsFocus - 1)
		return m, nil
	case key.Matches(msg, m.keys.ToggleMode):
		enr, err := m.app.EnrollTOTP(m.ctx)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.enrollment = enr.URL
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.saveSettings()
	}

	var cmd tea.Cmd
	m.settingsInputs[m.settingsFocus], cmd = m.settingsInputs[m.settingsFocus].Update(msg)
	return m, cmd
}

func (m *Model) saveSettings() (tea.Model, tea.Cmd) {
	s, err := m.parseSettings()
	if err != nil {
		m.err = err
		return m, nil
	}
	if err := m.app.UpdateSettings(m.ctx, s); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.status = "Settings saved."
	m.applyTheme(s.Theme)
	m.enterChat()
	return m, nil
}

func (m *Model) parseSettings() (model.Settings, error) {
	s := m.app.Store().Settings()

	temp, err := strconv.ParseFloat(strings.TrimSpace(m.settingsInputs[fieldTemperature].Value()), 64)
	if err != nil {
		return s, fmt.Errorf("%w: temperature must be a number", model.ErrInvalidSettings)
	}
	tokens, err := strconv.Atoi(strings.TrimSpace(m.settingsInputs[fieldMaxTokens].Value()))
	if err != nil {
		return s, fmt.Errorf("%w: max tokens must be a whole number", model.ErrInvalidSettings)
	}

	s.Temperature = temp
	s.MaxTokens = tokens
	s.Theme = model.Theme(strings.ToLower(strings.TrimSpace(m.settingsInputs[fieldTheme].Value())))
	s.APIKey = strings.TrimSpace(m.settingsInputs[fieldAPIKey].Value())
	return s, nil
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m *Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.status = "Config not reloaded: " + msg.Err.Error()
		return m, nil
	}
	m.app.Reconfigure(msg.Config)
	m.opts.WordWrap = msg.Config.UI.WordWrap
	m.opts.CodeStyle = msg.Config.UI.CodeStyle
	m.theme.CodeStyle = m.opts.CodeStyle
	m.status = "Config reloaded."
	m.layout()
	m.refresh()
	return m, nil
}
