// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/ui/components"
)

// View implements tea.Model.
func (m *Model) View() string {
	switch m.screen {
	case ScreenAuth:
		return m.viewAuth()
	case ScreenSettings:
		return m.viewSettings()
	default:
		return m.viewChat()
	}
}

// =============================================================================
// CHAT SCREEN
// =============================================================================

func (m *Model) viewChat() string {
	body := m.viewport.View()
	if m.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), body)
	}

	spin := m.spinner.View()
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		body,
		spin,
		m.input.View(),
		m.viewStatus(),
		m.help.View(m.keys),
	)
}

func (m *Model) viewHeader() string {
	brand := m.theme.HeaderBrand.Render("BnanaB")
	title := model.DefaultChatTitle
	if chat, ok := m.app.Store().CurrentChat(); ok {
		title = chat.Title
	}
	name := ""
	if u, ok := m.app.Store().User(); ok {
		name = u.Name
	}

	left := brand + "  " + truncate(title, m.width/2)
	gap := m.width - lipgloss.Width(left) - runewidth.StringWidth(name) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + name)
}

// viewSidebar lists chats newest first; the current chat is highlighted.
func (m *Model) viewSidebar() string {
	inner := sidebarWidth - 3
	current := m.app.Store().CurrentID()

	lines := []string{m.theme.Muted.Render("Chats")}
	chats := m.app.Store().Chats()
	if len(chats) == 0 {
		lines = append(lines, m.theme.Muted.Render("(none yet)"))
	}
	for _, c := range chats {
		label := padRight(truncate(c.Title, inner), inner)
		if c.ID == current {
			lines = append(lines, m.theme.SidebarSelected.Render(label))
		} else {
			lines = append(lines, m.theme.SidebarItem.Render(label))
		}
	}

	height := m.viewport.Height
	if len(lines) > height {
		lines = lines[:height]
	}
	return m.theme.Sidebar.Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) viewStatus() string {
	var text string
	switch {
	case m.err != nil:
		text = m.theme.Error.Render(m.err.Error())
	case m.status != "":
		text = m.theme.Info.Render(m.status)
	default:
		s := m.app.Store().Settings()
		text = m.theme.Muted.Render("key " + s.MaskedAPIKey() + " | theme " + string(s.Theme))
	}
	return m.theme.StatusBar.Width(m.width).Render(text)
}

// renderTranscript renders the current chat plus the pending user message.
func (m *Model) renderTranscript() string {
	width := m.transcriptWidth()

	var msgs []model.Message
	currentID := ""
	if chat, ok := m.app.Store().CurrentChat(); ok {
		msgs = chat.Messages
		currentID = chat.ID
	}
	if m.turn != nil && m.turn.ChatID == currentID {
		msgs = append(msgs, m.turn.User)
	}

	if len(msgs) == 0 {
		return m.theme.Muted.Render("Start a conversation with BnanaB.")
	}

	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, components.RenderMessage(msg, width, m.theme, m.text))
	}
	return strings.Join(parts, "\n\n")
}

// =============================================================================
// AUTH SCREEN
// =============================================================================

func (m *Model) viewAuth() string {
	heading := "Sign in"
	hint := "No account? Ctrl+T to sign up."
	if m.signup {
		heading = "Create your account"
		hint = "Have an account? Ctrl+T to sign in."
	}

	labels := []string{"Name", "Email", "Password", "Code"}
	var rows []string
	rows = append(rows, m.theme.HeaderBrand.Render("BnanaB"), m.theme.FormLabel.Render(heading), "")
	for pos, field := range m.authFields() {
		rows = append(rows, m.formRow(labels[field], m.authInputs[field].View(), pos == m.authFocus))
	}
	rows = append(rows, "", m.theme.Button.Render("Enter"), m.theme.Muted.Render(hint))
	if m.err != nil {
		rows = append(rows, "", m.theme.Error.Render(m.err.Error()))
	}

	box := m.theme.FormBox.Render(strings.Join(rows, "\n"))
	return m.center(box) + "\n" + m.help.View(authHelp{m.keys})
}

// =============================================================================
// SETTINGS SCREEN
// =============================================================================

func (m *Model) viewSettings() string {
	labels := []string{"Temperature", "Max tokens", "Theme", "API key"}

	var rows []string
	rows = append(rows, m.theme.HeaderBrand.Render("Settings"), "")
	for i, in := range m.settingsInputs {
		rows = append(rows, m.formRow(labels[i], in.View(), i == m.settingsFocus))
	}

	if u, ok := m.app.Store().User(); ok && u.HasTOTP() && m.enrollment == "" {
		rows = append(rows, "", m.theme.Info.Render("Authenticator enabled."))
	}
	if m.enrollment != "" {
		rows = append(rows, "",
			m.theme.Info.Render("Add this to your authenticator app:"),
			m.enrollment)
	}
	if m.err != nil {
		rows = append(rows, "", m.theme.Error.Render(m.err.Error()))
	}

	box := m.theme.FormBox.Render(strings.Join(rows, "\n"))
	return m.center(box) + "\n" + m.help.View(settingsHelp{m.keys})
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) formRow(label, field string, focused bool) string {
	style := m.theme.FormLabel
	marker := "  "
	if focused {
		style = m.theme.FormFocused
		marker = "> "
	}
	return marker + style.Width(12).Render(label) + field
}

func (m *Model) center(s string) string {
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, s)
}

// truncate shortens s to width terminal cells with an ellipsis.
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// padRight pads s with spaces to width terminal cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
