// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the interface.
type KeyMap struct {
	Submit     key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	ToggleMode key.Binding
	NewChat    key.Binding
	DeleteChat key.Binding
	PrevChat   key.Binding
	NextChat   key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Settings   key.Binding
	Export     key.Binding
	Copy       key.Binding
	Logout     key.Binding
	Back       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-Tab", "previous field"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "sign in / sign up"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		DeleteChat: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete chat"),
		),
		PrevChat: key.NewBinding(
			key.WithKeys("alt+up", "ctrl+up", "ctrl+p"),
			key.WithHelp("C-p", "previous chat"),
		),
		NextChat: key.NewBinding(
			key.WithKeys("alt+down", "ctrl+down", "ctrl+o"),
			key.WithHelp("C-o", "next chat"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Settings: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "settings"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy code"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "log out"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns bindings for the compact help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewChat, k.PrevChat, k.NextChat, k.Settings, k.Quit}
}

// FullHelp returns bindings grouped for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.PageUp, k.PageDown},
		{k.NewChat, k.DeleteChat, k.PrevChat, k.NextChat},
		{k.Copy, k.Settings, k.Export, k.Logout, k.Quit},
	}
}

// authHelp is the key map shown on the auth screen.
type authHelp struct{ k KeyMap }

func (a authHelp) ShortHelp() []key.Binding {
	return []key.Binding{a.k.NextField, a.k.ToggleMode, a.k.Quit}
}

func (a authHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{a.ShortHelp()}
}

// settingsHelp is the key map shown on the settings screen.
type settingsHelp struct{ k KeyMap }

func (s settingsHelp) ShortHelp() []key.Binding {
	save := key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "save"))
	mfa := key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("C-t", "set up authenticator"))
	return []key.Binding{save, s.k.NextField, mfa, s.k.Back}
}

func (s settingsHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{s.ShortHelp()}
}
