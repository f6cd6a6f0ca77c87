// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen Bubble Tea interface for bnanab.

# Screens

  - Auth: sign-up form on first run, sign-in form afterwards (Ctrl+T toggles)
  - Chat: sidebar of chats, transcript viewport, input line and spinner
  - Settings: temperature, max tokens, theme, API key and authenticator setup

# Sending

Enter opens a turn with app.BeginTurn on the update loop. The request runs
in a tea.Cmd and its result comes back as a message that is applied with
app.FinishTurn. While a turn is open further sends are ignored.

# Hot reload

ConfigReloadedMsg carries a reloaded configuration; send it with
tea.Program.Send from a config.Watch callback.

# Usage

	m := chat.New(ctx, a, chat.Options{WordWrap: cfg.UI.WordWrap})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
