// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/bnanab/internal/app"
	"github.com/jeranaias/bnanab/internal/config"
	"github.com/jeranaias/bnanab/internal/model"
)

// turnDoneMsg carries a finished completion back to the update loop.
type turnDoneMsg struct {
	turn  *app.Turn
	reply model.Message
	err   error
}

// ConfigReloadedMsg delivers a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// runTurn performs the completion off the update loop.
func runTurn(ctx context.Context, turn *app.Turn) tea.Cmd {
	return func() tea.Msg {
		reply, err := turn.Run(ctx)
		return turnDoneMsg{turn: turn, reply: reply, err: err}
	}
}
