// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Launches the full-screen interface.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/bnanab/internal/config"
	"github.com/jeranaias/bnanab/internal/ui/chat"
)

// HandleTUI runs the bubbletea interface. Without a terminal, or with
// ui.mode = "repl", it falls back to the line-oriented chat.
func HandleTUI(ctx context.Context, rt *Runtime, args Args) error {
	if rt.Config.UI.Mode == "repl" || !IsTTY() || !IsStdoutTTY() {
		return HandleChatCommand(ctx, rt, args)
	}

	m := chat.New(ctx, rt.App, chat.Options{
		WordWrap:  rt.Config.UI.WordWrap,
		CodeStyle: rt.Config.UI.CodeStyle,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	startConfigWatch(watchCtx, rt, args, p)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("interface error: %w", err)
	}
	return nil
}

// startConfigWatch forwards config file changes to the program. Watching
// is best-effort: a missing file or watcher failure only logs.
func startConfigWatch(ctx context.Context, rt *Runtime, args Args, p *tea.Program) {
	path, err := ConfigFile(args)
	if err != nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		rt.Logger.Debug("config watch skipped", zap.String("path", path), zap.Error(err))
		return
	}

	_, err = config.Watch(ctx, path, config.DefaultDebounce, func(cfg *config.Config, err error) {
		if err == nil {
			args.ApplyOverrides(cfg)
			rt.Logger.Info("config reloaded", zap.String("path", path))
		} else {
			rt.Logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
		}
		p.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
	})
	if err != nil {
		rt.Logger.Warn("config watch failed", zap.String("path", path), zap.Error(err))
	}
}
