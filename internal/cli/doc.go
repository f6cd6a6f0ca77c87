// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI front ends for
// bnanab.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed command-line arguments
//   - Runtime: Config, logger, storage and app opened for one command
//   - ChatSession: The line-oriented chat REPL
//
// # Usage
//
//	cmd, args, err := cli.Parse()
//	rt, err := cli.NewRuntime(ctx, cfg, cli.RuntimeOptions{})
//	defer rt.Close()
//	err = cli.HandleChatCommand(ctx, rt, args)
//
// # Commands
//
//   - (none), tui: Full-screen interface
//   - chat: Line-oriented chat with slash commands
//   - export: Write chats to JSON or Markdown files
//   - config: Show and edit ~/.bnanab/config.toml
//   - version, help
package cli
