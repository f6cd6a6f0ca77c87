// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the rendering pieces shared by the TUI and the
line-mode REPL.

  - CodeBlock (codeblock.go) - Chroma-highlighted fenced code with a language badge.
  - TextRenderer (text.go) - Glamour markdown for prose segments.
  - MessageBubble (message.go) - One chat message, split into segments.
  - Spinner (spinner.go) - Thinking indicator while a reply is pending.

Assistant messages are walked with render.Segments so every fenced block is
drawn by CodeBlock and everything else by TextRenderer:

	theme := styles.NewTheme(model.ThemeDark)
	text := components.NewTextRenderer(model.ThemeDark)
	fmt.Println(components.RenderMessage(msg, 80, theme, text))
*/
package components
