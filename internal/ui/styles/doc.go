// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for bnanab.

# Color System (colors.go)

Banana is the brand accent, used for user bubbles, the selected chat and
focused form fields. Rose and Amber carry errors and warnings. Surface and
text tokens are AdaptiveColor pairs.

# Theme (theme.go)

NewTheme builds every lipgloss.Style the UI needs from a model.Theme. The
theme decides the light or dark side of each adaptive color rather than
probing the terminal background, so a user's "dark" setting always wins.

	theme := styles.NewTheme(settings.Theme)
	theme.SetSize(width, height)
	fmt.Println(theme.UserBubble.Render("hi"))
*/
package styles
