// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bnanab/internal/model"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme(model.ThemeLight)
	require.NotNil(t, theme)
	assert.False(t, theme.IsDark)
	assert.Equal(t, model.ThemeLight, theme.Name)
	assert.Equal(t, 80, theme.Width)

	dark := NewTheme(model.ThemeDark)
	assert.True(t, dark.IsDark)
	assert.True(t, lipgloss.HasDarkBackground())
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme(model.ThemeDark)

	for name, style := range map[string]lipgloss.Style{
		"Header":          theme.Header,
		"UserBubble":      theme.UserBubble,
		"AssistantBubble": theme.AssistantBubble,
		"CodeBlock":       theme.CodeBlock,
		"SidebarSelected": theme.SidebarSelected,
		"FormBox":         theme.FormBox,
	} {
		assert.Contains(t, style.Render("test"), "test", name)
	}
}

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme(model.ThemeLight)
	theme.SetSize(120, 40)
	assert.Equal(t, 120, theme.Width)
	assert.Equal(t, 40, theme.Height)
}

func TestCodeStyleName(t *testing.T) {
	assert.Equal(t, "monokai", NewTheme(model.ThemeDark).CodeStyleName())
	assert.Equal(t, "github-dark", NewTheme(model.ThemeLight).CodeStyleName())

	th := NewTheme(model.ThemeLight)
	th.CodeStyle = "dracula"
	assert.Equal(t, "dracula", th.CodeStyleName())
}
