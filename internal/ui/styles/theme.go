// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for bnanab.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/bnanab/internal/model"
)

// Theme holds all the styled components for the application.
type Theme struct {
	Name         model.Theme
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout
	Width  int
	Height int

	// CodeStyle overrides the chroma style picked from IsDark.
	CodeStyle string

	// Chrome
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	StatusBar   lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	Info        lipgloss.Style
	Muted       lipgloss.Style

	// Sidebar
	Sidebar         lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style

	// Messages
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	RoleLabel       lipgloss.Style

	// Code blocks
	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeLineNum   lipgloss.Style

	// Forms
	FormBox     lipgloss.Style
	FormLabel   lipgloss.Style
	FormFocused lipgloss.Style
	Button      lipgloss.Style
	ButtonDim   lipgloss.Style
}

// NewTheme creates a theme for the given setting. The terminal's colour
// profile is detected once; the theme name picks the light or dark side of
// every adaptive colour.
func NewTheme(name model.Theme) *Theme {
	t := &Theme{
		Name:         name,
		IsDark:       name == model.ThemeDark,
		ColorProfile: termenv.ColorProfile(),
		Width:        80,
		Height:       24,
	}
	lipgloss.SetColorProfile(t.ColorProfile)
	lipgloss.SetHasDarkBackground(t.IsDark)
	t.initStyles()
	return t
}

// SetSize records the terminal size.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// CodeStyleName returns the chroma style that matches the theme.
func (t *Theme) CodeStyleName() string {
	if t.CodeStyle != "" {
		return t.CodeStyle
	}
	if t.IsDark {
		return "monokai"
	}
	return "github-dark"
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Foreground(Banana).
		Bold(true)
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Warning = lipgloss.NewStyle().Foreground(Amber)
	t.Info = lipgloss.NewStyle().Foreground(Cyan)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextSecondary)
	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Banana).
		Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Background(BananaDeep).
		Foreground(TextPrimary).
		Padding(0, 1)
	t.AssistantBubble = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextPrimary).
		Padding(0, 1)
	t.RoleLabel = lipgloss.NewStyle().
		Foreground(Banana).
		Bold(true)

	t.CodeBlock = lipgloss.NewStyle().
		Background(CodeSurface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CodeLangBadge = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(CodeHeader).
		Padding(0, 1).
		Bold(true)
	t.CodeLineNum = lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Banana).
		Padding(1, 2)
	t.FormLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.FormFocused = lipgloss.NewStyle().Foreground(Banana).Bold(true)
	t.Button = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Banana).
		Padding(0, 2)
	t.ButtonDim = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(Overlay).
		Padding(0, 2)
}
