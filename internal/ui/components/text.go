// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/bnanab/internal/model"
)

// =============================================================================
// TEXT SEGMENT RENDERER (Glamour-based)
// =============================================================================

// TextRenderer renders prose segments as terminal markdown.
// Renderers are built lazily and cached per wrap width.
type TextRenderer struct {
	theme model.Theme

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewTextRenderer creates a renderer using the light or dark glamour style.
func NewTextRenderer(theme model.Theme) *TextRenderer {
	return &TextRenderer{
		theme:     theme,
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// Render formats text wrapped at width. If glamour fails the text is
// returned unchanged so nothing the assistant said is lost.
func (t *TextRenderer) Render(text string, width int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	r, err := t.renderer(width)
	if err != nil {
		return text
	}

	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func (t *TextRenderer) renderer(width int) (*glamour.TermRenderer, error) {
	if width < 20 {
		width = 20
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.renderers[width]; ok {
		return r, nil
	}

	style := "light"
	if t.theme == model.ThemeDark {
		style = "dark"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	t.renderers[width] = r
	return r, nil
}
