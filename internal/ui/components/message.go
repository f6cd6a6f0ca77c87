// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/render"
	"github.com/jeranaias/bnanab/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one chat message. Assistant content is split into
// prose and fenced code; user content is shown verbatim.
type MessageBubble struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool

	theme *styles.Theme
	text  *TextRenderer
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg model.Message, theme *styles.Theme, text *TextRenderer) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
		text:          text,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the label line followed by the body.
func (b *MessageBubble) View() string {
	label := b.theme.RoleLabel.Render(b.Message.Role.DisplayName())
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		label += " " + b.theme.Muted.Render(b.Message.Timestamp.Local().Format("15:04"))
	}

	var body string
	if b.Message.IsUser() {
		body = b.theme.UserBubble.Width(b.contentWidth()).Render(b.Message.Content)
	} else {
		body = b.renderSegments()
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, body)
}

func (b *MessageBubble) renderSegments() string {
	var parts []string
	for seg := range render.Segments(b.Message.Content) {
		if seg.IsCode() {
			cb := NewCodeBlock(seg.Language, seg.Content)
			cb.SetMaxWidth(b.Width)
			parts = append(parts, cb.Render(b.theme))
			continue
		}
		if strings.TrimSpace(seg.Content) == "" {
			continue
		}
		parts = append(parts, b.theme.AssistantBubble.
			Width(b.contentWidth()).
			Render(b.text.Render(seg.Content, b.contentWidth()-2)))
	}
	return strings.Join(parts, "\n")
}

func (b *MessageBubble) contentWidth() int {
	w := b.Width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// RenderMessage is a convenience for one-off rendering outside a model.
func RenderMessage(msg model.Message, width int, theme *styles.Theme, text *TextRenderer) string {
	b := NewMessageBubble(msg, theme, text)
	b.SetWidth(width)
	return b.View()
}
