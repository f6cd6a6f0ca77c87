// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/bnanab/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is a fenced code segment ready for display.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int

	// StyleName is the chroma style; empty uses the theme default.
	StyleName string
	// LineNumbers prefixes each line with its 1-based number.
	LineNumbers bool
}

// NewCodeBlock creates a new code block.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{
		Language:    language,
		Code:        code,
		MaxWidth:    80,
		LineNumbers: true,
	}
}

// SetMaxWidth sets the maximum width for the code block.
func (c *CodeBlock) SetMaxWidth(width int) {
	c.MaxWidth = width
}

// Render renders the code block with a language badge and highlighting.
func (c CodeBlock) Render(theme *styles.Theme) string {
	styleName := c.StyleName
	if styleName == "" {
		styleName = theme.CodeStyleName()
	}

	lines := strings.Split(highlightCode(c.Code, c.Language, styleName), "\n")
	if c.LineNumbers {
		for i, line := range lines {
			lines[i] = theme.CodeLineNum.Render(strconv.Itoa(i+1)) + line
		}
	}

	header := theme.CodeLangBadge.Render(c.Language)

	maxWidth := c.MaxWidth - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	return theme.CodeBlock.
		MaxWidth(maxWidth).
		Render(header + "\n" + strings.Join(lines, "\n"))
}

// Plain returns the block as it would be copied to the clipboard.
func (c CodeBlock) Plain() string {
	return c.Code
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode returns ANSI-highlighted code. Unknown languages fall back
// to content analysis, then to plain text.
func highlightCode(code, language, styleName string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// KnownLanguage reports whether chroma has a lexer for the tag.
func KnownLanguage(language string) bool {
	return lexers.Get(language) != nil
}
