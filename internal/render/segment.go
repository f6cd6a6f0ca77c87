// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render splits message content into displayable segments.
package render

import (
	"iter"
	"strings"
)

const (
	// fence delimits code blocks.
	fence = "```"

	// DefaultLanguage labels code blocks without a language tag.
	DefaultLanguage = "text"
)

// =============================================================================
// SEGMENT TYPE
// =============================================================================

// Kind distinguishes text from code segments.
type Kind string

const (
	KindText Kind = "text"
	KindCode Kind = "code"
)

// Segment is one displayable piece of a message.
// Language is only set for code segments.
type Segment struct {
	Kind     Kind   `json:"kind"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

// Text builds a text segment.
func Text(content string) Segment {
	return Segment{Kind: KindText, Content: content}
}

// Code builds a code segment.
func Code(language, content string) Segment {
	return Segment{Kind: KindCode, Language: language, Content: content}
}

// IsCode returns true for code segments.
func (s Segment) IsCode() bool {
	return s.Kind == KindCode
}

// =============================================================================
// SCANNER
// =============================================================================

// Segments returns the segments of content in order. Content without any
// complete fence yields exactly one text segment holding the whole input.
//
// The scan is linear: each candidate opening marker is examined once, and
// once no closing marker remains the rest of the input is text.
func Segments(content string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		emitted := false
		last := 0 // end of the previous code block
		pos := 0  // where to look for the next opening marker

		for {
			open := strings.Index(content[pos:], fence)
			if open < 0 {
				break
			}
			open += pos

			// Optional language tag, then a mandatory newline.
			tagStart := open + len(fence)
			tagEnd := tagStart
			for tagEnd < len(content) && isWordByte(content[tagEnd]) {
				tagEnd++
			}
			if tagEnd >= len(content) || content[tagEnd] != '\n' {
				pos = open + 1
				continue
			}

			bodyStart := tagEnd + 1
			closeAt := strings.Index(content[bodyStart:], fence)
			if closeAt < 0 {
				// No later marker can close either; the rest is text.
				break
			}
			closeAt += bodyStart

			if open > last {
				if !yield(Text(content[last:open])) {
					return
				}
			}

			language := content[tagStart:tagEnd]
			if language == "" {
				language = DefaultLanguage
			}
			if !yield(Code(language, strings.TrimSpace(content[bodyStart:closeAt]))) {
				return
			}
			emitted = true

			last = closeAt + len(fence)
			pos = last
		}

		if last < len(content) || !emitted {
			yield(Text(content[last:]))
		}
	}
}

// Parse collects the segments of content into a slice.
func Parse(content string) []Segment {
	var out []Segment
	for seg := range Segments(content) {
		out = append(out, seg)
	}
	return out
}

// CodeBlocks returns only the code segments of content.
func CodeBlocks(content string) []Segment {
	var out []Segment
	for seg := range Segments(content) {
		if seg.IsCode() {
			out = append(out, seg)
		}
	}
	return out
}

// HasCode reports whether content contains at least one complete fenced block.
func HasCode(content string) bool {
	for seg := range Segments(content) {
		if seg.IsCode() {
			return true
		}
	}
	return false
}

// isWordByte matches the ASCII word characters allowed in a language tag.
func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
