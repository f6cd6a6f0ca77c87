// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SEGMENT SCANNER TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "plain text",
			input: "just some words",
			want:  []Segment{Text("just some words")},
		},
		{
			name:  "tagged block between text",
			input: "a\n```js\ncode\n```\nb",
			want:  []Segment{Text("a\n"), Code("js", "code"), Text("\nb")},
		},
		{
			name:  "unterminated fence stays text",
			input: "x ```py\nhello",
			want:  []Segment{Text("x ```py\nhello")},
		},
		{
			name:  "untagged block defaults to text language",
			input: "```\nls -la\n```",
			want:  []Segment{Code("text", "ls -la")},
		},
		{
			name:  "empty body",
			input: "before ```go\n``` after",
			want:  []Segment{Text("before "), Code("go", ""), Text(" after")},
		},
		{
			name:  "body is trimmed",
			input: "```python\n\n  print(1)  \n\n```",
			want:  []Segment{Code("python", "print(1)")},
		},
		{
			name:  "two blocks",
			input: "```a\n1\n```mid```b\n2\n```",
			want:  []Segment{Code("a", "1"), Text("mid"), Code("b", "2")},
		},
		{
			name:  "tag without newline is not a fence",
			input: "```js code``` done",
			want:  []Segment{Text("```js code``` done")},
		},
		{
			name:  "fourth backtick shifts the opening marker",
			input: "````\nx\n```",
			want:  []Segment{Text("`"), Code("text", "x")},
		},
		{
			name:  "non-word tag character rejects fence",
			input: "```c++\nint x;\n```",
			want:  []Segment{Text("```c++\nint x;\n```")},
		},
		{
			name:  "closing marker is the nearest one",
			input: "```sh\necho 1\n``` tail ```",
			want:  []Segment{Code("sh", "echo 1"), Text(" tail ```")},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Segment{Text("")},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.input))
		})
	}
}

func TestSegments_NoFenceYieldsInput(t *testing.T) {
	inputs := []string{
		"hello",
		"multi\nline\ntext",
		"single ` and double `` backticks",
		"``` but nothing closes\n",
	}
	for _, in := range inputs {
		segs := Parse(in)
		require.Len(t, segs, 1, in)
		assert.Equal(t, Text(in), segs[0])
	}
}

func TestSegments_Restartable(t *testing.T) {
	seq := Segments("a\n```js\ncode\n```\nb")

	var first, second []Segment
	for seg := range seq {
		first = append(first, seg)
	}
	for seg := range seq {
		second = append(second, seg)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestSegments_EarlyStop(t *testing.T) {
	count := 0
	for range Segments("```a\n1\n```x```b\n2\n```y") {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestSegments_LargeInputIsLinear(t *testing.T) {
	// Many opening markers that never close must not cause a quadratic rescan.
	input := strings.Repeat("```x ", 200000)
	segs := Parse(input)
	require.Len(t, segs, 1)
	assert.Equal(t, input, segs[0].Content)
}

func TestCodeBlocks(t *testing.T) {
	blocks := CodeBlocks("intro\n```go\nfmt.Println()\n```\nand\n```\nplain\n```")
	require.Len(t, blocks, 2)
	assert.Equal(t, "go", blocks[0].Language)
	assert.Equal(t, "text", blocks[1].Language)

	assert.True(t, HasCode("```\nx\n```"))
	assert.False(t, HasCode("no code here"))
}
