// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render splits message content into displayable segments.
//
// A segment is either plain text or a fenced code block. Fences follow the
// chat convention: three backticks, an optional language tag made of ASCII
// word characters, a newline, the body, and three closing backticks.
// An opening marker without a closing one is plain text.
//
// # Usage
//
//	for seg := range render.Segments(msg.Content) {
//	    switch seg.Kind {
//	    case render.KindText:
//	        fmt.Print(seg.Content)
//	    case render.KindCode:
//	        fmt.Printf("[%s]\n%s\n", seg.Language, seg.Content)
//	    }
//	}
//
// The sequence is recomputed on every range, so it can be iterated any
// number of times.
package render
