// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"

	"github.com/jeranaias/bnanab/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// apiMessage is one entry of the request's messages array.
type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesRequest is the POST /v1/messages body.
type messagesRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
	System      string       `json:"system"`
	Messages    []apiMessage `json:"messages"`
}

// contentBlock is one element of the response content array. Text is a
// pointer so a missing field can be told apart from an empty reply.
type contentBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

// messagesResponse is the subset of the response that is read.
type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// errorResponse is the API error shape.
type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a failure reported by the API.
type APIError struct {
	Status  int
	Type    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("anthropic error [%s] (HTTP %d): %s", e.Type, e.Status, e.Message)
	}
	return fmt.Sprintf("anthropic error (HTTP %d): %s", e.Status, e.Message)
}

// toAPIMessages maps chat history to the wire format, oldest first.
func toAPIMessages(history []model.Message) []apiMessage {
	out := make([]apiMessage, len(history))
	for i, m := range history {
		out[i] = apiMessage{Role: m.Role.String(), Content: m.Content}
	}
	return out
}
