// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the Anthropic Messages API client used for chat
// completions.
//
// # Key Types
//
//   - Client: HTTP client for the Messages API with TLS 1.2+ and a bounded
//     response size
//   - Options: endpoint, model, protocol version and system prompt
//   - APIError: error shape returned by the API
//
// # Usage
//
//	client := cloud.NewClient(cloud.Options{Logger: logger})
//	reply, err := client.Complete(ctx, chat.History(), settings)
//	if errors.Is(err, cloud.ErrMissingAPIKey) {
//	    // ask the user for a key
//	}
//
// Complete never fails for transport or parse problems: the reply is then
// the fixed FallbackText and the cause is logged. A blank API key is the
// only error, and in that case no request is made.
//
// # Security
//
// API keys are never logged; a short SHA-256 fingerprint is logged instead.
package cloud
