// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat to a file.
//
// Export is one-directional: ParseJSON exists so callers can verify an
// export, but nothing imports chats back into a session.
//
// # Key Types
//
//   - Document: the exported snapshot {title, messages, exportedAt}
//   - Exporter: format interface (JSON, Markdown)
//   - Options: output directory and formatting switches
//
// # Usage
//
//	path, err := export.ExportToFile(chat, export.NewJSONExporter(nil), opts)
//
// Files are named chat-export-<unix-millis><ext>.
package export
