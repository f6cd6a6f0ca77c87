// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across bnanab.
//
// # Key Functions
//
// String Utilities:
//   - ClipRunes: keep the first N characters and mark the cut with a suffix
//   - TruncateRunes: UTF-8 safe truncation that fits the ellipsis inside N
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.ClipRunes(input, 50, "...")
//	err := util.AtomicWriteFile(path, data, 0600)
package util
