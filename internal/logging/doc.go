// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by bnanab's packages.
//
// The terminal belongs to the UI, so logs go to a file by default
// (~/.bnanab/bnanab.log). "stderr" and "stdout" are accepted as paths.
//
//	logger, err := logging.FromConfig(cfg)
//	defer logger.Sync()
package logging
