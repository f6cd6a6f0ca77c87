// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for bnanab.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, a .env file, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - APIConfig: Completion endpoint settings
//   - StorageConfig, LogConfig, ExportConfig, UIConfig
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (BNANAB_*), including those set by ./.env
//   - ~/.bnanab/config.toml
//   - ~/.bnanab/config.json
//   - Built-in defaults
//
// BNANAB_HOME relocates the ~/.bnanab directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stop, err := config.Watch(ctx, path, 250*time.Millisecond, func(c *config.Config, err error) {
//	    client.SetModel(c.API.Model)
//	})
package config
