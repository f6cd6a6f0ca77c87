// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation for bnanab.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)     Show the effective configuration (API key redacted)
//   path               Print the config file location
//   get KEY            Print one value, e.g. api.model
//   set KEY VALUE      Change one value in the config file
//   keys               List settable keys
//   init               Write a default config file
//
// Examples:
//   bnanab config
//   bnanab config get storage.backend
//   bnanab config set api.model claude-3-5-haiku-20241022
//   bnanab config set log.level debug
//   bnanab config init --force

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/bnanab/internal/config"
)

// HandleConfig runs the config command.
func HandleConfig(w io.Writer, args Args) error {
	p := NewArgParser(args.Raw, "force", "json")
	jsonOut := args.JSON || p.BoolFlag("json")

	path, err := ConfigFile(args)
	if err != nil {
		return err
	}

	switch sub := p.Subcommand(); sub {
	case "", "show":
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		if jsonOut {
			fmt.Fprintln(w, cfg.String())
			return nil
		}
		return showConfig(w, cfg, path)

	case "path":
		fmt.Fprintln(w, path)
		return nil

	case "keys":
		for _, key := range config.GetAllKeys() {
			fmt.Fprintln(w, key)
		}
		return nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return &UsageError{Message: "usage: bnanab config get KEY"}
		}
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		v, err := cfg.Get(key)
		if err != nil {
			return &UsageError{Message: err.Error()}
		}
		if key == "api.api_key" {
			v = redact(fmt.Sprint(v))
		}
		fmt.Fprintln(w, v)
		return nil

	case "set":
		key, value := p.Positional(1), p.Positional(2)
		if key == "" || p.PositionalCount() < 3 {
			return &UsageError{Message: "usage: bnanab config set KEY VALUE"}
		}
		return setConfigValue(w, path, key, value, args.Quiet)

	case "init":
		if _, err := os.Stat(path); err == nil && !p.BoolFlag("force") {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return err
		}
		if !args.Quiet {
			fmt.Fprintf(w, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
		}
		return nil

	default:
		return &UsageError{Message: fmt.Sprintf("unknown config subcommand: %s", sub)}
	}
}

// setConfigValue edits the file itself, so environment overrides are not
// written back.
func setConfigValue(w io.Writer, path, key, value string, quiet bool) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return &UsageError{Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	if !quiet {
		shown := value
		if key == "api.api_key" {
			shown = redact(value)
		}
		fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, shown)
	}
	return nil
}

func showConfig(w io.Writer, cfg *config.Config, path string) error {
	fmt.Fprintln(w, TitleStyle.Render("bnanab configuration"))
	fmt.Fprintln(w, DimStyle.Render(path))
	fmt.Fprintln(w, RenderSeparator(40))

	for _, key := range config.GetAllKeys() {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		s := fmt.Sprint(v)
		if key == "api.api_key" {
			s = redact(s)
		}
		if s == "" {
			s = DimStyle.Render("(unset)")
		}
		fmt.Fprintf(w, "%s %s\n", DimStyle.Render(fmt.Sprintf("%-24s", key)), ValueStyle.Render(s))
	}
	return nil
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}
