// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for bnanab.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/bnanab/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdExport
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdExport:
		return "export"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	Model      string
	Storage    string
	DataDir    string
	ConfigPath string

	// Arguments after the command name.
	Raw []string
}

const usageText = `bnanab - chat with BnanaB from your terminal

Usage:
  bnanab                        Start the full-screen interface (default)
  bnanab chat                   Line-oriented chat with slash commands
  bnanab export [chat-id]       Export chats to files
    --all                       Export every chat
    --list                      List chats instead of exporting
    --format json|markdown      Output format (default: from config)
    --output DIR                Output directory (default: from config)
    --open                      Open each file after export
  bnanab config [show|path|get|set|init]
                                Show or edit configuration
  bnanab version                Show version information
  bnanab help                   Show this help

Global flags:
  -m, --model NAME              Model to request
      --storage file|sqlite|memory
                                Storage backend
      --data-dir DIR            Storage directory
      --config FILE             Config file (default: ~/.bnanab/config.toml)
  -q, --quiet                   Minimal output
  -v, --verbose                 Debug logging
      --json                    JSON output where supported

Environment:
  BNANAB_API_KEY, BNANAB_MODEL, BNANAB_API_URL, BNANAB_STORAGE,
  BNANAB_DATA_DIR, BNANAB_LOG_LEVEL, BNANAB_LOG_FILE, BNANAB_EXPORT_DIR,
  BNANAB_HOME. A .env file in the working directory is read on start.

Chat commands:
  /new /list /select /delete /export /settings /set /mfa /logout /copy /help /quit
`

// PrintUsage prints the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// Parse parses os.Args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name).
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}
	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	name := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch name {
	case "tui":
		return CmdTUI, args, nil
	case "chat", "repl":
		return CmdChat, args, nil
	case "export":
		return CmdExport, args, nil
	case "config":
		return CmdConfig, args, nil
	case "version", "--version", "-V":
		return CmdVersion, args, nil
	case "help", "--help", "-h":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, &UsageError{Message: fmt.Sprintf("unknown command: %s", name)}
	}
}

// parseGlobalFlags strips global flags from anywhere in argv.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var args Args
	remaining := make([]string, 0, len(argv))

	value := func(i int, flag string) (string, error) {
		if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "-") {
			return "", &UsageError{Message: flag + " requires a value"}
		}
		return argv[i+1], nil
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		name, inline, hasInline := strings.Cut(arg, "=")

		target := map[string]*string{
			"-m": &args.Model, "--model": &args.Model,
			"--storage":  &args.Storage,
			"--data-dir": &args.DataDir,
			"--config":   &args.ConfigPath,
		}[name]
		if target != nil {
			if hasInline {
				*target = inline
				continue
			}
			v, err := value(i, name)
			if err != nil {
				return nil, args, err
			}
			*target = v
			i++
			continue
		}

		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args, nil
}

// ApplyOverrides applies global flags to cfg.
func (a Args) ApplyOverrides(cfg *config.Config) {
	if a.Model != "" {
		cfg.API.Model = a.Model
	}
	if a.Storage != "" {
		cfg.Storage.Backend = a.Storage
	}
	if a.DataDir != "" {
		cfg.Storage.Dir = a.DataDir
	}
	if a.Verbose {
		cfg.Log.Level = "debug"
	}
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

// VersionInfo is the JSON shape of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if args.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintf(w, "bnanab %s\n", info.Version)
	if !args.Quiet {
		fmt.Fprintf(w, "  Commit:   %s\n", info.GitCommit)
		fmt.Fprintf(w, "  Built:    %s\n", info.BuildDate)
		fmt.Fprintf(w, "  Go:       %s\n", info.GoVersion)
		fmt.Fprintf(w, "  Platform: %s\n", info.Platform)
	}
	return nil
}

// HandleHelp prints the usage text.
func HandleHelp() {
	PrintUsage()
}
