// bnanab - chat with BnanaB from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/bnanab/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse()
	if err != nil {
		exit(err, args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cmd, args)
	stop()
	if err != nil {
		exit(err, args)
	}
}

func run(ctx context.Context, cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdHelp:
		cli.HandleHelp()
		return nil
	case cli.CmdVersion:
		return cli.HandleVersion(os.Stdout, args)
	case cli.CmdConfig:
		return cli.HandleConfig(os.Stdout, args)
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}

	if cmd == cli.CmdExport {
		return cli.HandleExport(ctx, os.Stdout, cfg, args)
	}

	rt, err := cli.NewRuntime(ctx, cfg, cli.RuntimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if cmd == cli.CmdChat {
		return cli.HandleChatCommand(ctx, rt, args)
	}
	return cli.HandleTUI(ctx, rt, args)
}

func exit(err error, args cli.Args) {
	cli.DisplayError(os.Stderr, err, args.JSON)
	os.Exit(cli.GetExitCode(err))
}
