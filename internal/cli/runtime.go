// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Opens config, logging, storage and the app for a command.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/bnanab/internal/app"
	"github.com/jeranaias/bnanab/internal/cloud"
	"github.com/jeranaias/bnanab/internal/config"
	"github.com/jeranaias/bnanab/internal/export"
	"github.com/jeranaias/bnanab/internal/logging"
	"github.com/jeranaias/bnanab/internal/session"
	"github.com/jeranaias/bnanab/internal/storage"
)

// RuntimeOptions adjusts NewRuntime.
type RuntimeOptions struct {
	// ReadOnly opens storage without taking the writer lock.
	ReadOnly bool
	// Logger replaces the configured logger.
	Logger *zap.Logger
}

// Runtime is everything a command needs, opened from one configuration.
type Runtime struct {
	Config  *config.Config
	Logger  *zap.Logger
	Storage storage.Adapter
	Client  *cloud.Client
	App     *app.App
}

// NewRuntime opens storage and loads the persisted session.
func NewRuntime(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.FromConfig(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
			logger = logging.Nop()
		}
	}

	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	adapter, err := storage.Open(storage.Options{
		Backend:  cfg.Storage.Backend,
		Dir:      dir,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		if errors.Is(err, storage.ErrLocked) {
			return nil, fmt.Errorf("another bnanab is using %s: %w", dir, err)
		}
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	client := cloud.NewClient(cloud.Options{
		BaseURL:          cfg.API.BaseURL,
		Model:            cfg.API.Model,
		Version:          cfg.API.Version,
		SystemPrompt:     cfg.API.SystemPrompt,
		Timeout:          time.Duration(cfg.API.TimeoutSecs) * time.Second,
		MaxResponseBytes: cfg.API.MaxResponseBytes,
		Logger:           logger,
	})

	a := app.New(app.Options{
		Store:        session.NewStore(adapter, logger),
		Client:       client,
		Logger:       logger,
		APIKey:       cfg.API.APIKey,
		ExportFormat: cfg.Export.Format,
		ExportOptions: &export.Options{
			OutputDir:         cfg.Export.Dir,
			IncludeTimestamps: true,
		},
	})
	a.Start(ctx)

	logger.Debug("runtime ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("dir", dir),
		zap.Bool("read_only", opts.ReadOnly),
		zap.Bool("signed_in", a.Store().IsAuthenticated()),
	)

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Storage: adapter,
		Client:  client,
		App:     a,
	}, nil
}

// Close releases storage and flushes the logger.
func (r *Runtime) Close() error {
	err := r.Storage.Close()
	_ = r.Logger.Sync()
	return err
}

// LoadConfig loads the config file named by args (or the default one) and
// applies flag overrides.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil && !args.Quiet {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
	}

	args.ApplyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ConfigFile returns the file LoadConfig reads for args.
func ConfigFile(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}
