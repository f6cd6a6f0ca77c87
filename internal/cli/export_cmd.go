// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - Export command implementation for bnanab.
//
// Command: export [chat-id]
// Short:   Export chats to JSON or Markdown files
//
// Examples:
//   bnanab export                       Export the most recent chat
//   bnanab export 0190b6c2-...          Export one chat
//   bnanab export --all --format md     Export every chat as Markdown
//   bnanab export --list                List chats
//   bnanab export --output ~/backup     Write files to a directory
//
// Flags:
//   --all              Export every chat
//   --list             List chats instead of exporting
//   --format FORMAT    json, markdown or md
//   --output DIR       Output directory
//   --open             Open the file after export
//   --json             Print results as JSON

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/bnanab/internal/config"
	"github.com/jeranaias/bnanab/internal/export"
	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/session"
)

// ExportResult is the JSON shape of one exported chat.
type ExportResult struct {
	ChatID string `json:"chat_id"`
	Title  string `json:"title"`
	Path   string `json:"path"`
}

// ChatSummary is the JSON shape of one listed chat.
type ChatSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
	Created  string `json:"created"`
}

// HandleExport runs the export command. Storage is opened read-only so a
// running chat session is not disturbed.
func HandleExport(ctx context.Context, w io.Writer, cfg *config.Config, args Args) error {
	p := NewArgParser(args.Raw, "all", "list", "open", "json")
	if dir := p.Flag("output", "o"); dir != "" {
		cfg.Export.Dir = dir
	}
	format := p.FlagOrDefault("format", cfg.Export.Format)
	if f := p.Flag("f"); f != "" {
		format = f
	}
	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		return &UsageError{Message: err.Error()}
	}
	jsonOut := args.JSON || p.BoolFlag("json")

	// Nothing is sent, and a seeded key could not be saved read-only.
	cfg.API.APIKey = ""
	rt, err := NewRuntime(ctx, cfg, RuntimeOptions{ReadOnly: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	store := rt.App.Store()
	if !store.IsAuthenticated() {
		return fmt.Errorf("%w: run bnanab and sign in first", session.ErrNotAuthenticated)
	}
	chats := store.Chats()

	if p.BoolFlag("list") {
		return listChats(w, chats, jsonOut)
	}

	var ids []string
	switch {
	case p.BoolFlag("all"):
		for _, c := range chats {
			ids = append(ids, c.ID)
		}
	case p.Positional(0) != "":
		ids = p.PositionalFrom(0)
	case len(chats) > 0:
		ids = []string{chats[0].ID}
	}
	if len(ids) == 0 {
		return export.ErrNoChat
	}

	// File names carry the export time in milliseconds; each chat gets its
	// own millisecond so a batch never overwrites itself.
	start := time.Now()
	results := make([]ExportResult, 0, len(ids))
	for i, id := range ids {
		chat, ok := store.Chat(id)
		if !ok {
			return &NotFoundError{Resource: "chat", ID: id}
		}
		at := start.Add(time.Duration(i) * time.Millisecond)
		path, err := export.ExportToFile(chat, exporter, &export.Options{
			OutputDir:         cfg.Export.Dir,
			OpenAfterExport:   p.BoolFlag("open"),
			IncludeTimestamps: true,
			Now:               func() time.Time { return at },
		})
		if err != nil {
			return err
		}
		results = append(results, ExportResult{ChatID: id, Title: chat.Title, Path: path})
	}

	if jsonOut {
		return writeJSON(w, results)
	}
	for _, r := range results {
		if args.Quiet {
			fmt.Fprintln(w, r.Path)
			continue
		}
		fmt.Fprintf(w, "%s %s -> %s\n", SuccessStyle.Render("[OK]"), r.Title, r.Path)
	}
	return nil
}

func listChats(w io.Writer, chats []*model.Chat, jsonOut bool) error {
	if jsonOut {
		out := make([]ChatSummary, 0, len(chats))
		for _, c := range chats {
			out = append(out, ChatSummary{
				ID:       c.ID,
				Title:    c.Title,
				Messages: c.MessageCount(),
				Created:  c.CreatedAt.Format(time.RFC3339),
			})
		}
		return writeJSON(w, out)
	}

	if len(chats) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No chats yet."))
		return nil
	}
	for _, c := range chats {
		fmt.Fprintf(w, "%s  %s %s\n", DimStyle.Render(c.ID), c.Title,
			DimStyle.Render(fmt.Sprintf("(%d messages)", c.MessageCount())))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
