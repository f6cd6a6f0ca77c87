// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jeranaias/bnanab/internal/model"
	"github.com/jeranaias/bnanab/internal/util"
)

// FallbackTitle is exported when a chat has no title.
const FallbackTitle = "Chat"

var (
	// ErrNoChat is returned when there is no chat to export.
	ErrNoChat = errors.New("no chat selected to export")

	// ErrUnknownFormat is returned by ForFormat.
	ErrUnknownFormat = errors.New("unknown export format")
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the exported snapshot of one chat.
type Document struct {
	Title      string          `json:"title"`
	Messages   []model.Message `json:"messages"`
	ExportedAt time.Time       `json:"exportedAt"`
}

// NewDocument snapshots chat at the given time.
func NewDocument(chat *model.Chat, exportedAt time.Time) *Document {
	title := chat.Title
	if title == "" {
		title = FallbackTitle
	}
	return &Document{
		Title:      title,
		Messages:   chat.History(),
		ExportedAt: exportedAt.UTC(),
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for chat exporters.
type Exporter interface {
	// Export converts a document to the target format.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeTimestamps adds per-message times to Markdown output.
	IncludeTimestamps bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ForFormat returns the exporter for "json" or "markdown" ("md").
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch format {
	case "", "json":
		return NewJSONExporter(opts), nil
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// FileName returns chat-export-<unix-millis><ext>.
func FileName(at time.Time, ext string) string {
	return fmt.Sprintf("chat-export-%d%s", at.UnixMilli(), ext)
}

// ExportToFile exports chat to a new file and returns its path.
func ExportToFile(chat *model.Chat, exporter Exporter, opts *Options) (string, error) {
	if chat == nil {
		return "", ErrNoChat
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	at := opts.now()
	content, err := exporter.Export(NewDocument(chat, at))
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, FileName(at, exporter.FileExtension()))
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		// Non-fatal: the file was still written.
		_ = openFile(outputPath)
	}

	return outputPath, nil
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
