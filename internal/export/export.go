// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter turns a conversation into a document.
type Exporter interface {
	// Export returns the document bytes.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension includes the leading dot.
	FileExtension() string

	MimeType() string
}

var (
	// ErrNilConversation is returned when there is nothing to export.
	ErrNilConversation = errors.New("conversation is nil")

	// ErrUnknownFormat is returned by For.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Formats lists the names accepted by For.
var Formats = []string{"md", "json", "html"}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// For returns the exporter for a format name. "markdown" is accepted as an
// alias for "md".
func For(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Filename is the default file name for conv: its title and a short id.
func Filename(conv *model.Conversation, exp Exporter) string {
	id := conv.ID
	if len(id) > 8 {
		id = id[:8]
	}
	name := "chatpad-" + sanitizeFilename(conv.Title)
	if id != "" {
		name += "-" + id
	}
	return name + exp.FileExtension()
}

// ToFile exports conv into dir under Filename and returns the path.
func ToFile(conv *model.Conversation, exp Exporter, dir string) (string, error) {
	if conv == nil {
		return "", ErrNilConversation
	}
	path := filepath.Join(dir, Filename(conv, exp))
	if err := WriteFile(path, conv, exp); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile exports conv to path, replacing any existing file atomically.
func WriteFile(path string, conv *model.Conversation, exp Exporter) error {
	content, err := exp.Export(conv)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in file names on
// Windows or Unix and caps the length at 40 runes.
func sanitizeFilename(s string) string {
	const maxLen = 40
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "conversation"
	}
	return string(out)
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("January 2, 2006 at 3:04 PM")
}

func formatShortTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
