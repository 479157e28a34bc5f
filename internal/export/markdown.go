// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/chatpad-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown with YAML frontmatter.
// Message content is already Markdown and is written unchanged.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %s\n", escapeYAML(conv.Title))
	fmt.Fprintf(&sb, "id: %s\n", conv.ID)
	if !conv.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "updated: %s\n", conv.Timestamp.Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "messages: %d\n", len(conv.Messages))
	sb.WriteString("generator: chatpad\n")
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(conv.Title))

	for i, msg := range conv.Messages {
		label := msg.Role.DisplayName()
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		sb.WriteString(e.formatContent(msg))
		sb.WriteString("\n\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// formatContent writes image requests as a quoted prompt. Everything else,
// generated images included, is already Markdown.
func (e *MarkdownExporter) formatContent(msg model.Message) string {
	if msg.EffectiveKind() == model.KindImageRequest {
		if prompt, ok := model.ParseImageRequest(msg.Content); ok {
			return "*Image prompt:*\n\n> " + strings.ReplaceAll(prompt, "\n", "\n> ")
		}
	}
	return strings.TrimRight(msg.Content, "\n")
}

// =============================================================================
// ESCAPING
// =============================================================================

// escapeMarkdown escapes characters that would break formatting in a heading.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a frontmatter value when it holds YAML syntax.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return "\"" + s + "\""
	}
	return s
}
