// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/render"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a single HTML page with embedded CSS.
// Message bodies come from the sanitized HTML of render.Replay, and images
// stay inline as data URLs.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(conv.Title))
	sb.WriteString("    <meta name=\"generator\" content=\"chatpad\">\n")
	if !conv.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", conv.Timestamp.Format(time.RFC3339))
	}
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", e.theme())
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString(e.renderHeader(conv))

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, v := range render.Replay(conv) {
		sb.WriteString(e.renderView(v))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            Exported from chatpad on %s\n", formatTimestamp(time.Now()))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) theme() string {
	if e.options.Theme == "light" {
		return "light"
	}
	return "dark"
}

func (e *HTMLExporter) renderHeader(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(conv.Title))
	sb.WriteString("            <div class=\"metadata\">\n")
	if !conv.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\">Updated %s</span>\n",
			html.EscapeString(formatTimestamp(conv.Timestamp)))
	}
	fmt.Fprintf(&sb, "                <span class=\"meta-item\">%d messages</span>\n", len(conv.Messages))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderView(v render.View) string {
	class := "bot-message"
	if v.IsUser() {
		class = "user-message"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "            <article class=\"message %s\">\n", class)
	sb.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(v.Role.DisplayName()))
	if e.options.IncludeTimestamps && !v.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n",
			html.EscapeString(formatShortTimestamp(v.Timestamp)))
	}
	sb.WriteString("                </div>\n")
	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.formatContent(v))
	sb.WriteString("\n                </div>\n")
	sb.WriteString("            </article>\n")
	return sb.String()
}

func (e *HTMLExporter) formatContent(v render.View) string {
	switch v.Kind {
	case model.KindImageRequest:
		return "<p class=\"prompt\"><em>Image prompt:</em> " + html.EscapeString(v.Prompt) + "</p>"
	case model.KindImage:
		if v.Image == nil {
			return "<p class=\"error\">[" + render.ImageAlt + " (unreadable)]</p>"
		}
		return fmt.Sprintf("<img class=\"generated\" src=\"%s\" alt=\"%s\">",
			html.EscapeString(v.Image.DataURL), render.ImageAlt)
	}
	return v.HTML
}

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --user-bg: #1f2335;
            --bot-bg: #24283b;
            --code-bg: #1a1b26;
            --accent-blue: #7aa2f7;
            --accent-green: #9ece6a;
            --accent-red: #f7768e;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --user-bg: #f6f8fa;
            --bot-bg: #ffffff;
            --code-bg: #f6f8fa;
            --accent-blue: #0366d6;
            --accent-green: #22863a;
            --accent-red: #d73a49;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 900px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header { padding: 32px; background: var(--bg-tertiary); border-bottom: 2px solid var(--border-color); }
        .header h1 { font-size: 28px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-muted); }

        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 20px; padding: 16px 20px; border-radius: 8px; border: 1px solid var(--border-color); }
        .user-message { background: var(--user-bg); border-left: 4px solid var(--accent-blue); }
        .bot-message { background: var(--bot-bg); border-left: 4px solid var(--accent-green); }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 8px; }
        .role-label { font-weight: 600; }
        .timestamp { font-size: 12px; color: var(--text-muted); }
        .message-content p { margin-bottom: 12px; }
        .message-content p:last-child { margin-bottom: 0; }

        .message-content pre {
            background: var(--code-bg);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 12px;
            margin: 12px 0;
            overflow-x: auto;
        }
        .message-content code { font-family: var(--font-mono); font-size: 14px; }
        .message-content img.generated { max-width: 100%; border-radius: 6px; }
        .prompt { color: var(--text-muted); }
        .error { color: var(--accent-red); }

        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); border-top: 1px solid var(--border-color); }

        @media print {
            body { padding: 0; }
            .container { border-radius: 0; }
            .message { break-inside: avoid; }
        }
    </style>
`
