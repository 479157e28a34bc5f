// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
)

const minWidth = 24

// Terminal draws views as styled terminal text.
type Terminal struct {
	mu    sync.Mutex
	theme *styles.Theme
	width int
	md    *glamour.TermRenderer
}

// NewTerminal creates a renderer for theme wrapping at width columns.
func NewTerminal(theme *styles.Theme, width int) *Terminal {
	t := &Terminal{theme: theme, width: clampWidth(width)}
	t.rebuild()
	return t
}

// Theme returns the active theme.
func (t *Terminal) Theme() *styles.Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.theme
}

// SetTheme switches the color scheme.
func (t *Terminal) SetTheme(theme *styles.Theme) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.theme = theme
	t.rebuild()
}

// SetWidth changes the wrap width.
func (t *Terminal) SetWidth(width int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if w := clampWidth(width); w != t.width {
		t.width = w
		t.rebuild()
	}
}

func clampWidth(w int) int {
	if w < minWidth {
		return minWidth
	}
	return w
}

// rebuild recreates the glamour renderer. Callers hold mu.
func (t *Terminal) rebuild() {
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(t.theme.GlamourStyle()),
		glamour.WithWordWrap(t.bodyWidth()),
	)
	if err != nil {
		md = nil
	}
	t.md = md
}

func (t *Terminal) bodyWidth() int {
	return t.width - 8
}

// Markdown renders md with glamour, falling back to the raw text.
func (t *Terminal) Markdown(md string) string {
	t.mu.Lock()
	r := t.md
	t.mu.Unlock()
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// Render draws one view: a header line, the body and attachment chips.
func (t *Terminal) Render(v View) string {
	theme := t.Theme()

	var header string
	if v.IsUser() {
		header = theme.RoleUser.Render(v.Role.DisplayName())
	} else {
		header = theme.RoleBot.Render(v.Role.DisplayName())
	}
	if !v.Timestamp.IsZero() {
		header += " " + theme.Timestamp.Render(v.Timestamp.Local().Format("15:04"))
	}

	var body string
	switch v.Kind {
	case model.KindImageRequest:
		body = theme.ImageBadge.Render("image") + " " + v.Prompt
	case model.KindImage:
		body = theme.ImageBadge.Render("image") + " " + imageCaption(v.Image)
	case model.KindError:
		body = theme.ErrorBubble.Render(v.Markdown)
	case model.KindInfo:
		body = theme.InfoBubble.Render(v.Markdown)
	default:
		body = t.Markdown(v.Markdown)
	}

	width := t.bodyWidth()
	switch v.Kind {
	case model.KindError, model.KindInfo:
	default:
		if v.IsUser() {
			body = theme.UserBubble.MaxWidth(width + 6).Render(body)
		} else {
			body = theme.BotBubble.MaxWidth(width + 6).Render(body)
		}
	}

	parts := []string{header, body}
	if len(v.Attachments) > 0 {
		chips := make([]string, 0, len(v.Attachments))
		for _, c := range v.Attachments {
			chips = append(chips, theme.AttachChip.Render(c.Label))
		}
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, chips...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Transcript draws views separated by blank lines.
func (t *Terminal) Transcript(views []View) string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, t.Render(v))
	}
	return strings.Join(out, "\n\n")
}

func imageCaption(img *ImageRef) string {
	if img == nil {
		return ImageAlt + " (unreadable)"
	}
	return ImageAlt + " (" + img.MIME + ", " + humanize.IBytes(uint64(img.Size())) + ")"
}
