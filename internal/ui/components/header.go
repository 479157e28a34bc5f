// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the one-line title bar: brand, conversation name and backend.
type Header struct {
	Title        string
	Conversation string
	Backend      string
	Width        int
	theme        *styles.Theme
}

// NewHeader creates a header with the default brand.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: "chatpad", Width: 80, theme: theme}
}

// SetTheme swaps the theme after a light/dark change.
func (h *Header) SetTheme(theme *styles.Theme) { h.theme = theme }

// SetWidth updates the header width
func (h *Header) SetWidth(width int) { h.Width = width }

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 24 {
		width = 24
	}

	accent := lipgloss.NewStyle().Foreground(styles.Purple)
	brand := accent.Render("<") + h.theme.HeaderTitle.Render(h.Title) + accent.Render(">")

	right := ""
	if h.Backend != "" {
		right = h.theme.Muted.Render(h.Backend)
	}

	// brand, two spaces, name, at least one space, backend, padding
	room := width - lipgloss.Width(brand) - lipgloss.Width(right) - 5
	name := ""
	if room > 3 && h.Conversation != "" {
		name = lipgloss.NewStyle().Foreground(styles.TextPrimary).
			Render(util.ClipWidth(h.Conversation, room))
	}

	left := brand
	if name != "" {
		left += "  " + name
	}
	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right, gap = "", width-2-lipgloss.Width(left)
	}
	if gap < 0 {
		gap = 0
	}
	return h.theme.Header.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
