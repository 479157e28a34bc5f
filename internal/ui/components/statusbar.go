// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are shown when the bar has room.
var DefaultShortcuts = []Shortcut{
	{Key: "Enter", Desc: "send"},
	{Key: "^O", Desc: "history"},
	{Key: "^S", Desc: "settings"},
	{Key: "^P", Desc: "commands"},
	{Key: "^T", Desc: "theme"},
	{Key: "^C", Desc: "quit"},
}

// StatusBar is the bottom line: request state, pending files, settings and
// key hints.
type StatusBar struct {
	State        session.State
	Spinner      string
	Pending      int
	PendingBytes int64
	Settings     settings.Settings
	Width        int
	Shortcuts    []Shortcut
	theme        *styles.Theme
}

// NewStatusBar creates a status bar with the default shortcuts.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, Shortcuts: DefaultShortcuts, theme: theme}
}

// SetTheme swaps the theme after a light/dark change.
func (s *StatusBar) SetTheme(theme *styles.Theme) { s.theme = theme }

// SetWidth updates the bar width
func (s *StatusBar) SetWidth(width int) { s.Width = width }

// StateLabel is the indicator and text shown for a request state.
func StateLabel(state session.State) (string, lipgloss.AdaptiveColor) {
	switch state {
	case session.StateSending:
		return "Sending...", styles.Amber
	case session.StateSucceeded:
		return styles.StatusIndicators.Success + " Done", styles.Emerald
	case session.StateFailed:
		return styles.StatusIndicators.Error + " Failed", styles.Rose
	default:
		return styles.StatusIndicators.Pending + " Ready", styles.TextSecondary
	}
}

// View renders the status bar.
func (s *StatusBar) View() string {
	width := s.Width
	if width < 24 {
		width = 24
	}

	label, color := StateLabel(s.State)
	if s.State == session.StateSending && s.Spinner != "" {
		label = s.Spinner + " " + label
	}
	parts := []string{lipgloss.NewStyle().Foreground(color).Bold(true).Render(label)}

	if s.Pending > 0 {
		files := "file"
		if s.Pending > 1 {
			files = "files"
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Amber).Render(
			strconv.Itoa(s.Pending)+" "+files+" ("+humanize.IBytes(uint64(s.PendingBytes))+")"))
	}
	if s.Settings.Theme != "" {
		parts = append(parts, s.theme.Muted.Render(
			"temp "+strconv.FormatFloat(s.Settings.Temperature, 'f', -1, 64)))
	}
	left := strings.Join(parts, s.theme.Muted.Render(" | "))

	// Drop hints from the right until they fit.
	hints := s.Shortcuts
	var right string
	for len(hints) > 0 {
		right = renderShortcuts(s.theme, hints)
		if lipgloss.Width(left)+lipgloss.Width(right)+4 <= width {
			break
		}
		hints = hints[:len(hints)-1]
		right = ""
	}

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(width).MaxWidth(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderShortcuts(theme *styles.Theme, hints []Shortcut) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = theme.ShortcutKey.Render(h.Key) + " " + theme.Muted.Render(h.Desc)
	}
	return strings.Join(parts, "  ")
}
