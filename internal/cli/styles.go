// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
)

func init() {
	applyColorProfile()
}

// applyColorProfile points lipgloss at the NO_COLOR/TTY decision.
func applyColorProfile() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(16)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	InfoStyle = lipgloss.NewStyle().
			Foreground(styles.Blue)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator draws a horizontal rule, 70 wide by default.
func RenderSeparator(width ...int) string {
	w := 70
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("-", w))
}

// RenderLabel pads label to the label column.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}

// RenderNotice formats a controller notice for line output.
func RenderNotice(n session.Notice) string {
	switch n.Level {
	case session.LevelSuccess:
		return SuccessStyle.Render("[OK]") + " " + n.Text
	case session.LevelWarning:
		return WarningStyle.Render("[!]") + " " + n.Text
	case session.LevelError:
		return ErrorStyle.Render("[X]") + " " + n.Text
	}
	return InfoStyle.Render("[i]") + " " + n.Text
}
