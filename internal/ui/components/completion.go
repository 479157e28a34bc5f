// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// =============================================================================
// COMPLETION POPUP COMPONENT
// =============================================================================

// CompletionPopup draws the suggestions held by a commands.CompletionState.
type CompletionPopup struct {
	state      *commands.CompletionState
	maxVisible int
	width      int
}

// NewCompletionPopup creates a popup over state.
func NewCompletionPopup(state *commands.CompletionState) *CompletionPopup {
	return &CompletionPopup{state: state, maxVisible: 8, width: 56}
}

// SetWidth sets the popup width.
func (c *CompletionPopup) SetWidth(width int) {
	if width > 72 {
		width = 72
	}
	c.width = width
}

// Visible reports whether there is anything to draw.
func (c *CompletionPopup) Visible() bool {
	return c.state != nil && c.state.Visible && len(c.state.Completions) > 0
}

// window returns the slice of suggestions to draw around the selection.
func (c *CompletionPopup) window() (int, int) {
	n := len(c.state.Completions)
	if n <= c.maxVisible {
		return 0, n
	}
	start := c.state.Selected - c.maxVisible/2
	if start < 0 {
		start = 0
	}
	end := start + c.maxVisible
	if end > n {
		end = n
		start = end - c.maxVisible
	}
	return start, end
}

// View renders the popup, or "" when hidden.
func (c *CompletionPopup) View() string {
	if !c.Visible() {
		return ""
	}

	start, end := c.window()
	items := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		items = append(items, c.renderItem(c.state.Completions[i], i == c.state.Selected))
	}
	if hidden := len(c.state.Completions) - (end - start); hidden > 0 {
		items = append(items, lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).
			Render("  "+strconv.Itoa(hidden)+" more"))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Cyan).
		Padding(0, 1).
		Width(c.width).
		Render(strings.Join(items, "\n"))
}

func (c *CompletionPopup) renderItem(comp commands.Completion, selected bool) string {
	const valueWidth = 22
	descWidth := c.width - valueWidth - 6
	if descWidth < 0 {
		descWidth = 0
	}

	value := comp.Display
	if value == "" {
		value = comp.Value
	}
	value = util.PadWidth(util.ClipWidth(value, valueWidth), valueWidth)
	desc := util.ClipWidth(comp.Description, descWidth)

	valueStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	indicator := "  "
	if selected {
		indicator = "> "
		valueStyle = valueStyle.Background(styles.Cyan).Foreground(styles.TextInverse).Bold(true)
		descStyle = descStyle.Foreground(styles.TextPrimary)
	}
	return lipgloss.NewStyle().Foreground(styles.Cyan).Render(indicator) +
		valueStyle.Render(value) + " " + descStyle.Render(desc)
}

// ViewCompact renders a one-line hint for narrow terminals.
func (c *CompletionPopup) ViewCompact() string {
	if !c.Visible() {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	if len(c.state.Completions) == 1 {
		return style.Render(`Tab: complete "` + c.state.Completions[0].Value + `"`)
	}
	return style.Render("Tab: " + strconv.Itoa(len(c.state.Completions)) + " completions")
}
