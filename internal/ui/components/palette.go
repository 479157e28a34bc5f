// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// =============================================================================
// COMMAND PALETTE
// =============================================================================

// CommandPalette is an overlay for finding slash commands by fuzzy search.
type CommandPalette struct {
	input    textinput.Model
	registry *commands.Registry
	filtered []scoredCommand
	selected int
	width    int
	height   int
	visible  bool
	maxItems int

	recent    []string
	maxRecent int
}

type scoredCommand struct {
	command *commands.Command
	score   int
}

// PaletteSelectMsg is sent when a command is picked.
type PaletteSelectMsg struct {
	Command *commands.Command
}

// NewCommandPalette creates a hidden palette over registry.
func NewCommandPalette(registry *commands.Registry) *CommandPalette {
	ti := textinput.New()
	ti.Placeholder = "Type a command..."
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	cp := &CommandPalette{
		input:     ti,
		registry:  registry,
		maxItems:  10,
		maxRecent: 5,
	}
	cp.updateFiltered()
	return cp
}

// Update handles keys while the palette is open.
func (cp *CommandPalette) Update(msg tea.Msg) (*CommandPalette, tea.Cmd) {
	if !cp.visible {
		return cp, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			cp.Hide()
			return cp, nil
		case "enter":
			if cmd := cp.Selected(); cmd != nil {
				cp.remember(cmd.Name)
				cp.Hide()
				return cp, func() tea.Msg { return PaletteSelectMsg{Command: cmd} }
			}
			return cp, nil
		case "up", "ctrl+p", "shift+tab":
			cp.move(-1)
			return cp, nil
		case "down", "ctrl+n", "tab":
			cp.move(1)
			return cp, nil
		}
	}

	prev := cp.input.Value()
	var cmd tea.Cmd
	cp.input, cmd = cp.input.Update(msg)
	if cp.input.Value() != prev {
		cp.updateFiltered()
		cp.selected = 0
	}
	return cp, cmd
}

func (cp *CommandPalette) move(delta int) {
	n := len(cp.filtered)
	if n == 0 {
		return
	}
	cp.selected = (cp.selected + delta + n) % n
}

// Selected returns the highlighted command, or nil.
func (cp *CommandPalette) Selected() *commands.Command {
	if cp.selected < 0 || cp.selected >= len(cp.filtered) {
		return nil
	}
	return cp.filtered[cp.selected].command
}

// SetQuery replaces the filter text.
func (cp *CommandPalette) SetQuery(q string) {
	cp.input.SetValue(q)
	cp.updateFiltered()
	cp.selected = 0
}

// Matches returns the names of the filtered commands in display order.
func (cp *CommandPalette) Matches() []string {
	names := make([]string, len(cp.filtered))
	for i, sc := range cp.filtered {
		names[i] = sc.command.Name
	}
	return names
}

// View renders the palette, or "" when hidden.
func (cp *CommandPalette) View(theme *styles.Theme) string {
	if !cp.visible {
		return ""
	}

	boxWidth := 60
	if cp.width > 0 && cp.width-10 < boxWidth {
		boxWidth = cp.width - 10
	}
	if boxWidth < 36 {
		boxWidth = 36
	}
	inner := boxWidth - 6

	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(strings.Repeat("-", inner))
	cp.input.Width = inner - 2

	var rows []string
	for i, sc := range cp.filtered {
		if i == cp.maxItems {
			rows = append(rows, theme.Muted.Italic(true).Render(
				"  ... "+strconv.Itoa(len(cp.filtered)-cp.maxItems)+" more"))
			break
		}
		rows = append(rows, cp.renderItem(sc.command, i == cp.selected, inner))
	}
	if len(cp.filtered) == 0 {
		rows = append(rows, theme.Muted.Italic(true).Render("No matching commands"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.SidebarTitle.UnsetMarginBottom().Render("Commands"),
		sep,
		cp.input.View(),
		sep,
		strings.Join(rows, "\n"),
		"",
		theme.Muted.Render("Up/Down navigate | Enter select | Esc close"),
	)
	box := theme.Panel.Width(boxWidth).Render(content)

	if cp.width > 0 && cp.height > 0 {
		return lipgloss.Place(cp.width, cp.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (cp *CommandPalette) renderItem(cmd *commands.Command, selected bool, width int) string {
	indicator := "  "
	if selected {
		indicator = "> "
	}

	// Matched runes of the name are underlined.
	query := strings.TrimPrefix(strings.TrimSpace(cp.input.Value()), "/")
	hits := map[int]bool{}
	for _, p := range HighlightMatch(query, strings.TrimPrefix(cmd.Name, "/")) {
		hits[p+1] = true
	}
	nameStyle := lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	var name strings.Builder
	for i, r := range []rune(cmd.Name) {
		if hits[i] {
			name.WriteString(nameStyle.Underline(true).Render(string(r)))
		} else {
			name.WriteString(nameStyle.Render(string(r)))
		}
	}

	mark := ""
	if cp.isRecent(cmd.Name) {
		mark = lipgloss.NewStyle().Foreground(styles.Emerald).Render(" *")
	}

	used := lipgloss.Width(indicator) + lipgloss.Width(cmd.Name) + lipgloss.Width(mark) + 2
	desc := lipgloss.NewStyle().Foreground(styles.TextMuted).
		Render(util.ClipWidth(cmd.Description, width-used))

	item := indicator + name.String() + mark + "  " + desc
	if selected {
		return lipgloss.NewStyle().Background(styles.SelectionBg).Width(width).Render(item)
	}
	return item
}

func (cp *CommandPalette) updateFiltered() {
	cp.filtered = nil
	if cp.registry == nil {
		return
	}
	filter := strings.TrimPrefix(strings.TrimSpace(cp.input.Value()), "/")

	for _, cmd := range cp.registry.All() {
		if cmd.Hidden || cmd.Name == "" {
			continue
		}

		best, ok := 0, filter == ""
		if filter != "" {
			if s, m := FuzzyMatch(filter, strings.TrimPrefix(cmd.Name, "/")); m {
				best, ok = s, true
			}
			for _, alias := range cmd.Aliases {
				if s, m := FuzzyMatch(filter, strings.TrimPrefix(alias, "/")); m && (!ok || s > best) {
					best, ok = s, true
				}
			}
			// Description hits rank below any name hit.
			if s, m := FuzzyMatch(filter, cmd.Description); m && !ok {
				best, ok = s/2, true
			}
		}
		if !ok {
			continue
		}
		if i := cp.recentIndex(cmd.Name); i >= 0 {
			best += 100 - i
		}
		cp.filtered = append(cp.filtered, scoredCommand{command: cmd, score: best})
	}

	sort.SliceStable(cp.filtered, func(i, j int) bool {
		return cp.filtered[i].score > cp.filtered[j].score
	})
}

func (cp *CommandPalette) recentIndex(name string) int {
	for i, r := range cp.recent {
		if r == name {
			return i
		}
	}
	return -1
}

func (cp *CommandPalette) isRecent(name string) bool { return cp.recentIndex(name) >= 0 }

func (cp *CommandPalette) remember(name string) {
	if i := cp.recentIndex(name); i >= 0 {
		cp.recent = append(cp.recent[:i], cp.recent[i+1:]...)
	}
	cp.recent = append([]string{name}, cp.recent...)
	if len(cp.recent) > cp.maxRecent {
		cp.recent = cp.recent[:cp.maxRecent]
	}
}

// Show opens the palette with an empty filter.
func (cp *CommandPalette) Show() tea.Cmd {
	cp.visible = true
	cp.input.Reset()
	cp.updateFiltered()
	cp.selected = 0
	return cp.input.Focus()
}

// Hide closes the palette.
func (cp *CommandPalette) Hide() {
	cp.visible = false
	cp.input.Blur()
}

// Visible reports whether the palette is open.
func (cp *CommandPalette) Visible() bool { return cp.visible }

// SetSize sets the area the palette is centered in.
func (cp *CommandPalette) SetSize(width, height int) {
	cp.width = width
	cp.height = height
}
