// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	switch {
	case m.showHelp:
		return m.viewHelp()
	case m.palette.Visible():
		return m.palette.View(m.theme)
	case m.focus == focusSettings:
		return m.viewSettings()
	}

	parts := []string{m.header.View(), m.viewBody()}

	if m.toasts.Len() > 0 {
		parts = append(parts, components.RenderToasts(m.theme, m.toasts.Toasts(), m.width))
	}
	if chips := m.viewChips(); chips != "" {
		parts = append(parts, chips)
	}
	if m.popup.Visible() {
		parts = append(parts, m.popup.View())
	}
	parts = append(parts,
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.statusBar.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// viewBody is the transcript, with the history column when open.
func (m Model) viewBody() string {
	body := m.viewport.View()
	if !m.showHistory {
		return body
	}
	sidebar := m.viewSidebar(m.sidebarCols(), m.viewport.Height)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
}

// viewChips lists the pending attachments on one line.
func (m Model) viewChips() string {
	pending := m.ctl.Pending()
	if len(pending) == 0 {
		return ""
	}
	chips := make([]string, 0, len(pending))
	for _, a := range pending {
		chips = append(chips, m.theme.AttachChip.Render(a.Label()))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, chips...)
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

func (m Model) viewHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Keys"))
	b.WriteString("\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(m.theme.SidebarTitle.Render("Commands"))
	b.WriteString("\n")
	b.WriteString(commands.HelpText(m.disp.Registry()))
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("Esc to close"))

	box := m.theme.Panel.MaxWidth(m.width).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
