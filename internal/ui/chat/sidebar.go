// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/history"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// =============================================================================
// HISTORY SIDEBAR
// =============================================================================

// ClearConfirmPrompt is shown before every conversation is deleted.
const ClearConfirmPrompt = "Are you sure you want to clear all conversation history? (y/n)"

type sidebarState struct {
	selected     int
	filter       textinput.Model
	confirmClear bool
}

func newSidebarState() sidebarState {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter"
	ti.CharLimit = 100
	return sidebarState{filter: ti}
}

func (m *Model) openHistory() tea.Cmd {
	m.showHistory = true
	m.focus = focusHistory
	m.input.Blur()
	m.hist.Refresh()
	m.sidebar.selected = 0
	for i, e := range m.hist.Visible() {
		if e.Current {
			m.sidebar.selected = i
		}
	}
	m.rerender()
	m.refreshViewport(false)
	return nil
}

func (m *Model) closeHistory() tea.Cmd {
	m.showHistory = false
	m.sidebar.confirmClear = false
	m.sidebar.filter.Blur()
	m.rerender()
	m.refreshViewport(false)
	return m.focusInput()
}

func (m *Model) focusInput() tea.Cmd {
	m.focus = focusInput
	return m.input.Focus()
}

func (m *Model) clampSelection() {
	n := len(m.hist.Visible())
	if m.sidebar.selected >= n {
		m.sidebar.selected = n - 1
	}
	if m.sidebar.selected < 0 {
		m.sidebar.selected = 0
	}
}

// selectedEntry returns the highlighted visible entry.
func (m Model) selectedEntry() (history.Entry, bool) {
	visible := m.hist.Visible()
	if m.sidebar.selected < 0 || m.sidebar.selected >= len(visible) {
		return history.Entry{}, false
	}
	return visible[m.sidebar.selected], true
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sidebar.confirmClear {
		m.sidebar.confirmClear = false
		if strings.EqualFold(msg.String(), "y") {
			return m, m.do(originKey, commands.ActionClearHistory)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.histKeys.Close):
		return m, m.closeHistory()

	case key.Matches(msg, m.histKeys.Up):
		if m.sidebar.selected > 0 {
			m.sidebar.selected--
		}

	case key.Matches(msg, m.histKeys.Down):
		if m.sidebar.selected < len(m.hist.Visible())-1 {
			m.sidebar.selected++
		}

	case key.Matches(msg, m.histKeys.Open):
		if e, ok := m.selectedEntry(); ok {
			cmd := m.focusInput()
			return m, tea.Batch(cmd, m.do(originKey, commands.ActionLoad, e.ID))
		}

	case key.Matches(msg, m.histKeys.Delete):
		if e, ok := m.selectedEntry(); ok {
			return m, m.do(originKey, commands.ActionDelete, e.ID)
		}

	case key.Matches(msg, m.histKeys.Clear):
		if m.hist.Len() > 0 {
			m.sidebar.confirmClear = true
		}

	case key.Matches(msg, m.histKeys.Filter):
		m.focus = focusHistoryFilter
		return m, m.sidebar.filter.Focus()
	}
	return m, nil
}

func (m Model) handleHistoryFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.sidebar.filter.SetValue("")
		m.hist.Filter("")
		fallthrough
	case tea.KeyEnter:
		m.sidebar.filter.Blur()
		m.focus = focusHistory
		m.sidebar.selected = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.sidebar.filter, cmd = m.sidebar.filter.Update(msg)
	m.hist.Filter(m.sidebar.filter.Value())
	m.sidebar.selected = 0
	return m, cmd
}

// viewSidebar renders the history column at width cols and height rows.
func (m Model) viewSidebar(cols, rows int) string {
	inner := cols - 2
	var b strings.Builder

	b.WriteString(m.theme.SidebarTitle.Render("History"))
	b.WriteString("\n")
	if m.focus == focusHistoryFilter || m.sidebar.filter.Value() != "" {
		m.sidebar.filter.Width = inner - 3
		b.WriteString(m.sidebar.filter.View())
		b.WriteString("\n")
	}

	if m.sidebar.confirmClear {
		b.WriteString(lipgloss.NewStyle().Width(inner).Foreground(styles.Amber).
			Render(ClearConfirmPrompt))
		b.WriteString("\n")
	}

	visible := m.hist.Visible()
	if len(visible) == 0 {
		msg := "No saved conversations"
		if m.hist.Query() != "" {
			msg = "No matches"
		}
		b.WriteString(m.theme.Muted.Italic(true).Render(msg))
	}

	// Each entry takes three lines; scroll to keep the selection visible.
	perPage := (rows - 4) / 3
	if perPage < 1 {
		perPage = 1
	}
	start := 0
	if m.sidebar.selected >= perPage {
		start = m.sidebar.selected - perPage + 1
	}
	for i := start; i < len(visible) && i < start+perPage; i++ {
		b.WriteString(m.renderEntry(visible[i], i == m.sidebar.selected && m.focus != focusInput, inner))
		b.WriteString("\n")
	}

	return m.theme.Sidebar.Width(cols - 1).Height(rows).MaxHeight(rows).Render(b.String())
}

func (m Model) renderEntry(e history.Entry, selected bool, width int) string {
	style := m.theme.SidebarItem
	switch {
	case selected:
		style = m.theme.SidebarSelected
	case e.Current:
		style = m.theme.SidebarCurrent
	}
	title := style.Render(history.Line(e, width))
	preview := m.theme.SidebarPreview.Render(util.ClipWidth(e.Preview, width))
	date := m.theme.Timestamp.Render(util.ClipWidth(e.Date, width))
	return title + "\n" + preview + "\n" + date
}
