// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/settings"
)

// =============================================================================
// SETTINGS PANEL
// =============================================================================

// Form rows, in tab order.
const (
	fieldTheme = iota
	fieldTemperature
	fieldSystemPrompt
	fieldSave
	fieldReset
	fieldCount
)

type settingsForm struct {
	row    int
	theme  settings.Theme
	temp   textinput.Model
	system textinput.Model
}

func newSettingsForm() settingsForm {
	temp := textinput.New()
	temp.CharLimit = 8
	temp.Prompt = ""
	temp.Placeholder = "0.7"

	system := textinput.New()
	system.CharLimit = 16000
	system.Prompt = ""
	system.Placeholder = "You are a helpful assistant."

	return settingsForm{temp: temp, system: system}
}

// load fills the form from the saved settings.
func (f *settingsForm) load(s settings.Settings) {
	f.row = fieldTheme
	f.theme = s.Theme
	f.temp.SetValue(strconv.FormatFloat(s.Temperature, 'f', -1, 64))
	f.system.SetValue(s.SystemPrompt)
	f.focusRow()
}

func (f *settingsForm) focusRow() tea.Cmd {
	f.temp.Blur()
	f.system.Blur()
	switch f.row {
	case fieldTemperature:
		return f.temp.Focus()
	case fieldSystemPrompt:
		return f.system.Focus()
	}
	return nil
}

// args renders the form as save-settings arguments.
func (f settingsForm) args() []string {
	return []string{
		"theme=" + string(f.theme),
		"temperature=" + strings.TrimSpace(f.temp.Value()),
		"systemPrompt=" + f.system.Value(),
	}
}

func (m *Model) openSettings() tea.Cmd {
	m.form.load(m.ctl.Settings())
	m.focus = focusSettings
	m.input.Blur()
	return nil
}

func (m *Model) closeSettings() tea.Cmd {
	m.form.temp.Blur()
	m.form.system.Blur()
	return m.focusInput()
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.form
	switch msg.String() {
	case "esc", "ctrl+s":
		return m, m.closeSettings()
	case "tab", "down":
		f.row = (f.row + 1) % fieldCount
		return m, f.focusRow()
	case "shift+tab", "up":
		f.row = (f.row + fieldCount - 1) % fieldCount
		return m, f.focusRow()
	}

	switch f.row {
	case fieldTheme:
		switch msg.String() {
		case "left", "right", " ", "enter":
			f.theme = f.theme.Toggle()
		}
		return m, nil

	case fieldSave:
		if msg.Type == tea.KeyEnter {
			return m, m.do(originSettings, commands.ActionSaveSettings, f.args()...)
		}
		return m, nil

	case fieldReset:
		if msg.Type == tea.KeyEnter {
			return m, m.do(originSettings, commands.ActionResetSettings)
		}
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		return m, m.do(originSettings, commands.ActionSaveSettings, f.args()...)
	}

	var cmd tea.Cmd
	if f.row == fieldTemperature {
		f.temp, cmd = f.temp.Update(msg)
	} else {
		f.system, cmd = f.system.Update(msg)
	}
	return m, cmd
}

func (m Model) viewSettings() string {
	f := m.form
	label := func(row int, text string) string {
		if f.row == row {
			return m.theme.PanelFocus.Render("> " + text)
		}
		return m.theme.PanelLabel.Render("  " + text)
	}
	button := func(row int, text string) string {
		style := lipgloss.NewStyle().Padding(0, 2).Foreground(m.theme.PanelLabel.GetForeground())
		if f.row == row {
			style = m.theme.SidebarSelected.Padding(0, 2)
		}
		return style.Render(text)
	}

	themeValue := "dark  [light]"
	if f.theme == settings.ThemeDark {
		themeValue = "[dark]  light"
	}

	width := 56
	if m.width-8 < width {
		width = m.width - 8
	}
	f.system.Width = width - 22
	f.temp.Width = 8

	rows := []string{
		m.theme.SidebarTitle.Render("Settings"),
		label(fieldTheme, "Theme") + themeValue,
		label(fieldTemperature, "Temperature") + f.temp.View() + m.theme.Muted.Render("  (0 to 1)"),
		label(fieldSystemPrompt, "System prompt") + f.system.View(),
		"",
		button(fieldSave, "Save") + " " + button(fieldReset, "Reset to defaults"),
		"",
		m.theme.Muted.Render("Tab move | Enter save | Esc close"),
	}
	box := m.theme.Panel.Width(width).Render(strings.Join(rows, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
