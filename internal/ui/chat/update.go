// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/ui/components"
)

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// origin records what started a command, so its result can close the
// right panel.
type origin int

const (
	originInput origin = iota
	originKey
	originSettings
)

// resultMsg carries a dispatcher result back to the update loop.
type resultMsg struct {
	origin origin
	result commands.Result
}

// submit sends one input line through the dispatcher.
func (m Model) submit(input string) tea.Cmd {
	ctx, d := m.ctx, m.disp
	return func() tea.Msg {
		return resultMsg{origin: originInput, result: d.Submit(ctx, input)}
	}
}

// do runs a named action through the dispatcher.
func (m Model) do(o origin, action string, args ...string) tea.Cmd {
	ctx, d := m.ctx, m.disp
	return func() tea.Msg {
		return resultMsg{origin: o, result: d.Do(ctx, action, args...)}
	}
}

func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	res := msg.result
	var cmds []tea.Cmd

	if res.Err != nil {
		m.log.Debug("command failed", zap.String("action", res.Action), zap.Error(res.Err))
	}
	if res.Quit {
		return m, tea.Quit
	}
	if res.ThemeChanged {
		m.applyTheme()
	}
	if res.SetInput {
		m.input.SetValue(res.Input)
		m.input.CursorEnd()
	}

	if msg.origin == originSettings && res.Err == nil {
		cmds = append(cmds, m.closeSettings())
	}

	switch res.Open {
	case commands.PanelHistory:
		cmds = append(cmds, m.openHistory())
		m.sidebar.filter.SetValue(m.hist.Query())
	case commands.PanelSettings:
		cmds = append(cmds, m.openSettings())
	case commands.PanelHelp:
		m.showHelp = true
	}

	switch res.Action {
	case commands.ActionLoad, commands.ActionDelete, commands.ActionClearHistory, commands.ActionNew,
		commands.ActionRename, commands.ActionSend, commands.ActionImage, commands.ActionRegenerate:
		m.hist.Refresh()
		m.clampSelection()
		cmds = append(cmds, tea.SetWindowTitle("chatpad - "+m.ctl.Settings().ConversationName))
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.update(msg)
	mm := model.(Model)
	mm.syncChrome()
	mm.layout()
	return mm, cmd
}

func (m Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.rerender()
		m.refreshViewport(m.viewport.AtBottom())
		return m, nil

	case MessageMsg:
		m.appendView(msg.View)
		return m, m.sink.Listen()

	case TranscriptMsg:
		m.setTranscript(msg.Views)
		return m, m.sink.Listen()

	case NoticeMsg:
		m.toasts.Add(msg.Notice)
		return m, tea.Batch(m.sink.Listen(), m.startToastTicker())

	case StateMsg:
		prev := m.state
		m.state = msg.State
		cmds := []tea.Cmd{m.sink.Listen()}
		if msg.State == session.StateSending && prev != session.StateSending {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.state != session.StateSending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		if m.toasts.Tick() == 0 {
			m.ticking = false
			return m, nil
		}
		return m, components.ToastTickCmd()

	case components.PaletteSelectMsg:
		return m.handlePaletteSelect(msg)

	case resultMsg:
		return m.handleResult(msg)

	case storeChangedMsg:
		if msg.err != nil {
			m.log.Warn("reload after external change failed", zap.String("key", msg.key), zap.Error(msg.err))
		}
		m.hist.Refresh()
		m.clampSelection()
		return m, m.watchChanges()

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startToastTicker() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return components.ToastTickCmd()
}

func (m Model) handlePaletteSelect(msg components.PaletteSelectMsg) (tea.Model, tea.Cmd) {
	cmd := msg.Command
	for _, arg := range cmd.Args {
		if arg.Required {
			m.input.SetValue(cmd.Name + " ")
			m.input.CursorEnd()
			return m, m.focusInput()
		}
	}
	return m, tea.Batch(m.focusInput(), m.do(originKey, cmd.Action))
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// Overlays take every key while open.
	if m.showHelp {
		if key.Matches(msg, m.keys.Dismiss, m.keys.Help, m.keys.Submit) {
			m.showHelp = false
		}
		return m, nil
	}
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		if !m.palette.Visible() && cmd == nil {
			return m, m.focusInput()
		}
		return m, cmd
	}

	switch m.focus {
	case focusSettings:
		return m.handleSettingsKey(msg)
	case focusHistory:
		return m.handleHistoryKey(msg)
	case focusHistoryFilter:
		return m.handleHistoryFilterKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Complete):
		return m.completeNext(1)
	case key.Matches(msg, m.keys.CompletePrv):
		return m.completeNext(-1)
	}
	completing := m.completion.Visible
	m.completion.Clear()

	switch {
	case key.Matches(msg, m.keys.Submit):
		if completing {
			return m, nil
		}
		return m.handleSubmit()

	case key.Matches(msg, m.keys.Dismiss):
		if !completing {
			m.toasts.DismissNewest()
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Palette):
		m.input.Blur()
		return m, m.palette.Show()

	case key.Matches(msg, m.keys.History):
		if m.showHistory {
			return m, m.closeHistory()
		}
		return m, m.openHistory()

	case key.Matches(msg, m.keys.Settings):
		return m, m.openSettings()

	case key.Matches(msg, m.keys.Theme):
		return m, m.do(originKey, commands.ActionTheme)

	case key.Matches(msg, m.keys.New):
		return m, m.do(originKey, commands.ActionNew)

	case key.Matches(msg, m.keys.Copy):
		return m, m.do(originKey, commands.ActionCopy)

	case key.Matches(msg, m.keys.Regen):
		return m, m.do(originKey, commands.ActionRegenerate)

	case key.Matches(msg, m.keys.Enhance):
		text := strings.TrimSpace(m.input.Value())
		if text == "" || commands.IsCommand(text) {
			return m, nil
		}
		return m, m.do(originKey, commands.ActionEnhance, text)

	case key.Matches(msg, m.keys.QuickNext):
		if len(m.quickPrompts) > 0 {
			m.quickIndex = (m.quickIndex + 1) % len(m.quickPrompts)
			m.input.SetValue(m.quickPrompts[m.quickIndex])
			m.input.CursorEnd()
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	switch msg.Type {
	case tea.KeyUp:
		m.recallInput(1)
		return m, nil
	case tea.KeyDown:
		m.recallInput(-1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit sends the input line. Plain messages typed while a request
// is in flight stay in the input box.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" && len(m.ctl.Pending()) == 0 {
		return m, nil
	}
	_, image := m.ctl.ImagePrompt(text)
	if m.ctl.Busy() && (image || !commands.IsCommand(text)) {
		return m, nil
	}

	if text != "" {
		m.inputHistory = append(m.inputHistory, text)
		if len(m.inputHistory) > maxInputHistory {
			m.inputHistory = m.inputHistory[1:]
		}
	}
	m.recall = -1
	m.quickIndex = -1
	m.input.Reset()
	return m, m.submit(text)
}

// recallInput walks the input history; dir 1 is older.
func (m *Model) recallInput(dir int) {
	n := len(m.inputHistory)
	if n == 0 {
		return
	}
	next := m.recall + dir
	switch {
	case next < 0:
		m.recall = -1
		m.input.Reset()
		return
	case next >= n:
		next = n - 1
	}
	m.recall = next
	m.input.SetValue(m.inputHistory[n-1-next])
	m.input.CursorEnd()
}

// completeNext opens the suggestions or cycles through them.
func (m Model) completeNext(dir int) (tea.Model, tea.Cmd) {
	if !m.completion.Visible {
		value := m.input.Value()
		comps := m.completer.Complete(value, m.input.Position())
		if len(comps) == 0 {
			return m, nil
		}
		if len(comps) == 1 {
			m.input.SetValue(commands.Apply(value, comps[0].Value))
			m.input.CursorEnd()
			return m, nil
		}
		m.completion.Update(value, comps)
	} else if dir > 0 {
		m.completion.Next()
	} else {
		m.completion.Prev()
	}
	m.input.SetValue(commands.Apply(m.completion.OriginalInput, m.completion.Accept()))
	m.input.CursorEnd()
	return m, nil
}
