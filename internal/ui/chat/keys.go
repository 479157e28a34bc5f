// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the chat screen bindings.
type KeyMap struct {
	Submit      key.Binding
	Complete    key.Binding
	CompletePrv key.Binding
	Dismiss     key.Binding
	Quit        key.Binding

	History   key.Binding
	Settings  key.Binding
	Palette   key.Binding
	Help      key.Binding
	Theme     key.Binding
	New       key.Binding
	Copy      key.Binding
	Regen     key.Binding
	Enhance   key.Binding
	QuickNext key.Binding

	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

// DefaultKeyMap returns the default bindings. Plain letters are left to the
// input line, so every action uses a control key.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "send")),
		Complete:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "complete")),
		CompletePrv: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("S-Tab", "previous completion")),
		Dismiss:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "close / dismiss")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")),

		History:   key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("C-o", "history")),
		Settings:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("C-s", "settings")),
		Palette:   key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("C-p", "command palette")),
		Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "help")),
		Theme:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("C-t", "toggle theme")),
		New:       key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("C-n", "new conversation")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("C-y", "copy last reply")),
		Regen:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("C-r", "regenerate")),
		Enhance:   key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("C-e", "enhance prompt")),
		QuickNext: key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("C-k", "next quick prompt")),

		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("PgUp", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("PgDn", "scroll down")),
		Top:      key.NewBinding(key.WithKeys("ctrl+home"), key.WithHelp("C-Home", "top")),
		Bottom:   key.NewBinding(key.WithKeys("ctrl+end"), key.WithHelp("C-End", "bottom")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.History, k.Settings, k.Palette, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Complete, k.CompletePrv, k.Enhance, k.QuickNext},
		{k.New, k.History, k.Regen, k.Copy},
		{k.Settings, k.Theme, k.Palette, k.Help},
		{k.PageUp, k.PageDown, k.Top, k.Bottom, k.Dismiss, k.Quit},
	}
}

// HistoryKeyMap binds keys inside the history sidebar.
type HistoryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Delete key.Binding
	Clear  key.Binding
	Filter key.Binding
	Close  key.Binding
}

// DefaultHistoryKeyMap returns the sidebar bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "previous")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "next")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "open")),
		Delete: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Clear:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "clear all")),
		Filter: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Close:  key.NewBinding(key.WithKeys("esc", "ctrl+o"), key.WithHelp("Esc", "close")),
	}
}
