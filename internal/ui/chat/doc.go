// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the Bubble Tea front end for chatpad.

The model owns only presentation state. Every user action goes through a
commands.Dispatcher inside a tea.Cmd, and controller output comes back
through a session.Sink that feeds a channel drained by the update loop.

# Layout

	header       brand, conversation name, backend
	sidebar      history panel (Ctrl+O), left of the transcript
	transcript   viewport of rendered messages
	toasts       transient notices
	chips        pending attachments
	input        single line with Tab completion
	status bar   request state, spinner and key hints

Overlays: the settings panel (Ctrl+S), the command palette (Ctrl+P) and
help (F1 or /help).

# Usage

	sink := chat.NewSink()
	ctl := session.New(client, convs, prefs, session.WithSink(sink))
	m := chat.New(chat.Options{Session: ctl, Dispatcher: d, History: panel, Sink: sink})
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
*/
package chat
