// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands maps user actions and slash commands to the session.
//
// Every action the UI can take (send, new, load, theme, export, ...) is a
// named entry in the Registry. Slash commands are aliases for those entries,
// so a key binding and a typed command run the same handler. Handlers return
// a framework-free Result; the TUI and the REPL each decide how to show it.
//
// # Usage
//
//	reg := commands.NewRegistry()
//	d := commands.NewDispatcher(reg, env)
//	res := d.Submit(ctx, "/theme light")
//	res = d.Do(ctx, commands.ActionNew)
package commands
