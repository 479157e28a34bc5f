// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the chatpad command line and runs its commands.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	if err := cli.Run(cmd, args); err != nil {
//	    cli.DisplayError(err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
//   - tui (default): full-screen chat
//   - chat: line-mode chat with input history
//   - ask, image: one request, printed and exited
//   - history, settings: the data the chat screen shows
//   - config: ~/.chatpad/config.toml
//
// Every command builds the same App (see app.go), so a reply saved by
// "chatpad ask" is in the history the full-screen chat shows next time.
// Most commands accept --json for scripting.
package cli
