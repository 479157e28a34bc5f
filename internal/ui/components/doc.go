// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the chatpad screen.

  - Header (header.go): brand, conversation name and backend host.
  - StatusBar (statusbar.go): request state, pending attachments and key hints.
  - ToastManager (toast.go): transient notices that expire on their own.
  - CompletionPopup (completion.go): Tab suggestions for slash commands.
  - CommandPalette (palette.go): fuzzy command search, opened with Ctrl+P.

Components hold no application state of their own beyond what they draw;
the chat model copies values into them before each render.
*/
package components
