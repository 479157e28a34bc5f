// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns stored messages into structured views.
//
// Render is pure: the same message always yields the same View. A View holds
// the raw markdown, sanitized HTML, a plain-text rendition, any fenced code
// blocks and, for image replies, the decoded image. Terminal draws views for
// the TUI and the REPL using glamour and lipgloss.
package render
