// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the chatpad packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writes (temp file, fsync, rename)
//   - Ellipsize: rune-aware "first N characters plus ..." truncation used for
//     conversation titles and history previews
//   - ClipWidth: display-width truncation for terminal columns
//   - SingleLine: collapses whitespace runs so text fits a one-line cell
//
// # Usage
//
//	title := util.Ellipsize(firstMessage, 50)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
