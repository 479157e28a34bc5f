// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended by Ellipsize when text is cut.
const Ellipsis = "..."

// Ellipsize keeps the first n runes of s and appends "..." only when
// something was cut. Unlike a width-bounded truncation the result may be
// up to n+3 runes long.
func Ellipsize(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + Ellipsis
}

// ClipWidth truncates s to at most width terminal columns, accounting for
// wide (CJK, emoji) characters. A "…" tail marks truncation.
func ClipWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// PadWidth right-pads s with spaces to exactly width columns, clipping first
// when it is too wide.
func PadWidth(s string, width int) string {
	s = ClipWidth(s, width)
	return runewidth.FillRight(s, width)
}

// SingleLine collapses every run of whitespace (newlines included) into one
// space and trims the ends.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
