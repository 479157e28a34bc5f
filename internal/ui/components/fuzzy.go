// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"unicode"
)

// =============================================================================
// FUZZY MATCHING
// =============================================================================

// FuzzyMatch reports whether every rune of query appears in order in target,
// case-insensitively, and scores the match. Consecutive runes, word starts
// and the first rune earn bonuses; longer targets are penalized.
//
//	"rn"  matches "rename"     (start + boundary)
//	"clh" matches "clear-history"
//	"xyz" does not match "theme"
func FuzzyMatch(query, target string) (score int, matched bool) {
	if query == "" {
		return 0, true
	}

	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(target))
	if len(q) > len(t) {
		return 0, false
	}

	qi, last := 0, -1
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		s := 1
		if last == ti-1 {
			s += 5
		}
		if ti == 0 {
			s += 10
		}
		if isWordBoundary(t, ti) {
			s += 7
		}
		score += s
		last = ti
		qi++
	}

	if qi != len(q) {
		return 0, false
	}
	return score - len(t)/4, true
}

func isWordBoundary(runes []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	if pos >= len(runes) {
		return false
	}
	prev := runes[pos-1]
	return prev == ' ' || prev == '/' || prev == '-' || prev == '_' || unicode.IsPunct(prev)
}

// HighlightMatch returns the rune positions in target that query matched.
func HighlightMatch(query, target string) []int {
	if query == "" {
		return nil
	}
	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(target))

	var positions []int
	qi := 0
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] == q[qi] {
			positions = append(positions, ti)
			qi++
		}
	}
	if qi != len(q) {
		return nil
	}
	return positions
}
