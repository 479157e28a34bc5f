// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY reports whether stdin is a terminal, i.e. whether prompts work.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	DefaultTerminalWidth = 80
	MinTerminalWidth     = 40
)

// GetTerminalWidth returns the stdout width, or DefaultTerminalWidth when it
// cannot be read.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// ColorsEnabled reports whether output should be colored. NO_COLOR wins over
// FORCE_COLOR, which wins over TTY detection.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" {
			colorsEnabled = false
			return
		}
		if os.Getenv("FORCE_COLOR") != "" {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// ForceColorsEnabled overrides detection, for --no-color and tests.
func ForceColorsEnabled(enabled bool) {
	colorsEnabledOnce = sync.Once{}
	colorsEnabledOnce.Do(func() {
		colorsEnabled = enabled
	})
	applyColorProfile()
}

// GetColorProfile returns Ascii when colors are off, otherwise what termenv
// detects.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// TTYRequiredError is returned when an interactive command has no terminal.
type TTYRequiredError struct {
	Operation string
	Hint      string
}

func (e *TTYRequiredError) Error() string {
	msg := "stdin is not a terminal; cannot " + e.Operation
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// RequiresTTY fails when stdin is not a terminal.
func RequiresTTY(operation, hint string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation, Hint: hint}
	}
	return nil
}
