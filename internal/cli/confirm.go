// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// stdin is where confirmations are read. Tests replace it.
var stdin io.Reader = os.Stdin

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// ConfirmFlag is set when --confirm (or -y) was passed.
	ConfirmFlag bool
	// JSONMode forbids interactive prompts.
	JSONMode bool
	// Interactive reports whether prompting is possible. Nil means IsTTY.
	Interactive func() bool
}

// RequireConfirmation asks before a destructive action.
//
//  1. --confirm proceeds without asking.
//  2. JSON mode and non-terminal stdin require --confirm.
//  3. Otherwise the user is asked, defaulting to no.
func RequireConfirmation(action string, opts ConfirmationOptions) (bool, error) {
	if opts.ConfirmFlag {
		return true, nil
	}
	if opts.JSONMode {
		return false, errors.New("confirmation required: use --confirm in JSON mode")
	}
	interactive := opts.Interactive
	if interactive == nil {
		interactive = IsTTY
	}
	if !interactive() {
		return false, errors.New("confirmation required but stdin is not a terminal; use --confirm")
	}

	fmt.Fprintf(stdout, "Are you sure you want to %s? [y/N]: ", action)
	input, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && input == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}

// ShowCancellationMessage prints the standard cancellation line.
func ShowCancellationMessage() {
	fmt.Fprintln(stdout, DimStyle.Render("Cancelled."))
}
