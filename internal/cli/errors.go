// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/jeranaias/chatpad-tui/internal/attach"
	"github.com/jeranaias/chatpad-tui/internal/backend"
	"github.com/jeranaias/chatpad-tui/internal/config"
	"github.com/jeranaias/chatpad-tui/internal/kvstore"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
	ExitStorageError = 6
	ExitNotFound     = 7
	ExitTimeout      = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed subcommand with its cause.
type CommandError struct {
	Command string // e.g. "history"
	Action  string // e.g. "export"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ValidationError is bad user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError is a missing conversation, key or file.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrMissingArgument reports a required argument that was not given.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// ErrUnsupportedFormat reports an unknown --format value.
func ErrUnsupportedFormat(format string, supported []string) error {
	return &ValidationError{
		Field:   "format",
		Value:   format,
		Reason:  "unsupported format",
		Example: fmt.Sprintf("supported formats: %v", supported),
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err to stderr, or as JSON on stdout in JSON mode.
func DisplayError(err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(err)
		return
	}
	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// DisplayErrorJSON writes a structured error object.
func DisplayErrorJSON(err error) {
	output := map[string]interface{}{
		"error":   err.Error(),
		"success": false,
	}

	var (
		cmdErr      *CommandError
		valErr      *ValidationError
		notFoundErr *NotFoundError
		httpErr     *backend.HTTPError
		appErr      *backend.AppError
	)
	switch {
	case errors.As(err, &valErr):
		output["error_type"] = "validation_error"
		output["field"] = valErr.Field
		output["reason"] = valErr.Reason
	case errors.As(err, &notFoundErr):
		output["error_type"] = "not_found_error"
		output["resource"] = notFoundErr.Resource
		output["id"] = notFoundErr.ID
	case errors.As(err, &httpErr):
		output["error_type"] = "http_error"
		output["status"] = httpErr.StatusCode
	case errors.As(err, &appErr):
		output["error_type"] = "backend_error"
	case errors.As(err, &cmdErr):
		output["error_type"] = "command_error"
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	default:
		output["error_type"] = "generic_error"
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

// GetExitCode maps an error to the process exit status.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		valErr      *ValidationError
		notFoundErr *NotFoundError
		cfgErrs     config.ValidateErrors
		setErr      settings.ValidationError
		httpErr     *backend.HTTPError
		urlErr      *url.Error
	)
	switch {
	case errors.As(err, &valErr), errors.As(err, &setErr), errors.Is(err, attach.ErrTooLarge),
		errors.Is(err, backend.ErrEmptyPrompt):
		return ExitUsageError
	case errors.As(err, &notFoundErr), errors.Is(err, storage.ErrConversationNotFound):
		return ExitNotFound
	case errors.As(err, &cfgErrs):
		return ExitConfigError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.As(err, &httpErr), errors.As(err, &urlErr), errors.Is(err, backend.ErrRateLimited), errors.Is(err, backend.ErrModelLoading):
		return ExitNetworkError
	case errors.Is(err, kvstore.ErrQuotaExceeded):
		return ExitStorageError
	}
	return ExitGeneralError
}
