// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/chatpad-tui/internal/model"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
	Command   string      `json:"command,omitempty"`
}

// NewJSONResponse wraps a successful result.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse wraps a failure.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response to stdout, indented.
func (r *JSONResponse) Print() error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// VersionData is printed by version --json.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// ConversationSummary is one row of history list --json.
type ConversationSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Updated  time.Time `json:"updated"`
	Messages int       `json:"messages"`
	Preview  string    `json:"preview,omitempty"`
}

// AskData is printed by ask --json.
type AskData struct {
	ConversationID string `json:"conversation_id"`
	Outcome        string `json:"outcome"`
	Response       string `json:"response"`
	DurationMs     int64  `json:"duration_ms"`
}

// ImageData is printed by image --json.
type ImageData struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Outcome        string `json:"outcome"`
	MIME           string `json:"mime,omitempty"`
	Bytes          int    `json:"bytes"`
	Path           string `json:"path,omitempty"`
	Message        string `json:"message,omitempty"`
}

func summarize(c *model.Conversation, preview string) ConversationSummary {
	return ConversationSummary{
		ID:       c.ID,
		Title:    c.Title,
		Updated:  c.Timestamp,
		Messages: len(c.Messages),
		Preview:  preview,
	}
}
