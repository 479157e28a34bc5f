// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/chatpad-tui/internal/model"
)

// JSONExporter writes the conversation record exactly as history stores it,
// so an export can be read back with encoding/json.
type JSONExporter struct{}

func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	return json.MarshalIndent(conv, "", "  ")
}

func (e *JSONExporter) FileExtension() string {
	return ".json"
}

func (e *JSONExporter) MimeType() string {
	return "application/json"
}
