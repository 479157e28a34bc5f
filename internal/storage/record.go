// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/chatpad-tui/internal/model"
)

// =============================================================================
// WIRE FORMAT
// =============================================================================

// storedConversation mirrors model.Conversation but decodes messages lazily
// so pair-shaped legacy entries can be expanded.
type storedConversation struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Timestamp time.Time         `json:"timestamp"`
	Messages  []json.RawMessage `json:"messages"`
}

// legacyPair is the browser client's original message shape: one entry per
// exchange rather than per message.
type legacyPair struct {
	User      *string   `json:"user"`
	Bot       *string   `json:"bot"`
	Timestamp time.Time `json:"timestamp"`
}

func encodeHistory(convs []*model.Conversation) ([]byte, error) {
	if convs == nil {
		convs = []*model.Conversation{}
	}
	return json.Marshal(convs)
}

func decodeHistory(data []byte) ([]*model.Conversation, error) {
	var stored []storedConversation
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	convs := make([]*model.Conversation, 0, len(stored))
	for _, sc := range stored {
		if sc.ID == "" {
			continue
		}
		conv := &model.Conversation{ID: sc.ID, Title: sc.Title, Timestamp: sc.Timestamp}
		for _, raw := range sc.Messages {
			msgs, err := decodeMessage(raw)
			if err != nil {
				return nil, fmt.Errorf("decode conversation %s: %w", sc.ID, err)
			}
			conv.Messages = append(conv.Messages, msgs...)
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func decodeMessage(raw json.RawMessage) ([]model.Message, error) {
	var probe struct {
		Role *string `json:"role"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if probe.Role != nil {
		var m model.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return []model.Message{m}, nil
	}

	var pair legacyPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, err
	}
	var out []model.Message
	if pair.User != nil {
		out = append(out, model.Message{Role: model.RoleUser, Content: *pair.User, Timestamp: pair.Timestamp})
	}
	if pair.Bot != nil {
		out = append(out, model.Message{Role: model.RoleBot, Content: *pair.Bot, Timestamp: pair.Timestamp})
	}
	return out, nil
}
