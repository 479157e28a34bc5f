// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jeranaias/chatpad-tui/internal/util"
)

// TitleMaxRunes is how much of the first user message becomes the title.
const TitleMaxRunes = 50

// DefaultConversationName labels a conversation before its first exchange.
const DefaultConversationName = "New Conversation"

// Conversation is one stored chat.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// NewConversationID returns a lowercase ULID: a millisecond timestamp plus
// 80 random bits. Ids sort by creation time and are not checked for
// collisions.
func NewConversationID() string {
	return strings.ToLower(ulid.Make().String())
}

// TitleFrom derives a title from the first user message: its first 50
// characters, with "..." appended only when it was longer.
func TitleFrom(firstUserMessage string) string {
	return util.Ellipsize(firstUserMessage, TitleMaxRunes)
}

// LastBotMessage returns the most recent bot message.
func (c *Conversation) LastBotMessage() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleBot {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// LastUserText returns the most recent plain-text user message.
func (c *Conversation) LastUserText() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		m := c.Messages[i]
		if m.Role == RoleUser && m.EffectiveKind() == KindText {
			return m, true
		}
	}
	return Message{}, false
}

// Clone returns a copy whose message slice can be modified independently.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = append([]Message(nil), c.Messages...)
	return &clone
}
