// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role is who sent a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

func (r Role) String() string {
	return string(r)
}

// DisplayName returns the label shown above a message.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleBot:
		return "Bot"
	default:
		return string(r)
	}
}

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind says how a message should be rendered.
type Kind string

const (
	KindText         Kind = "text"
	KindImageRequest Kind = "image-request"
	KindImage        Kind = "image"

	// KindError and KindInfo are synthetic bot messages. They are shown to
	// the user and never written to history.
	KindError Kind = "error"
	KindInfo  Kind = "info"
)

// Persistable reports whether messages of this kind belong in history.
func (k Kind) Persistable() bool {
	return k != KindError && k != KindInfo
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one turn of a conversation.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps a message with a fresh id and the current time.
func NewMessage(role Role, kind Kind, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, KindText, content)
}

func NewBotMessage(content string) Message {
	return NewMessage(RoleBot, KindText, content)
}

// NewImageRequest builds the user half of an image exchange.
func NewImageRequest(prompt string) Message {
	return NewMessage(RoleUser, KindImageRequest, ImageRequestContent(prompt))
}

// NewImageReply builds the bot half of an image exchange from base64 PNG data.
func NewImageReply(base64PNG string) Message {
	return NewMessage(RoleBot, KindImage, ImageMarkdown("image/png", base64PNG))
}

// ErrorPrefix starts every synthetic error reply.
const ErrorPrefix = "Sorry, I encountered an error: "

// NewErrorMessage builds the bot reply shown when a request fails.
func NewErrorMessage(reason string) Message {
	return NewMessage(RoleBot, KindError, ErrorPrefix+reason)
}

// NewInfoMessage builds an informational bot reply (for example "model is
// loading").
func NewInfoMessage(text string) Message {
	return NewMessage(RoleBot, KindInfo, text)
}

// EffectiveKind returns Kind, inferring it from content for records written
// before the field existed.
func (m Message) EffectiveKind() Kind {
	if m.Kind != "" {
		return m.Kind
	}
	switch {
	case m.Role == RoleUser && strings.HasPrefix(m.Content, imageRequestPrefix):
		return KindImageRequest
	case m.Role == RoleBot && strings.HasPrefix(m.Content, imageMarkdownPrefix):
		return KindImage
	default:
		return KindText
	}
}

// IsImageExchange reports whether m is either half of an image exchange.
func (m Message) IsImageExchange() bool {
	k := m.EffectiveKind()
	return k == KindImageRequest || k == KindImage
}

// =============================================================================
// IMAGE CONTENT FORMS
// =============================================================================

const (
	imageRequestPrefix  = `Generate image: "`
	imageMarkdownPrefix = "![Generated Image]("
)

// ImageRequestContent is the stored user content for an image prompt.
func ImageRequestContent(prompt string) string {
	return imageRequestPrefix + prompt + `"`
}

// ParseImageRequest extracts the prompt from ImageRequestContent output.
func ParseImageRequest(content string) (string, bool) {
	if !strings.HasPrefix(content, imageRequestPrefix) || !strings.HasSuffix(content, `"`) ||
		len(content) < len(imageRequestPrefix)+1 {
		return "", false
	}
	return content[len(imageRequestPrefix) : len(content)-1], true
}

// ImageMarkdown is the stored bot content for a generated image.
func ImageMarkdown(mime, base64Data string) string {
	return imageMarkdownPrefix + "data:" + mime + ";base64," + base64Data + ")"
}

// ParseImageMarkdown returns the data URL embedded by ImageMarkdown.
func ParseImageMarkdown(content string) (string, bool) {
	if !strings.HasPrefix(content, imageMarkdownPrefix) || !strings.HasSuffix(content, ")") {
		return "", false
	}
	return content[len(imageMarkdownPrefix) : len(content)-1], true
}
