// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: one persisted chat, identified by a client-generated id
//   - Message: a single user or bot turn with an explicit Kind
//   - Kind: text, image-request, image, plus the transient error/info kinds
//     that are rendered but never stored
//
// Image exchanges are tagged with Kind. Their content also keeps the
// `Generate image: "<prompt>"` and `![Generated Image](data:...)` forms so
// older history files (which carry no kind) are still recognized.
//
// # Usage
//
//	id := model.NewConversationID()
//	user := model.NewUserMessage("Hello")
//	bot := model.NewBotMessage("Hi there")
//	title := model.TitleFrom(user.Content)
package model
