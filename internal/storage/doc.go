// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatpad.
//
// The whole history is one JSON array under a single kvstore key, ordered
// most-recent-first and capped at MaxConversations (oldest evicted). The
// store keeps the decoded list in memory and rewrites the key synchronously
// on every mutation. A failed write is reported (wrapping ErrPersist) but the
// in-memory change stands, so the session keeps working on a full disk.
//
// # Key Types
//
//   - ConversationStore: the history list and its operations
//   - ConversationError: typed errors usable with errors.Is
//
// # Usage
//
//	store := storage.NewConversationStore(kv, "chatHistory",
//	    storage.WithMaxConversations(20))
//	conv, err := store.Append(id, userMsg, botMsg)
//	if errors.Is(err, storage.ErrPersist) {
//	    // warn, carry on
//	}
package storage
