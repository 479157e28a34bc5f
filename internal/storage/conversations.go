// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatpad-tui/internal/kvstore"
	"github.com/jeranaias/chatpad-tui/internal/logging"
	"github.com/jeranaias/chatpad-tui/internal/metrics"
	"github.com/jeranaias/chatpad-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when an id is not in the history.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ErrNotPersistable rejects error/info messages, which are display-only.
var ErrNotPersistable = &ConversationError{Message: "message kind is not persistable"}

// ErrPersist wraps storage write failures. The in-memory change is kept.
var ErrPersist = errors.New("storage: could not persist history")

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

func (e *ConversationError) Error() string {
	return e.Message
}

// Is matches conversation errors by message.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// DefaultMaxConversations is the history cap when none is configured.
const DefaultMaxConversations = 20

// ConversationStore is the persisted history list.
type ConversationStore struct {
	kv  kvstore.Store
	key string

	// MaxConversations caps the list; the tail is evicted past it.
	MaxConversations int

	log     *logging.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	mu    sync.RWMutex
	convs []*model.Conversation
}

// Option configures a ConversationStore.
type Option func(*ConversationStore)

// WithMaxConversations sets the history cap.
func WithMaxConversations(n int) Option {
	return func(s *ConversationStore) {
		if n > 0 {
			s.MaxConversations = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *ConversationStore) { s.log = l }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *ConversationStore) { s.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ConversationStore) { s.now = now }
}

// NewConversationStore opens the history under key and loads it. An
// unreadable record is logged and treated as empty.
func NewConversationStore(kv kvstore.Store, key string, opts ...Option) *ConversationStore {
	s := &ConversationStore{
		kv:               kv,
		key:              key,
		MaxConversations: DefaultMaxConversations,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log).Named("storage")
	if err := s.Reload(); err != nil {
		s.log.Warn("history unreadable, starting empty", zap.Error(err))
	}
	return s
}

// Reload re-reads the history from storage, replacing the in-memory list.
// Used at startup and when another process rewrites the key.
func (s *ConversationStore) Reload() error {
	data, err := s.kv.Get(s.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		s.mu.Lock()
		s.convs = nil
		s.mu.Unlock()
		s.metrics.SetConversations(0)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	convs, err := decodeHistory(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.convs = convs
	n := len(convs)
	s.mu.Unlock()
	s.metrics.SetConversations(n)
	return nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Append records one exchange under id. A new id creates a conversation
// titled from userMsg. An existing one gets both messages appended, and
// takes its title from userMsg only if it had no messages yet. Either way
// the conversation moves to the front of the list.
func (s *ConversationStore) Append(id string, userMsg, botMsg model.Message) (*model.Conversation, error) {
	if id == "" {
		return nil, errors.New("storage: empty conversation id")
	}
	if !userMsg.EffectiveKind().Persistable() || !botMsg.EffectiveKind().Persistable() {
		return nil, ErrNotPersistable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	idx := s.indexLocked(id)

	var conv *model.Conversation
	if idx >= 0 {
		conv = s.convs[idx]
		s.convs = append(s.convs[:idx], s.convs[idx+1:]...)
	} else {
		conv = &model.Conversation{ID: id}
	}

	if len(conv.Messages) == 0 {
		conv.Title = model.TitleFrom(userMsg.Content)
	}
	conv.Messages = append(conv.Messages, userMsg, botMsg)
	conv.Timestamp = now

	s.convs = append([]*model.Conversation{conv}, s.convs...)
	s.evictLocked()

	return conv.Clone(), s.persistLocked()
}

// Rename sets an explicit title.
func (s *ConversationStore) Rename(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("storage: empty title")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrConversationNotFound
	}
	s.convs[idx].Title = title
	return s.persistLocked()
}

// Delete removes id. Deleting an absent id is not an error.
func (s *ConversationStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	s.convs = append(s.convs[:idx], s.convs[idx+1:]...)
	return s.persistLocked()
}

// Clear empties the history.
func (s *ConversationStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.convs = nil
	return s.persistLocked()
}

// evictLocked drops the tail beyond MaxConversations.
func (s *ConversationStore) evictLocked() {
	max := s.MaxConversations
	if max <= 0 || len(s.convs) <= max {
		return
	}
	for _, c := range s.convs[max:] {
		s.log.Debug("evicting conversation", zap.String("id", c.ID))
	}
	s.convs = s.convs[:max:max]
}

func (s *ConversationStore) persistLocked() error {
	s.metrics.SetConversations(len(s.convs))

	data, err := encodeHistory(s.convs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.kv.Set(s.key, data); err != nil {
		s.metrics.StorageFailure(s.key)
		s.log.Warn("persist history failed", zap.Error(err), zap.Int("bytes", len(data)))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// List returns copies of every conversation, most recent first.
func (s *ConversationStore) List() []*model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Conversation, len(s.convs))
	for i, c := range s.convs {
		out[i] = c.Clone()
	}
	return out
}

// Len returns the number of stored conversations.
func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

// Find returns a copy of conversation id.
func (s *ConversationStore) Find(id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, ErrConversationNotFound
	}
	return s.convs[idx].Clone(), nil
}

// FindPrefix resolves an id from a unique prefix, for CLI use.
func (s *ConversationStore) FindPrefix(prefix string) (*model.Conversation, error) {
	prefix = strings.ToLower(prefix)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *model.Conversation
	for _, c := range s.convs {
		if c.ID == prefix {
			return c.Clone(), nil
		}
		if strings.HasPrefix(strings.ToLower(c.ID), prefix) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous id prefix %q", prefix)
			}
			match = c
		}
	}
	if match == nil {
		return nil, ErrConversationNotFound
	}
	return match.Clone(), nil
}

// Search returns conversations whose title or any message contains query,
// case-insensitively. An empty query returns everything.
func (s *ConversationStore) Search(query string) []*model.Conversation {
	if query == "" {
		return s.List()
	}
	query = strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*model.Conversation
	for _, c := range s.convs {
		if strings.Contains(strings.ToLower(c.Title), query) {
			results = append(results, c.Clone())
			continue
		}
		for _, m := range c.Messages {
			if m.EffectiveKind() == model.KindImage {
				continue
			}
			if strings.Contains(strings.ToLower(m.Content), query) {
				results = append(results, c.Clone())
				break
			}
		}
	}
	return results
}

func (s *ConversationStore) indexLocked(id string) int {
	for i, c := range s.convs {
		if c.ID == id {
			return i
		}
	}
	return -1
}
