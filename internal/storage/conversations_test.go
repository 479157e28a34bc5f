// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatpad-tui/internal/kvstore"
	"github.com/jeranaias/chatpad-tui/internal/model"
)

const historyKey = "chatHistory"

// fakeClock advances one second per call so ordering is deterministic.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T, opts ...Option) (*ConversationStore, *kvstore.MemoryStore) {
	t.Helper()
	kv := kvstore.NewMemoryStore(0)
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewConversationStore(kv, historyKey, opts...), kv
}

func exchange(user, bot string) (model.Message, model.Message) {
	return model.NewUserMessage(user), model.NewBotMessage(bot)
}

// =============================================================================
// APPEND
// =============================================================================

func TestAppend_CreatesConversation(t *testing.T) {
	s, _ := newStore(t)

	u, b := exchange("Hello", "Hi there")
	conv, err := s.Append("c1", u, b)
	require.NoError(t, err)

	assert.Equal(t, "c1", conv.ID)
	assert.Equal(t, "Hello", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, model.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "Hello", conv.Messages[0].Content)
	assert.Equal(t, model.RoleBot, conv.Messages[1].Role)
	assert.Equal(t, "Hi there", conv.Messages[1].Content)
}

func TestAppend_TitleTruncation(t *testing.T) {
	s, _ := newStore(t)

	long := strings.Repeat("a", 80)
	u, b := exchange(long, "ok")
	conv, err := s.Append("c1", u, b)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 50)+"...", conv.Title)

	fifty := strings.Repeat("b", 50)
	u, b = exchange(fifty, "ok")
	conv, err = s.Append("c2", u, b)
	require.NoError(t, err)
	assert.Equal(t, fifty, conv.Title, "no ellipsis when nothing was cut")
}

func TestAppend_ExistingKeepsTitleAndMovesToFront(t *testing.T) {
	s, _ := newStore(t)

	u, b := exchange("first question", "a1")
	_, err := s.Append("c1", u, b)
	require.NoError(t, err)
	u, b = exchange("other chat", "a2")
	_, err = s.Append("c2", u, b)
	require.NoError(t, err)

	before, err := s.Find("c1")
	require.NoError(t, err)

	u, b = exchange("second question", "a3")
	conv, err := s.Append("c1", u, b)
	require.NoError(t, err)

	assert.Equal(t, "first question", conv.Title)
	assert.Len(t, conv.Messages, 4)
	assert.True(t, conv.Timestamp.After(before.Timestamp))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ID, "most recently updated first")
	assert.Equal(t, "c2", list[1].ID)
}

func TestAppend_RejectsDisplayOnlyMessages(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Append("c1", model.NewUserMessage("hi"), model.NewErrorMessage("boom"))
	assert.ErrorIs(t, err, ErrNotPersistable)
	assert.Equal(t, 0, s.Len())
}

func TestAppend_EvictsBeyondCap(t *testing.T) {
	s, _ := newStore(t)

	for i := 0; i < 21; i++ {
		u, b := exchange(fmt.Sprintf("q%d", i), "a")
		_, err := s.Append(fmt.Sprintf("c%02d", i), u, b)
		require.NoError(t, err)
	}

	list := s.List()
	require.Len(t, list, 20)
	assert.Equal(t, "c20", list[0].ID)
	_, err := s.Find("c00")
	assert.ErrorIs(t, err, ErrConversationNotFound, "oldest is evicted")
}

func TestAppend_CustomCap(t *testing.T) {
	s, _ := newStore(t, WithMaxConversations(2))
	for _, id := range []string{"a", "b", "c"} {
		u, b := exchange(id, id)
		_, err := s.Append(id, u, b)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.Len())
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestPersistence_RoundTrip(t *testing.T) {
	s, kv := newStore(t)

	u1, b1 := exchange("Hello\nwith newline", "**bold** reply")
	_, err := s.Append("c1", u1, b1)
	require.NoError(t, err)
	_, err = s.Append("c1", model.NewImageRequest("a red cube"), model.NewImageReply("QUJD"))
	require.NoError(t, err)

	reopened := NewConversationStore(kv, historyKey)
	conv, err := reopened.Find("c1")
	require.NoError(t, err)

	require.Len(t, conv.Messages, 4)
	assert.Equal(t, "Hello\nwith newline", conv.Messages[0].Content)
	assert.Equal(t, "**bold** reply", conv.Messages[1].Content)
	assert.Equal(t, model.KindImageRequest, conv.Messages[2].Kind)
	assert.Equal(t, `Generate image: "a red cube"`, conv.Messages[2].Content)
	assert.Equal(t, model.KindImage, conv.Messages[3].Kind)
	assert.Equal(t, u1.ID, conv.Messages[0].ID)
}

func TestPersistence_FailureKeepsMemoryState(t *testing.T) {
	s, kv := newStore(t)
	kv.FailWrites = kvstore.ErrQuotaExceeded

	u, b := exchange("Hello", "Hi")
	conv, err := s.Append("c1", u, b)
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, kvstore.ErrQuotaExceeded)
	require.NotNil(t, conv)

	found, err := s.Find("c1")
	require.NoError(t, err, "in-memory state is not rolled back")
	assert.Equal(t, "Hello", found.Title)
}

func TestReload_CorruptHistory(t *testing.T) {
	kv := kvstore.NewMemoryStore(0)
	require.NoError(t, kv.Set(historyKey, []byte("not json")))

	s := NewConversationStore(kv, historyKey)
	assert.Equal(t, 0, s.Len())
	assert.Error(t, s.Reload())
}

func TestReload_LegacyPairFormat(t *testing.T) {
	kv := kvstore.NewMemoryStore(0)
	legacy := `[{"id":"lx3k9a2b","title":"Hello","timestamp":"2024-05-01T10:00:00.000Z",
		"messages":[{"user":"Hello","bot":"Hi there","timestamp":"2024-05-01T10:00:00.000Z"},
		            {"user":"Generate image: \"cat\"","bot":"![Generated Image](data:image/png;base64,AA)","timestamp":"2024-05-01T10:01:00.000Z"}]}]`
	require.NoError(t, kv.Set(historyKey, []byte(legacy)))

	s := NewConversationStore(kv, historyKey)
	conv, err := s.Find("lx3k9a2b")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, model.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "Hi there", conv.Messages[1].Content)
	assert.Equal(t, model.KindImageRequest, conv.Messages[2].EffectiveKind())
	assert.Equal(t, model.KindImage, conv.Messages[3].EffectiveKind())
}

func TestReload_PicksUpExternalWrite(t *testing.T) {
	s, kv := newStore(t)
	u, b := exchange("mine", "a")
	_, err := s.Append("c1", u, b)
	require.NoError(t, err)

	other := []*model.Conversation{{ID: "z9", Title: "theirs", Messages: []model.Message{model.NewUserMessage("theirs")}}}
	data, err := json.Marshal(other)
	require.NoError(t, err)
	require.NoError(t, kv.Set(historyKey, data))

	require.NoError(t, s.Reload())
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "z9", list[0].ID)
}

// =============================================================================
// QUERIES AND DELETION
// =============================================================================

func TestFind_NotFound(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Find("nope")
	assert.True(t, errors.Is(err, ErrConversationNotFound))
}

func TestFind_ReturnsCopy(t *testing.T) {
	s, _ := newStore(t)
	u, b := exchange("Hello", "Hi")
	_, err := s.Append("c1", u, b)
	require.NoError(t, err)

	conv, err := s.Find("c1")
	require.NoError(t, err)
	conv.Messages[0].Content = "mutated"
	conv.Title = "mutated"

	again, err := s.Find("c1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", again.Title)
	assert.Equal(t, "Hello", again.Messages[0].Content)
}

func TestDelete(t *testing.T) {
	s, kv := newStore(t)
	u, b := exchange("Hello", "Hi")
	_, err := s.Append("c1", u, b)
	require.NoError(t, err)

	require.NoError(t, s.Delete("c1"))
	_, err = s.Find("c1")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	require.NoError(t, s.Delete("c1"), "second delete is a no-op")
	require.NoError(t, s.Delete("never-existed"))

	raw, err := kv.Get(historyKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestClear(t *testing.T) {
	s, kv := newStore(t)
	for _, id := range []string{"a", "b"} {
		u, b := exchange(id, id)
		_, err := s.Append(id, u, b)
		require.NoError(t, err)
	}
	require.NoError(t, s.Clear())
	assert.Empty(t, s.List())

	raw, err := kv.Get(historyKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestRename(t *testing.T) {
	s, _ := newStore(t)
	u, b := exchange("Hello", "Hi")
	_, err := s.Append("c1", u, b)
	require.NoError(t, err)

	require.NoError(t, s.Rename("c1", "  Greetings  "))
	conv, _ := s.Find("c1")
	assert.Equal(t, "Greetings", conv.Title)

	assert.ErrorIs(t, s.Rename("missing", "x"), ErrConversationNotFound)
	assert.Error(t, s.Rename("c1", "   "))

	// A later exchange does not override an explicit name.
	u, b = exchange("another", "reply")
	conv, err = s.Append("c1", u, b)
	require.NoError(t, err)
	assert.Equal(t, "Greetings", conv.Title)
}

func TestSearch(t *testing.T) {
	s, _ := newStore(t)
	u, b := exchange("Tell me about Go", "Go is a language")
	_, _ = s.Append("go", u, b)
	u, b = exchange("Recipe please", "Bake the BREAD at 200C")
	_, _ = s.Append("bread", u, b)
	_, _ = s.Append("img", model.NewImageRequest("sunset"), model.NewImageReply("Z28="))

	assert.Len(t, s.Search(""), 3)

	res := s.Search("bread")
	require.Len(t, res, 1)
	assert.Equal(t, "bread", res[0].ID)

	res = s.Search("TELL ME")
	require.Len(t, res, 1)
	assert.Equal(t, "go", res[0].ID)

	res = s.Search("sunset")
	require.Len(t, res, 1)
	assert.Equal(t, "img", res[0].ID)

	assert.Empty(t, s.Search("base64"), "image payloads are not searched")
}

func TestFindPrefix(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []string{"01hzx1", "01hzx2", "02abc"} {
		u, b := exchange(id, id)
		_, _ = s.Append(id, u, b)
	}

	conv, err := s.FindPrefix("02")
	require.NoError(t, err)
	assert.Equal(t, "02abc", conv.ID)

	_, err = s.FindPrefix("01hzx")
	assert.Error(t, err)

	_, err = s.FindPrefix("99")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

// =============================================================================
// LISTING
// =============================================================================

func TestFormatList(t *testing.T) {
	assert.Equal(t, "No conversations found.", FormatList(nil))

	out := FormatList([]*model.Conversation{{ID: "01hzxabc", Title: "Line one\nline two", Messages: make([]model.Message, 4)}})
	assert.Contains(t, out, "01hzxabc")
	assert.Contains(t, out, "Line one line two")
}
