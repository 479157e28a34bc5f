// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jeranaias/chatpad-tui/internal/attach"
	"github.com/jeranaias/chatpad-tui/internal/backend"
	"github.com/jeranaias/chatpad-tui/internal/logging"
	"github.com/jeranaias/chatpad-tui/internal/metrics"
	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/storage"
)

// DefaultImageCommands are the input prefixes routed to image generation.
var DefaultImageCommands = []string{"/image", "/img"}

// Notices shown by the controller.
const (
	NoticeEmptyImagePrompt = "Please enter a prompt for the image."
	NoticeNothingToRedo    = "Nothing to regenerate yet."
	NoticeDeleted          = "Conversation deleted."
	NoticeCleared          = "Chat history cleared."
	NoticeEnhanced         = "Prompt enhanced."
)

// Backend is the subset of *backend.Client the controller uses.
type Backend interface {
	SendMessage(ctx context.Context, req backend.SendRequest) (*backend.SendResponse, error)
	GenerateImage(ctx context.Context, prompt string) (*backend.ImageResponse, error)
	EnhancePrompt(ctx context.Context, text string, temperature float64) (string, error)
}

// Controller runs at most one backend request at a time and keeps the
// stores and the sink consistent with its results.
type Controller struct {
	client Backend
	convs  *storage.ConversationStore
	prefs  *settings.Store

	sink    atomic.Pointer[sinkHolder]
	log     *logging.Logger
	metrics *metrics.Recorder

	imageCommands []string
	attachLimit   int64

	state atomic.Int32
	ctx   *Context

	// removed holds ids deleted since the request in flight began, so a
	// late reply is not appended to them.
	removedMu  sync.Mutex
	removed    map[string]bool
	removedAll bool
}

type sinkHolder struct{ Sink }

// Option configures a Controller.
type Option func(*Controller)

// WithSink sets the event receiver.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.SetSink(s) }
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithImageCommands replaces the prefixes routed to image generation.
func WithImageCommands(cmds []string) Option {
	return func(c *Controller) {
		if len(cmds) > 0 {
			c.imageCommands = append([]string(nil), cmds...)
		}
	}
}

// WithAttachmentLimit sets the per-file size limit.
func WithAttachmentLimit(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.attachLimit = n
		}
	}
}

// New creates a controller. It loads settings, starts a fresh conversation
// and quietly records its name.
func New(client Backend, convs *storage.ConversationStore, prefs *settings.Store, opts ...Option) *Controller {
	c := &Controller{
		client:        client,
		convs:         convs,
		prefs:         prefs,
		imageCommands: DefaultImageCommands,
		attachLimit:   attach.DefaultMaxSize,
	}
	c.SetSink(Discard)
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log).Named("session")

	prefs.SetNotifier(func(msg string) {
		c.events().Notice(Notice{Level: LevelSuccess, Text: msg})
	})

	c.ctx = newContext(prefs.Load(), model.NewConversationID(), c.attachLimit)
	c.syncName(c.ctx.Snapshot().CurrentID, model.DefaultConversationName)
	return c
}

// SetSink replaces the event receiver. The TUI installs itself after the
// controller is built. It is safe to call while a request is in flight.
func (c *Controller) SetSink(s Sink) {
	if s == nil {
		s = Discard
	}
	c.sink.Store(&sinkHolder{s})
}

func (c *Controller) events() Sink {
	return c.sink.Load().Sink
}

// =============================================================================
// STATE
// =============================================================================

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	return c.State() != StateIdle
}

// Context exposes the session state.
func (c *Controller) Context() *Context { return c.ctx }

// CurrentID returns the id of the current conversation.
func (c *Controller) CurrentID() string {
	return c.ctx.Snapshot().CurrentID
}

// Settings returns the settings snapshot.
func (c *Controller) Settings() settings.Settings {
	return c.ctx.Snapshot().Settings
}

// Current returns the stored form of the current conversation, if it has
// any messages yet.
func (c *Controller) Current() (*model.Conversation, bool) {
	conv, err := c.convs.Find(c.CurrentID())
	return conv, err == nil
}

// begin claims the single request slot.
func (c *Controller) begin(op string) bool {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateSending)) {
		c.metrics.SendDropped()
		c.log.Debug("request dropped while busy", zap.String("op", op))
		return false
	}
	c.removedMu.Lock()
	c.removed = nil
	c.removedAll = false
	c.removedMu.Unlock()
	c.events().State(StateSending)
	return true
}

// finish reports the final state and releases the slot.
func (c *Controller) finish(final State) {
	c.state.Store(int32(final))
	c.events().State(final)
	c.state.Store(int32(StateIdle))
	c.events().State(StateIdle)
}

// =============================================================================
// REQUESTS
// =============================================================================

// ImagePrompt reports whether input starts with an image command and
// returns the remainder.
func (c *Controller) ImagePrompt(input string) (string, bool) {
	input = strings.TrimSpace(input)
	for _, cmd := range c.imageCommands {
		if input == cmd {
			return "", true
		}
		if strings.HasPrefix(input, cmd+" ") {
			return strings.TrimSpace(input[len(cmd):]), true
		}
	}
	return "", false
}

// SendMessage sends text with the pending attachments. Input starting with
// an image command is routed to GenerateImage instead.
func (c *Controller) SendMessage(ctx context.Context, text string) Outcome {
	if prompt, ok := c.ImagePrompt(text); ok {
		return c.GenerateImage(ctx, prompt)
	}

	text = strings.TrimSpace(text)
	if text == "" && c.ctx.Pending.Len() == 0 {
		return OutcomeNone
	}
	if !c.begin("send") {
		return OutcomeDropped
	}

	snap := c.ctx.Snapshot()
	files := c.takeAttachments()
	if text == "" && len(files) == 0 {
		c.state.Store(int32(StateIdle))
		c.events().State(StateIdle)
		return OutcomeRejected
	}

	userMsg := model.NewUserMessage(text)
	c.events().Message(render.Render(userMsg, files...))

	descriptors, err := attach.Encode(ctx, files)
	if err != nil {
		return c.fail("send", err)
	}

	resp, err := c.client.SendMessage(ctx, backend.SendRequest{
		Message:      text,
		Files:        descriptors,
		SystemPrompt: snap.Settings.SystemPrompt,
		Temperature:  snap.Settings.Temperature,
	})
	if err != nil {
		return c.fail("send", err)
	}

	botMsg := model.NewBotMessage(resp.Response)
	if c.record(snap.CurrentID, userMsg, botMsg) {
		c.events().Message(render.Render(botMsg))
	}
	c.finish(StateSucceeded)
	return OutcomeSucceeded
}

// takeAttachments empties the pending set, dropping anything over the limit.
func (c *Controller) takeAttachments() []attach.Attachment {
	var out []attach.Attachment
	for _, a := range c.ctx.Pending.Take() {
		if a.Size > c.attachLimit {
			c.metrics.AttachmentRejected()
			c.events().Notice(Notice{Level: LevelWarning, Text: attach.NoticeTooLarge})
			continue
		}
		out = append(out, a)
	}
	return out
}

// GenerateImage requests an image for prompt.
func (c *Controller) GenerateImage(ctx context.Context, prompt string) Outcome {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		c.events().Notice(Notice{Level: LevelWarning, Text: NoticeEmptyImagePrompt})
		return OutcomeRejected
	}
	if !c.begin("image") {
		return OutcomeDropped
	}

	snap := c.ctx.Snapshot()
	userMsg := model.NewImageRequest(prompt)
	c.events().Message(render.Render(userMsg))

	resp, err := c.client.GenerateImage(ctx, prompt)
	var loading *backend.LoadingError
	switch {
	case errors.As(err, &loading):
		info := model.NewInfoMessage(loading.Error())
		c.events().Message(render.Render(info))
		c.events().Notice(Notice{Level: LevelInfo, Text: loading.Error()})
		c.log.Info("image model loading")
		c.finish(StateFailed)
		return OutcomeInformational
	case err != nil:
		return c.fail("image", err)
	}

	botMsg := model.NewImageReply(resp.ImageBase64)
	if c.record(snap.CurrentID, userMsg, botMsg) {
		c.events().Message(render.Render(botMsg))
	}
	c.finish(StateSucceeded)
	return OutcomeSucceeded
}

// EnhancePrompt asks the backend to rewrite text. Nothing is persisted.
func (c *Controller) EnhancePrompt(ctx context.Context, text string) (string, Outcome) {
	text = strings.TrimSpace(text)
	if text == "" {
		c.events().Notice(Notice{Level: LevelWarning, Text: "Type a prompt to enhance first."})
		return "", OutcomeRejected
	}
	if !c.begin("enhance") {
		return "", OutcomeDropped
	}

	out, err := c.client.EnhancePrompt(ctx, text, c.Settings().Temperature)
	if err != nil {
		c.log.Warn("enhance failed", zap.Error(err))
		c.events().Notice(Notice{Level: LevelError, Text: "Could not enhance prompt: " + err.Error()})
		c.finish(StateFailed)
		return "", OutcomeFailed
	}
	c.events().Notice(Notice{Level: LevelSuccess, Text: NoticeEnhanced})
	c.finish(StateSucceeded)
	return out, OutcomeSucceeded
}

// Regenerate re-sends the last plain user message of the current
// conversation.
func (c *Controller) Regenerate(ctx context.Context) Outcome {
	conv, ok := c.Current()
	if !ok {
		c.events().Notice(Notice{Level: LevelInfo, Text: NoticeNothingToRedo})
		return OutcomeRejected
	}
	last, ok := conv.LastUserText()
	if !ok || strings.TrimSpace(last.Content) == "" {
		c.events().Notice(Notice{Level: LevelInfo, Text: NoticeNothingToRedo})
		return OutcomeRejected
	}
	return c.SendMessage(ctx, last.Content)
}

// fail emits the synthetic error reply and returns to idle.
func (c *Controller) fail(op string, err error) Outcome {
	c.log.Warn("request failed", zap.String("op", op), zap.Error(err))
	reason := err.Error()
	c.events().Message(render.Render(model.NewErrorMessage(reason)))
	c.events().Notice(Notice{Level: LevelError, Text: reason})
	c.finish(StateFailed)
	return OutcomeFailed
}

// record appends a successful exchange and syncs the title. It reports
// false, saving nothing, when id was deleted while the request was in
// flight.
func (c *Controller) record(id string, userMsg, botMsg model.Message) bool {
	c.removedMu.Lock()
	if c.removedAll || c.removed[id] {
		c.removedMu.Unlock()
		c.log.Debug("reply discarded for deleted conversation", zap.String("id", id))
		return false
	}
	conv, err := c.convs.Append(id, userMsg, botMsg)
	c.removedMu.Unlock()
	if err != nil {
		c.log.Warn("append failed", zap.String("id", id), zap.Error(err))
		c.events().Notice(Notice{Level: LevelWarning, Text: "Could not save chat history: " + err.Error()})
	}
	if conv != nil && c.CurrentID() == id {
		c.syncName(id, conv.Title)
	}
	return true
}

// syncName quietly stores name as the settings conversation name while id
// is still current.
func (c *Controller) syncName(id, name string) {
	c.ctx.mu.Lock()
	if c.ctx.currentID != id {
		c.ctx.mu.Unlock()
		return
	}
	next, err := c.prefs.SetConversationName(c.ctx.saved, name)
	c.ctx.saved = next
	c.ctx.settings.ConversationName = next.ConversationName
	c.ctx.mu.Unlock()

	if err != nil {
		c.log.Warn("persist conversation name failed", zap.Error(err))
		c.events().Notice(Notice{Level: LevelWarning, Text: "Could not save settings: " + err.Error()})
	}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// NewConversation makes a fresh, empty conversation current.
func (c *Controller) NewConversation() string {
	id := model.NewConversationID()
	c.ctx.setCurrent(id)
	c.ctx.Pending.Clear()
	c.syncName(id, model.DefaultConversationName)
	c.events().Transcript(nil)
	return id
}

// LoadConversation makes id current and replays its messages.
func (c *Controller) LoadConversation(id string) error {
	conv, err := c.convs.Find(id)
	if err != nil {
		c.events().Notice(Notice{Level: LevelWarning, Text: "Conversation not found."})
		return err
	}
	c.ctx.setCurrent(conv.ID)
	c.ctx.Pending.Clear()
	c.syncName(conv.ID, conv.Title)
	c.events().Transcript(render.Replay(conv))
	return nil
}

// DeleteConversation removes id, starting a new conversation if it was
// current.
func (c *Controller) DeleteConversation(id string) error {
	c.removedMu.Lock()
	err := c.convs.Delete(id)
	if c.removed == nil {
		c.removed = make(map[string]bool)
	}
	c.removed[id] = true
	c.removedMu.Unlock()
	if id == c.CurrentID() {
		c.NewConversation()
	}
	if err != nil {
		c.events().Notice(Notice{Level: LevelWarning, Text: "Could not save chat history: " + err.Error()})
		return err
	}
	c.events().Notice(Notice{Level: LevelSuccess, Text: NoticeDeleted})
	return nil
}

// ClearHistory deletes every conversation and starts a new one.
func (c *Controller) ClearHistory() error {
	c.removedMu.Lock()
	err := c.convs.Clear()
	c.removedAll = true
	c.removedMu.Unlock()
	c.NewConversation()
	if err != nil {
		c.events().Notice(Notice{Level: LevelWarning, Text: "Could not save chat history: " + err.Error()})
		return err
	}
	c.events().Notice(Notice{Level: LevelSuccess, Text: NoticeCleared})
	return nil
}

// RenameConversation retitles the current conversation. An unsaved
// conversation only changes its settings name.
func (c *Controller) RenameConversation(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		c.events().Notice(Notice{Level: LevelWarning, Text: "Please enter a name."})
		return errors.New("empty name")
	}
	id := c.CurrentID()
	if err := c.convs.Rename(id, title); err != nil && !errors.Is(err, storage.ErrConversationNotFound) {
		c.events().Notice(Notice{Level: LevelWarning, Text: "Could not save chat history: " + err.Error()})
		return err
	}
	c.syncName(id, title)
	return nil
}

// ReloadHistory re-reads the store after an external change.
func (c *Controller) ReloadHistory() error {
	if err := c.convs.Reload(); err != nil {
		c.log.Warn("reload history failed", zap.Error(err))
		return err
	}
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// SaveSettings validates and persists s. The store confirms with a notice.
func (c *Controller) SaveSettings(s settings.Settings) error {
	if err := c.prefs.Save(s); err != nil {
		c.events().Notice(Notice{Level: LevelWarning, Text: settingsFailure(err)})
		return err
	}
	c.ctx.setSettings(s)
	return nil
}

// UseSettings validates s and applies it to this session without saving.
// The next SaveSettings or ResetSettings replaces it.
func (c *Controller) UseSettings(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.ctx.useSettings(s)
	return nil
}

// ResetSettings restores defaults, keeping the current conversation name.
func (c *Controller) ResetSettings() (settings.Settings, error) {
	d, err := c.prefs.Reset()
	if err != nil {
		c.events().Notice(Notice{Level: LevelWarning, Text: settingsFailure(err)})
		return c.Settings(), err
	}
	c.ctx.setSettings(d)
	if conv, ok := c.Current(); ok {
		c.syncName(conv.ID, conv.Title)
	}
	return c.Settings(), nil
}

func settingsFailure(err error) string {
	var verr settings.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return fmt.Sprintf("Could not save settings: %v", err)
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// Attach adds the file at path to the pending set.
func (c *Controller) Attach(path string) (attach.Attachment, error) {
	a, err := c.ctx.Pending.AddPath(path)
	if err != nil {
		if errors.Is(err, attach.ErrTooLarge) {
			c.metrics.AttachmentRejected()
			c.events().Notice(Notice{Level: LevelWarning, Text: attach.NoticeTooLarge})
		} else {
			c.events().Notice(Notice{Level: LevelError, Text: "Could not attach file: " + err.Error()})
		}
		return attach.Attachment{}, err
	}
	return a, nil
}

// Detach removes the pending file called name.
func (c *Controller) Detach(name string) bool {
	return c.ctx.Pending.Remove(name)
}

// Pending lists the attachments waiting for the next message.
func (c *Controller) Pending() []attach.Attachment {
	return c.ctx.Pending.List()
}
