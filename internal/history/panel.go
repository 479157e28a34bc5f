// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history projects the conversation store into the sidebar list.
//
// A Panel holds one Entry per stored conversation, most recent first.
// Filtering hides entries rather than removing them, so clearing the query
// restores the full list without another read of the store.
package history

import (
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// PreviewRunes bounds the preview text.
const PreviewRunes = 50

// DateLayout formats the last-update date.
const DateLayout = "Jan 2, 2006 3:04 PM"

// Entry is one row of the panel.
type Entry struct {
	ID       string
	Title    string
	Updated  time.Time
	Date     string
	Relative string
	Preview  string
	Messages int

	Current bool
	Hidden  bool
}

// Source lists conversations, most recent first.
type Source interface {
	List() []*model.Conversation
}

// Controller performs the actions the panel delegates.
type Controller interface {
	CurrentID() string
	LoadConversation(id string) error
	DeleteConversation(id string) error
	ClearHistory() error
}

// Panel is the history list state.
type Panel struct {
	mu      sync.RWMutex
	src     Source
	ctl     Controller
	now     func() time.Time
	entries []Entry
	query   string
}

// NewPanel creates a panel and takes its first snapshot.
func NewPanel(src Source, ctl Controller) *Panel {
	p := &Panel{src: src, ctl: ctl, now: time.Now}
	p.Refresh()
	return p
}

// Refresh rebuilds the entries from the store and reapplies the filter.
func (p *Panel) Refresh() []Entry {
	convs := p.src.List()
	current := p.ctl.CurrentID()
	now := p.now()

	entries := make([]Entry, 0, len(convs))
	for _, c := range convs {
		entries = append(entries, project(c, current, now))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = entries
	p.applyLocked()
	return append([]Entry(nil), p.entries...)
}

func project(c *model.Conversation, current string, now time.Time) Entry {
	title := c.Title
	if title == "" {
		title = model.DefaultConversationName
	}
	e := Entry{
		ID:       c.ID,
		Title:    title,
		Updated:  c.Timestamp,
		Date:     c.Timestamp.Local().Format(DateLayout),
		Relative: humanize.RelTime(c.Timestamp, now, "ago", "from now"),
		Messages: len(c.Messages),
		Current:  c.ID == current,
	}
	if last, ok := c.LastBotMessage(); ok {
		e.Preview = render.PreviewMessage(last, PreviewRunes)
	}
	return e
}

// Entries returns every entry, hidden ones included.
func (p *Panel) Entries() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Entry(nil), p.entries...)
}

// Visible returns the entries matching the filter.
func (p *Panel) Visible() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		if !e.Hidden {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries, hidden ones included.
func (p *Panel) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Query returns the active filter.
func (p *Panel) Query() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.query
}

// Filter hides entries whose title and preview do not contain query,
// ignoring case and Unicode normalization form. It returns how many remain
// visible.
func (p *Panel) Filter(query string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = query
	return p.applyLocked()
}

func (p *Panel) applyLocked() int {
	q := fold(strings.TrimSpace(p.query))
	visible := 0
	for i := range p.entries {
		e := &p.entries[i]
		e.Hidden = q != "" &&
			!strings.Contains(fold(e.Title), q) &&
			!strings.Contains(fold(e.Preview), q)
		if !e.Hidden {
			visible++
		}
	}
	return visible
}

func fold(s string) string {
	return norm.NFC.String(cases.Fold().String(norm.NFC.String(s)))
}

// Select loads id into the session.
func (p *Panel) Select(id string) error {
	if err := p.ctl.LoadConversation(id); err != nil {
		return err
	}
	p.Refresh()
	return nil
}

// Delete removes id and refreshes.
func (p *Panel) Delete(id string) error {
	err := p.ctl.DeleteConversation(id)
	p.Refresh()
	return err
}

// ClearAll removes every conversation and starts a new one.
func (p *Panel) ClearAll() error {
	err := p.ctl.ClearHistory()
	p.Refresh()
	return err
}

// Line formats e for a fixed-width list: title, relative time, padded to
// width columns.
func Line(e Entry, width int) string {
	if width <= 0 {
		return ""
	}
	suffix := " " + e.Relative
	titleWidth := width - len(suffix)
	if titleWidth < 8 {
		return util.PadWidth(util.ClipWidth(e.Title, width), width)
	}
	return util.PadWidth(util.ClipWidth(e.Title, titleWidth), titleWidth) + suffix
}
