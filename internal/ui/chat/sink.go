// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/session"
)

// =============================================================================
// CONTROLLER EVENTS
// =============================================================================

// MessageMsg appends one view to the transcript.
type MessageMsg struct{ View render.View }

// TranscriptMsg replaces the transcript.
type TranscriptMsg struct{ Views []render.View }

// NoticeMsg shows a toast.
type NoticeMsg struct{ Notice session.Notice }

// StateMsg reports a request state change.
type StateMsg struct{ State session.State }

// sinkBuffer is large enough that a full send (state, user view, bot view,
// notices) never waits on the update loop.
const sinkBuffer = 64

// Sink turns controller callbacks into tea messages.
type Sink struct {
	ch chan tea.Msg
}

// NewSink creates a sink. Its Listen command must be running for events to
// reach the model; New starts it from Init.
func NewSink() *Sink {
	return &Sink{ch: make(chan tea.Msg, sinkBuffer)}
}

func (s *Sink) Message(v render.View)          { s.ch <- MessageMsg{View: v} }
func (s *Sink) Transcript(views []render.View) { s.ch <- TranscriptMsg{Views: views} }
func (s *Sink) Notice(n session.Notice)        { s.ch <- NoticeMsg{Notice: n} }
func (s *Sink) State(st session.State)         { s.ch <- StateMsg{State: st} }

// Listen waits for the next controller event.
func (s *Sink) Listen() tea.Cmd {
	return func() tea.Msg { return <-s.ch }
}

var _ session.Sink = (*Sink)(nil)
