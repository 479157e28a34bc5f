// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/chatpad-tui/internal/render"

// State is the request lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateSending
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome reports how one operation ended.
type Outcome int

const (
	// OutcomeNone means there was nothing to do.
	OutcomeNone Outcome = iota
	// OutcomeDropped means another request was in flight.
	OutcomeDropped
	// OutcomeRejected means local validation failed before any request.
	OutcomeRejected
	OutcomeSucceeded
	OutcomeFailed
	// OutcomeInformational means the backend asked us to wait (model loading).
	OutcomeInformational
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeDropped:
		return "dropped"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeInformational:
		return "informational"
	default:
		return "unknown"
	}
}

// Level grades a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient user-visible message (a toast in the TUI).
type Notice struct {
	Level Level
	Text  string
}

// Sink receives controller output. Methods may be called from any goroutine.
type Sink interface {
	// Message appends one rendered message to the transcript.
	Message(view render.View)
	// Transcript replaces the whole transcript (new or loaded conversation).
	Transcript(views []render.View)
	Notice(n Notice)
	State(s State)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Message(render.View)      {}
func (discard) Transcript([]render.View) {}
func (discard) Notice(Notice)            {}
func (discard) State(State)              {}
