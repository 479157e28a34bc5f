// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
)

// lineSink prints controller events as plain scrolling output for the
// non-TUI commands. The user's own message is not echoed.
type lineSink struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	term   *render.Terminal
	quiet  bool
	silent bool

	last    *render.View
	notices []session.Notice
}

func newLineSink(out, errOut io.Writer, theme settings.Theme, width int) *lineSink {
	return &lineSink{
		out:    out,
		errOut: errOut,
		term:   render.NewTerminal(themeFor(theme), width),
	}
}

func (s *lineSink) Message(v render.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.IsUser() {
		return
	}
	cp := v
	s.last = &cp
	if s.silent {
		return
	}
	fmt.Fprintln(s.out, s.term.Render(v))
	fmt.Fprintln(s.out)
}

func (s *lineSink) Transcript(views []render.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.silent || len(views) == 0 {
		return
	}
	fmt.Fprintln(s.out, s.term.Transcript(views))
	fmt.Fprintln(s.out)
}

func (s *lineSink) Notice(n session.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	if s.silent || (s.quiet && n.Level < session.LevelWarning) {
		return
	}
	fmt.Fprintln(s.errOut, RenderNotice(n))
}

func (s *lineSink) State(session.State) {}

// Last returns the most recent non-user view.
func (s *lineSink) Last() (render.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return render.View{}, false
	}
	return *s.last, true
}

// Notices returns every notice seen so far.
func (s *lineSink) Notices() []session.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]session.Notice(nil), s.notices...)
}

func (s *lineSink) setTheme(theme settings.Theme) {
	s.term.SetTheme(themeFor(theme))
}

func themeFor(t settings.Theme) *styles.Theme {
	return styles.New(t != settings.ThemeLight)
}
