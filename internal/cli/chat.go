// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-mode chat for terminals where the full-screen UI is
// unwanted (screen readers, tmux logs, dumb terminals).
//
// Command: chat
// Short:   Line-mode chat with input history
//
// Every slash command of the full-screen chat works here too; panels are
// printed instead of opened. Ctrl+C cancels a request in flight and exits
// at the prompt. Ctrl+D, /quit and "exit" leave the chat.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/config"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one prompted line. io.EOF ends the chat.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI opens the terminal and loads ~/.chatpad/chat_history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	c.LoadHistory()
	return c
}

// LoadHistory loads previous input lines.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput prompts for a line. Ctrl+C at the prompt is reported as io.EOF.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the line-mode chat.
func HandleChat(args Args) error {
	p := NewArgParser(args.Raw)
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	in := NewChatCLI()
	defer in.Close()
	return runChat(context.Background(), app, in, p.Flag("c", "conversation"), args.Quiet)
}

// chatLoop holds the request that Ctrl+C cancels.
type chatLoop struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (l *chatLoop) begin(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
	return ctx
}

func (l *chatLoop) end() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()
}

// interrupt cancels the request in flight and reports whether there was one.
func (l *chatLoop) interrupt() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return false
	}
	l.cancel()
	l.cancel = nil
	return true
}

// runChat reads lines from in until EOF or /quit. convRef, when set, picks
// the conversation to continue.
func runChat(ctx context.Context, app *App, in lineReader, convRef string, quiet bool) error {
	s := app.Session.Settings()
	sink := newLineSink(stdout, stderr, s.Theme, GetTerminalWidth())
	sink.quiet = quiet
	app.SetSink(sink)
	defer app.SetSink(nil)

	if !quiet {
		printWelcome(app)
	}
	if err := app.useConversation(convRef); err != nil {
		return err
	}

	loop := &chatLoop{}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			if loop.interrupt() {
				fmt.Fprintln(stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := in.ReadInput(PromptStyle.Render("chatpad> "))
		if err != nil {
			fmt.Fprintln(stdout)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" && len(app.Session.Pending()) == 0 {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		res := app.Dispatcher.Submit(loop.begin(ctx), input)
		loop.end()

		if res.Quit {
			return nil
		}
		if res.ThemeChanged {
			sink.setTheme(app.Session.Settings().Theme)
		}
		if res.Open != commands.PanelNone && res.Output != "" {
			fmt.Fprint(stdout, ensureNewline(res.Output))
		}
		if res.SetInput && res.Input != "" {
			fmt.Fprintln(stdout, InfoStyle.Render("Enhanced prompt:"))
			fmt.Fprintln(stdout, res.Input)
		}
	}
}

func printWelcome(app *App) {
	fmt.Fprintln(stdout, TitleStyle.Render("chatpad")+" "+DimStyle.Render(app.Config.Backend.BaseURL))
	fmt.Fprintln(stdout, DimStyle.Render("Type /help for commands, /quit or Ctrl+D to exit."))
	fmt.Fprintln(stdout)
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
