// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/jeranaias/chatpad-tui/internal/history"
	"github.com/jeranaias/chatpad-tui/internal/logging"
	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/storage"
)

// ErrUnknownCommand is returned for slash commands nobody registered.
var ErrUnknownCommand = errors.New("unknown command")

// Env gives handlers access to the application.
type Env struct {
	Session *session.Controller
	History *history.Panel
	Convs   *storage.ConversationStore

	// Notify shows a toast. Defaults to a no-op.
	Notify func(session.Notice)

	// Clipboard writes text to the system clipboard. Defaults to
	// atotto/clipboard.
	Clipboard func(string) error

	// ExportDir receives exported conversations. Defaults to the working
	// directory.
	ExportDir string

	Log *logging.Logger

	registry *Registry
}

func (e *Env) notify(level session.Level, text string) {
	if e.Notify != nil {
		e.Notify(session.Notice{Level: level, Text: text})
	}
}

// Panel names a view the UI should open.
type Panel int

const (
	PanelNone Panel = iota
	PanelHistory
	PanelSettings
	PanelHelp
)

// Result tells the UI what to do after a command.
type Result struct {
	Action  string
	Outcome session.Outcome

	// SetInput asks the UI to replace the input line with Input.
	SetInput bool
	Input    string

	Open Panel

	// Output is text for line-mode frontends (help, listings).
	Output string

	ThemeChanged bool
	Quit         bool
	Err          error
}

// Dispatcher routes input lines and named actions to handlers.
type Dispatcher struct {
	registry *Registry
	parser   *Parser
	env      *Env
}

// NewDispatcher creates a dispatcher. env is completed with defaults.
func NewDispatcher(registry *Registry, env *Env) *Dispatcher {
	if env.Clipboard == nil {
		env.Clipboard = clipboard.WriteAll
	}
	if env.ExportDir == "" {
		env.ExportDir = "."
	}
	env.Log = logging.OrNop(env.Log).Named("commands")
	env.registry = registry
	return &Dispatcher{registry: registry, parser: NewParser(registry), env: env}
}

// Registry returns the command registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Submit handles one input line: image commands and plain text are sent,
// other slash commands are dispatched.
func (d *Dispatcher) Submit(ctx context.Context, input string) Result {
	if _, ok := d.env.Session.ImagePrompt(input); ok {
		return d.run(ctx, d.registry.Action(ActionSend), nil, input)
	}

	p := d.parser.Parse(input)
	if !p.IsCommand {
		return d.run(ctx, d.registry.Action(ActionSend), nil, input)
	}
	if p.Command == nil {
		d.env.notify(session.LevelWarning, "Unknown command: "+p.CommandName+". Type /help for a list of commands.")
		return Result{Err: ErrUnknownCommand}
	}
	if err := ValidateArgs(p.Command, p.Args); err != nil {
		d.env.notify(session.LevelWarning, "Usage: "+p.Command.Usage)
		return Result{Action: p.Command.Action, Outcome: session.OutcomeRejected, Err: err}
	}
	return d.run(ctx, p.Command, p.Args, p.RawArgs)
}

// Do runs a named action, as a key binding would.
func (d *Dispatcher) Do(ctx context.Context, action string, args ...string) Result {
	cmd := d.registry.Action(action)
	if cmd == nil {
		return Result{Action: action, Err: ErrUnknownCommand}
	}
	if err := ValidateArgs(cmd, args); err != nil {
		return Result{Action: action, Outcome: session.OutcomeRejected, Err: err}
	}
	return d.run(ctx, cmd, args, strings.Join(args, " "))
}

func (d *Dispatcher) run(ctx context.Context, cmd *Command, args []string, raw string) Result {
	d.env.Log.Debug("dispatch", zap.String("action", cmd.Action), zap.Int("args", len(args)))
	res := cmd.Handler(ctx, d.env, args, raw)
	res.Action = cmd.Action
	return res
}
