// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot commands that send a single request and exit.
//
// Command: ask [question]
// Short:   Send one message and print the reply
//
// Examples:
//
//	chatpad ask "What is the capital of France?"
//	chatpad ask "Review this code:" -f main.go -f main_test.go
//	git diff | chatpad ask "Write a commit message for this diff"
//	chatpad ask --json --temperature 0.2 "Name three primes"
//
// Command: image [prompt]
// Short:   Generate an image
//
// Examples:
//
//	chatpad image "a lighthouse at dusk" --out lighthouse.png
//	chatpad image --json "a red bicycle"
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// maxStdinBytes bounds piped input.
const maxStdinBytes = 1 << 20

// =============================================================================
// ASK
// =============================================================================

// HandleAsk sends one message and prints the reply.
func HandleAsk(args Args) error {
	p := NewArgParser(args.Raw, "code")

	query := JoinPositionalArgs(p, 0)
	if query == "" && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinBytes))
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		query = strings.TrimSpace(string(data))
	}
	files := p.FlagValues("f", "file")
	if query == "" && len(files) == 0 {
		return ErrMissingArgument("question", `chatpad ask "What is a goroutine?"`)
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	sink := newLineSink(stdout, stderr, app.Session.Settings().Theme, GetTerminalWidth())
	sink.quiet = args.Quiet
	sink.silent = args.JSON
	app.SetSink(sink)

	if err := app.useConversation(p.Flag("c", "conversation")); err != nil {
		return err
	}
	if err := applyOverrides(app.Session, p); err != nil {
		return err
	}
	for _, f := range files {
		if _, err := app.Session.Attach(util.ExpandHome(f)); err != nil {
			return &CommandError{Command: "ask", Action: "attach", Reason: f, Err: err}
		}
	}

	start := time.Now()
	out := app.Session.SendMessage(context.Background(), query)
	elapsed := time.Since(start)
	last, _ := sink.Last()

	if args.JSON {
		if err := NewJSONResponse("ask", AskData{
			ConversationID: app.Session.CurrentID(),
			Outcome:        out.String(),
			Response:       replyText(last),
			DurationMs:     elapsed.Milliseconds(),
		}).Print(); err != nil {
			return err
		}
	} else if p.BoolFlag("code") {
		printCodeBlocks(app, last)
	}
	return outcomeError("ask", "send", out, last)
}

// applyOverrides applies --system and --temperature to this run only.
func applyOverrides(ctl *session.Controller, p *ArgParser) error {
	if !p.HasFlag("system") && !p.HasFlag("temperature") {
		return nil
	}
	s := ctl.Settings()
	if p.HasFlag("system") {
		s.SystemPrompt = p.Flag("system")
	}
	if v := p.Flag("temperature"); v != "" {
		t, err := settings.ParseTemperature(v)
		if err != nil {
			return err
		}
		s.Temperature = t
	}
	return ctl.UseSettings(s)
}

func printCodeBlocks(app *App, v render.View) {
	if len(v.CodeBlocks) == 0 {
		return
	}
	theme := themeFor(app.Session.Settings().Theme)
	width := GetTerminalWidth()
	for _, cb := range v.CodeBlocks {
		fmt.Fprintln(stdout, render.CodeBox(cb, theme, width))
	}
}

// replyText is the text of a reply, with the error prefix removed.
func replyText(v render.View) string {
	if v.Kind == model.KindError {
		return strings.TrimPrefix(v.Markdown, model.ErrorPrefix)
	}
	return v.Markdown
}

// outcomeError turns a failed outcome into an error for the exit code.
// The failure itself was already printed by the sink.
func outcomeError(command, action string, out session.Outcome, last render.View) error {
	switch out {
	case session.OutcomeSucceeded, session.OutcomeInformational:
		return nil
	case session.OutcomeRejected, session.OutcomeNone:
		return &ValidationError{Field: action, Reason: "request was not sent"}
	}
	return &CommandError{Command: command, Action: action, Reason: replyText(last)}
}

// =============================================================================
// IMAGE
// =============================================================================

// HandleImage generates one image and optionally writes it to a file.
func HandleImage(args Args) error {
	p := NewArgParser(args.Raw)
	prompt := JoinPositionalArgs(p, 0)
	if prompt == "" {
		return ErrMissingArgument("prompt", `chatpad image "a lighthouse at dusk" --out lighthouse.png`)
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	sink := newLineSink(stdout, stderr, app.Session.Settings().Theme, GetTerminalWidth())
	sink.quiet = args.Quiet
	sink.silent = args.JSON
	app.SetSink(sink)

	if err := app.useConversation(p.Flag("c", "conversation")); err != nil {
		return err
	}

	out := app.Session.GenerateImage(context.Background(), prompt)
	last, _ := sink.Last()

	data := ImageData{ConversationID: app.Session.CurrentID(), Outcome: out.String()}
	if out == session.OutcomeSucceeded && last.Image != nil {
		data.MIME = last.Image.MIME
		data.Bytes = last.Image.Size()
		if path := p.Flag("o", "out"); path != "" {
			path = util.ExpandHome(path)
			if err := util.AtomicWriteFile(path, last.Image.Data, 0o644); err != nil {
				return &CommandError{Command: "image", Action: "write", Reason: path, Err: err}
			}
			data.Path = path
			if !args.JSON && !args.Quiet {
				fmt.Fprintln(stderr, RenderNotice(session.Notice{Level: session.LevelSuccess, Text: "Saved image to " + path}))
			}
		}
	} else {
		data.Message = replyText(last)
	}

	if args.JSON {
		if err := NewJSONResponse("image", data).Print(); err != nil {
			return err
		}
	}
	return outcomeError("image", "generate", out, last)
}
