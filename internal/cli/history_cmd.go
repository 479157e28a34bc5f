// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - saved conversation management.
//
// Command: history [subcommand]
// Short:   Manage saved conversations
// Aliases: h
//
// Subcommands:
//
//	list (default)        List conversations, newest first
//	show ID               Print one conversation
//	delete ID             Delete one conversation
//	clear                 Delete every conversation
//	rename ID NAME        Rename a conversation
//	export ID             Export as Markdown, JSON or HTML
//
// IDs may be shortened to any unique prefix.
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/chatpad-tui/internal/export"
	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/storage"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

const previewLen = 60

// HandleHistory dispatches the history subcommands.
func HandleHistory(args Args) error {
	p := NewArgParser(args.Raw, "confirm", "y")

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return historyList(app, p, args)
	case "show":
		return historyShow(app, p, args)
	case "delete", "rm":
		return historyDelete(app, p, args)
	case "clear":
		return historyClear(app, p, args)
	case "rename":
		return historyRename(app, p, args)
	case "export":
		return historyExport(app, p, args)
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   sub,
			Reason:  "unknown history subcommand",
			Example: "chatpad history list | show | delete | clear | rename | export",
		}
	}
}

// lookup resolves an id or unique prefix.
func (a *App) lookup(ref string) (*model.Conversation, error) {
	conv, err := a.Convs.FindPrefix(ref)
	if err != nil {
		return nil, &NotFoundError{Resource: "conversation", ID: ref}
	}
	return conv, nil
}

func preview(c *model.Conversation) string {
	if len(c.Messages) == 0 {
		return ""
	}
	return render.PreviewMessage(c.Messages[0], previewLen)
}

func historyList(app *App, p *ArgParser, args Args) error {
	convs := app.Convs.List()
	if q := p.Flag("search", "s"); q != "" {
		convs = app.Convs.Search(q)
	}
	if n := p.FlagIntOrDefault("limit", 0); n > 0 && n < len(convs) {
		convs = convs[:n]
	}

	if args.JSON {
		rows := make([]ConversationSummary, 0, len(convs))
		for _, c := range convs {
			rows = append(rows, summarize(c, preview(c)))
		}
		return NewJSONResponse("history list", rows).Print()
	}
	fmt.Fprintln(stdout, storage.FormatList(convs))
	return nil
}

func historyShow(app *App, p *ArgParser, args Args) error {
	ref := p.Positional(1)
	if ref == "" {
		return ErrMissingArgument("id", "chatpad history show 01J2")
	}
	conv, err := app.lookup(ref)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("history show", conv).Print()
	}
	term := render.NewTerminal(themeFor(app.Session.Settings().Theme), GetTerminalWidth())
	fmt.Fprintln(stdout, TitleStyle.Render(conv.Title)+" "+DimStyle.Render(conv.ID))
	fmt.Fprintln(stdout, RenderSeparator())
	fmt.Fprintln(stdout, term.Transcript(render.Replay(conv)))
	return nil
}

func historyDelete(app *App, p *ArgParser, args Args) error {
	ref := p.Positional(1)
	if ref == "" {
		return ErrMissingArgument("id", "chatpad history delete 01J2")
	}
	conv, err := app.lookup(ref)
	if err != nil {
		return err
	}
	if err := app.Session.DeleteConversation(conv.ID); err != nil {
		return &CommandError{Command: "history", Action: "delete", Reason: conv.ID, Err: err}
	}
	return done(args, "history delete", map[string]string{"id": conv.ID}, "Deleted "+util.Ellipsize(conv.Title, 40))
}

func historyClear(app *App, p *ArgParser, args Args) error {
	n := app.Convs.Len()
	ok, err := RequireConfirmation(fmt.Sprintf("delete all %d conversations", n), ConfirmationOptions{
		ConfirmFlag: p.BoolFlag("confirm", "y"),
		JSONMode:    args.JSON,
	})
	if err != nil {
		return err
	}
	if !ok {
		ShowCancellationMessage()
		return nil
	}
	if err := app.Session.ClearHistory(); err != nil {
		return &CommandError{Command: "history", Action: "clear", Reason: "could not clear history", Err: err}
	}
	return done(args, "history clear", map[string]int{"deleted": n}, fmt.Sprintf("Deleted %d conversations", n))
}

func historyRename(app *App, p *ArgParser, args Args) error {
	ref := p.Positional(1)
	title := strings.TrimSpace(JoinPositionalArgs(p, 2))
	if ref == "" || title == "" {
		return ErrMissingArgument("id and name", `chatpad history rename 01J2 "Trip planning"`)
	}
	conv, err := app.lookup(ref)
	if err != nil {
		return err
	}
	if err := app.Convs.Rename(conv.ID, title); err != nil {
		return &CommandError{Command: "history", Action: "rename", Reason: conv.ID, Err: err}
	}
	return done(args, "history rename", map[string]string{"id": conv.ID, "title": title}, "Renamed to "+title)
}

func historyExport(app *App, p *ArgParser, args Args) error {
	ref := p.Positional(1)
	if ref == "" {
		return ErrMissingArgument("id", "chatpad history export 01J2 --format html --out chat.html")
	}
	conv, err := app.lookup(ref)
	if err != nil {
		return err
	}

	format := p.FlagOrDefault("format", "md")
	exp, err := export.For(format, &export.Options{
		IncludeTimestamps: true,
		Theme:             string(app.Session.Settings().Theme),
	})
	if err != nil {
		return ErrUnsupportedFormat(format, export.Formats)
	}
	data, err := exp.Export(conv)
	if err != nil {
		return &CommandError{Command: "history", Action: "export", Reason: "encode", Err: err}
	}

	path := p.Flag("o", "out")
	if path == "" {
		_, err := stdout.Write(ensureNewlineBytes(data))
		return err
	}
	path = util.ExpandHome(path)
	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return &CommandError{Command: "history", Action: "export", Reason: path, Err: err}
	}
	return done(args, "history export", map[string]string{"id": conv.ID, "path": path, "mime": exp.MimeType()}, "Exported to "+path)
}

// done prints a success line, or data in JSON mode.
func done(args Args, command string, data interface{}, text string) error {
	if args.JSON {
		return NewJSONResponse(command, data).Print()
	}
	if !args.Quiet {
		fmt.Fprintln(stdout, SuccessStyle.Render("[OK]")+" "+text)
	}
	return nil
}

func ensureNewlineBytes(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		return b
	}
	return append(b, '\n')
}
