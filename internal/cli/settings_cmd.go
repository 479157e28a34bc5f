// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// settings_cmd.go - the chat settings shared with the full-screen UI.
//
// Command: settings [subcommand]
// Short:   Show or change chat settings
//
// Subcommands:
//
//	show (default)        Print the saved settings
//	set KEY VALUE         Set theme, temperature, systemPrompt or conversationName
//	reset                 Restore the defaults
package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/settings"
)

// HandleSettings dispatches the settings subcommands.
func HandleSettings(args Args) error {
	p := NewArgParser(args.Raw, "confirm", "y")

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	sink := newLineSink(stdout, stderr, app.Session.Settings().Theme, GetTerminalWidth())
	sink.quiet = args.Quiet
	sink.silent = args.JSON
	app.SetSink(sink)

	switch sub := p.Subcommand(); sub {
	case "", "show":
		return settingsShow(app.Session.Settings(), args)
	case "set":
		key := p.Positional(1)
		if key == "" || p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "chatpad settings set temperature 0.3")
		}
		next, err := commands.ApplySetting(app.Session.Settings(), key, JoinPositionalArgs(p, 2))
		if err != nil {
			return err
		}
		if err := app.Session.SaveSettings(next); err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("settings set", next).Print()
		}
		return nil
	case "reset":
		ok, err := RequireConfirmation("restore the default settings", ConfirmationOptions{
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
		s, err := app.Session.ResetSettings()
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("settings reset", s).Print()
		}
		return nil
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   sub,
			Reason:  "unknown settings subcommand",
			Example: "chatpad settings show | set KEY VALUE | reset",
		}
	}
}

func settingsShow(s settings.Settings, args Args) error {
	if args.JSON {
		return NewJSONResponse("settings show", s).Print()
	}
	prompt := s.SystemPrompt
	if prompt == "" {
		prompt = DimStyle.Render("(none)")
	}
	fmt.Fprintln(stdout, TitleStyle.Render("Settings"))
	fmt.Fprintln(stdout, RenderSeparator())
	fmt.Fprintf(stdout, "%s %s\n", RenderLabel("theme"), ValueStyle.Render(string(s.Theme)))
	fmt.Fprintf(stdout, "%s %s\n", RenderLabel("temperature"), ValueStyle.Render(strconv.FormatFloat(s.Temperature, 'f', -1, 64)))
	fmt.Fprintf(stdout, "%s %s\n", RenderLabel("systemPrompt"), prompt)
	fmt.Fprintf(stdout, "%s %s\n", RenderLabel("conversationName"), ValueStyle.Render(s.ConversationName))
	return nil
}
