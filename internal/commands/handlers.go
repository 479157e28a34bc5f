// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/chatpad-tui/internal/export"
	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// =============================================================================
// CHAT
// =============================================================================

func handleSend(ctx context.Context, env *Env, args []string, raw string) Result {
	out := env.Session.SendMessage(ctx, raw)
	env.History.Refresh()
	return Result{Outcome: out}
}

func handleImage(ctx context.Context, env *Env, args []string, raw string) Result {
	out := env.Session.GenerateImage(ctx, raw)
	env.History.Refresh()
	return Result{Outcome: out}
}

func handleEnhance(ctx context.Context, env *Env, args []string, raw string) Result {
	text, out := env.Session.EnhancePrompt(ctx, raw)
	if out != session.OutcomeSucceeded {
		return Result{Outcome: out}
	}
	return Result{Outcome: out, SetInput: true, Input: text, Output: text}
}

func handleRegenerate(ctx context.Context, env *Env, args []string, raw string) Result {
	out := env.Session.Regenerate(ctx)
	env.History.Refresh()
	return Result{Outcome: out}
}

func handleCopy(ctx context.Context, env *Env, args []string, raw string) Result {
	conv, ok := env.Session.Current()
	var last model.Message
	if ok {
		last, ok = conv.LastBotMessage()
	}
	if !ok {
		env.notify(session.LevelInfo, "Nothing to copy yet.")
		return Result{Outcome: session.OutcomeRejected}
	}

	text := last.Content
	if len(args) > 0 && strings.EqualFold(args[0], "code") {
		blocks := render.Render(last).CodeBlocks
		if len(blocks) == 0 {
			env.notify(session.LevelInfo, "The last reply has no code block.")
			return Result{Outcome: session.OutcomeRejected}
		}
		text = blocks[len(blocks)-1].Code
	}

	if err := env.Clipboard(text); err != nil {
		env.notify(session.LevelError, "Could not copy: "+err.Error())
		return Result{Outcome: session.OutcomeFailed, Err: err}
	}
	env.notify(session.LevelSuccess, "Copied to clipboard!")
	return Result{Outcome: session.OutcomeSucceeded}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func handleNew(ctx context.Context, env *Env, args []string, raw string) Result {
	env.Session.NewConversation()
	env.History.Refresh()
	return Result{Outcome: session.OutcomeSucceeded}
}

// resolve finds a conversation by id or unique prefix, notifying on failure.
func resolve(env *Env, ref string) (*model.Conversation, error) {
	conv, err := env.Convs.FindPrefix(ref)
	if err != nil {
		env.notify(session.LevelWarning, "No conversation matches "+strconv.Quote(ref)+".")
		return nil, err
	}
	return conv, nil
}

func handleLoad(ctx context.Context, env *Env, args []string, raw string) Result {
	conv, err := resolve(env, args[0])
	if err != nil {
		return Result{Outcome: session.OutcomeRejected, Err: err}
	}
	if err := env.History.Select(conv.ID); err != nil {
		return Result{Outcome: session.OutcomeFailed, Err: err}
	}
	return Result{Outcome: session.OutcomeSucceeded}
}

func handleDelete(ctx context.Context, env *Env, args []string, raw string) Result {
	id := env.Session.CurrentID()
	if len(args) > 0 {
		conv, err := resolve(env, args[0])
		if err != nil {
			return Result{Outcome: session.OutcomeRejected, Err: err}
		}
		id = conv.ID
	}
	if err := env.History.Delete(id); err != nil {
		return Result{Outcome: session.OutcomeFailed, Err: err}
	}
	return Result{Outcome: session.OutcomeSucceeded}
}

func handleClearHistory(ctx context.Context, env *Env, args []string, raw string) Result {
	if err := env.History.ClearAll(); err != nil {
		return Result{Outcome: session.OutcomeFailed, Err: err}
	}
	return Result{Outcome: session.OutcomeSucceeded}
}

func handleHistory(ctx context.Context, env *Env, args []string, raw string) Result {
	env.History.Refresh()
	env.History.Filter(raw)

	var b strings.Builder
	visible := env.History.Visible()
	if len(visible) == 0 {
		b.WriteString("No saved conversations.\n")
	}
	for _, e := range visible {
		marker := " "
		if e.Current {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-8s  %s  %s\n", marker, shortID(e.ID), util.PadWidth(e.Title, 40), e.Relative)
	}
	return Result{Outcome: session.OutcomeSucceeded, Open: PanelHistory, Output: b.String()}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func handleRename(ctx context.Context, env *Env, args []string, raw string) Result {
	name := raw
	if len(args) == 1 {
		name = args[0]
	}
	if err := env.Session.RenameConversation(name); err != nil {
		return Result{Outcome: session.OutcomeRejected, Err: err}
	}
	env.History.Refresh()
	return Result{Outcome: session.OutcomeSucceeded}
}

func handleExport(ctx context.Context, env *Env, args []string, raw string) Result {
	conv, ok := env.Session.Current()
	if !ok {
		env.notify(session.LevelInfo, "Nothing to export yet.")
		return Result{Outcome: session.OutcomeRejected}
	}

	format := "md"
	if len(args) > 0 {
		format = args[0]
	}
	exp, err := export.For(format, &export.Options{
		IncludeTimestamps: true,
		Theme:             string(env.Session.Settings().Theme),
	})
	if err != nil {
		env.notify(session.LevelWarning, "Unknown format "+strconv.Quote(format)+". Use one of: "+strings.Join(export.Formats, ", "))
		return Result{Outcome: session.OutcomeRejected, Err: err}
	}

	var path string
	if len(args) > 1 {
		path = util.ExpandHome(args[1])
		err = export.WriteFile(path, conv, exp)
	} else {
		path, err = export.ToFile(conv, exp, env.ExportDir)
	}
	if err != nil {
		env.notify(session.LevelError, "Export failed: "+err.Error())
		return Result{Outcome: session.OutcomeFailed, Err: err}
	}
	env.notify(session.LevelSuccess, "Exported to "+path)
	return Result{Outcome: session.OutcomeSucceeded, Output: path}
}

// =============================================================================
// SETTINGS
// =============================================================================

func handleSettings(ctx context.Context, env *Env, args []string, raw string) Result {
	return Result{Outcome: session.OutcomeSucceeded, Open: PanelSettings, Output: describeSettings(env.Session.Settings())}
}

func describeSettings(s settings.Settings) string {
	prompt := s.SystemPrompt
	if prompt == "" {
		prompt = "(none)"
	}
	return fmt.Sprintf("theme:            %s\ntemperature:      %s\nsystemPrompt:     %s\nconversationName: %s\n",
		s.Theme, strconv.FormatFloat(s.Temperature, 'f', -1, 64), util.Ellipsize(util.SingleLine(prompt), 60), s.ConversationName)
}

// ApplySetting sets one field of s by its JSON name.
func ApplySetting(s settings.Settings, key, value string) (settings.Settings, error) {
	switch key {
	case "theme":
		t, err := settings.ParseTheme(value)
		if err != nil {
			return s, err
		}
		s.Theme = t
	case "temperature":
		t, err := settings.ParseTemperature(value)
		if err != nil {
			return s, err
		}
		s.Temperature = t
	case "systemPrompt", "system_prompt":
		s.SystemPrompt = value
	case "conversationName", "conversation_name":
		s.ConversationName = value
	default:
		return s, settings.ValidationError{Field: key, Message: "unknown setting"}
	}
	return s, nil
}

// saveSettings persists s, flagging a theme change.
func saveSettings(env *Env, s settings.Settings) Result {
	prev := env.Session.Settings().Theme
	if err := env.Session.SaveSettings(s); err != nil {
		return Result{Outcome: session.OutcomeRejected, Err: err}
	}
	return Result{Outcome: session.OutcomeSucceeded, ThemeChanged: prev != s.Theme}
}

func handleSaveSettings(ctx context.Context, env *Env, args []string, raw string) Result {
	s := env.Session.Settings()
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			err := settings.ValidationError{Field: arg, Message: "expected key=value"}
			env.notify(session.LevelWarning, err.Error())
			return Result{Outcome: session.OutcomeRejected, Err: err}
		}
		next, err := ApplySetting(s, key, value)
		if err != nil {
			env.notify(session.LevelWarning, err.Error())
			return Result{Outcome: session.OutcomeRejected, Err: err}
		}
		s = next
	}
	return saveSettings(env, s)
}

func handleResetSettings(ctx context.Context, env *Env, args []string, raw string) Result {
	prev := env.Session.Settings().Theme
	s, err := env.Session.ResetSettings()
	if err != nil {
		return Result{Outcome: session.OutcomeFailed, Err: err}
	}
	return Result{Outcome: session.OutcomeSucceeded, ThemeChanged: prev != s.Theme}
}

func handleTheme(ctx context.Context, env *Env, args []string, raw string) Result {
	s := env.Session.Settings()
	if len(args) == 0 {
		s.Theme = s.Theme.Toggle()
	} else {
		t, err := settings.ParseTheme(args[0])
		if err != nil {
			env.notify(session.LevelWarning, err.Error())
			return Result{Outcome: session.OutcomeRejected, Err: err}
		}
		s.Theme = t
	}
	return saveSettings(env, s)
}

func handleTemperature(ctx context.Context, env *Env, args []string, raw string) Result {
	s := env.Session.Settings()
	if len(args) == 0 {
		return Result{Outcome: session.OutcomeNone, Output: "temperature: " + strconv.FormatFloat(s.Temperature, 'f', -1, 64)}
	}
	t, err := settings.ParseTemperature(args[0])
	if err != nil {
		env.notify(session.LevelWarning, err.Error())
		return Result{Outcome: session.OutcomeRejected, Err: err}
	}
	s.Temperature = t
	return saveSettings(env, s)
}

func handleSystem(ctx context.Context, env *Env, args []string, raw string) Result {
	s := env.Session.Settings()
	switch {
	case raw == "":
		prompt := s.SystemPrompt
		if prompt == "" {
			prompt = "(none)"
		}
		return Result{Outcome: session.OutcomeNone, Output: "system prompt: " + prompt}
	case strings.EqualFold(raw, "clear"):
		s.SystemPrompt = ""
	default:
		s.SystemPrompt = raw
	}
	return saveSettings(env, s)
}

// =============================================================================
// FILES
// =============================================================================

func handleAttach(ctx context.Context, env *Env, args []string, raw string) Result {
	path := raw
	if len(args) == 1 {
		path = args[0]
	}
	a, err := env.Session.Attach(util.ExpandHome(path))
	if err != nil {
		return Result{Outcome: session.OutcomeRejected, Err: err}
	}
	env.notify(session.LevelSuccess, "Attached "+a.Label())
	return Result{Outcome: session.OutcomeSucceeded}
}

func handleDetach(ctx context.Context, env *Env, args []string, raw string) Result {
	name := raw
	if len(args) == 1 {
		name = args[0]
	}
	if !env.Session.Detach(name) {
		env.notify(session.LevelWarning, "No pending attachment named "+strconv.Quote(name)+".")
		return Result{Outcome: session.OutcomeRejected, Err: errors.New("no such attachment")}
	}
	return Result{Outcome: session.OutcomeSucceeded}
}

// =============================================================================
// GENERAL
// =============================================================================

func handleHelp(ctx context.Context, env *Env, args []string, raw string) Result {
	return Result{Outcome: session.OutcomeNone, Open: PanelHelp, Output: HelpText(env.registry)}
}

func handleQuit(ctx context.Context, env *Env, args []string, raw string) Result {
	return Result{Outcome: session.OutcomeNone, Quit: true}
}

// HelpText lists the visible slash commands by category.
func HelpText(r *Registry) string {
	var b strings.Builder
	groups := r.ByCategory()
	for _, cat := range Categories {
		cmds := groups[cat]
		if len(cmds) == 0 {
			continue
		}
		b.WriteString(cat)
		b.WriteString("\n")
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&b, "  %s %s\n", util.PadWidth(usage, 28), cmd.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("Anything else is sent as a message.\n")
	return b.String()
}
