// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/jeranaias/chatpad-tui/internal/attach"
	"github.com/jeranaias/chatpad-tui/internal/backend"
	"github.com/jeranaias/chatpad-tui/internal/config"
	"github.com/jeranaias/chatpad-tui/internal/kvstore"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/storage"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"list"},
			wantSub: "list",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"list", "--limit", "5"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("limit") != "5" {
					t.Errorf("Flag(limit) = %q, want %q", p.Flag("limit"), "5")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"export", "--format=json"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "json" {
					t.Errorf("Flag(format) = %q, want %q", p.Flag("format"), "json")
				}
			},
		},
		{
			name:    "trailing boolean flag",
			args:    []string{"clear", "--confirm"},
			wantSub: "clear",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be true")
				}
			},
		},
		{
			name:    "declared boolean does not swallow positional",
			args:    []string{"--code", "what", "is", "go"},
			bools:   []string{"code"},
			wantSub: "what",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("code") {
					t.Error("BoolFlag(code) should be true")
				}
				if got := JoinPositionalArgs(p, 0); got != "what is go" {
					t.Errorf("JoinPositionalArgs = %q, want %q", got, "what is go")
				}
			},
		},
		{
			name:    "repeated flag keeps every value",
			args:    []string{"review", "-f", "a.go", "--file", "b.go", "-f", "c.go"},
			wantSub: "review",
			validate: func(t *testing.T, p *ArgParser) {
				got := p.FlagValues("f", "file")
				if strings.Join(got, ",") != "a.go,c.go,b.go" {
					t.Errorf("FlagValues = %v", got)
				}
				if p.Flag("f") != "c.go" {
					t.Errorf("Flag(f) = %q, want last value", p.Flag("f"))
				}
			},
		},
		{
			name:    "negative number is positional",
			args:    []string{"set", "temperature", "-1"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(2) != "-1" {
					t.Errorf("Positional(2) = %q, want %q", p.Positional(2), "-1")
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"--", "--not-a-flag", "text"},
			wantSub: "--not-a-flag",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 2 {
					t.Errorf("PositionalCount() = %d, want 2", p.PositionalCount())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args, tt.bools...)
			if parser.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", parser.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, parser)
			}
		})
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		defaultVal int
		want       int
	}{
		{"flag present", []string{"list", "--limit", "10"}, 5, 10},
		{"flag missing uses default", []string{"list"}, 5, 5},
		{"invalid int uses default", []string{"list", "--limit", "abc"}, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewArgParser(tt.args).FlagIntOrDefault("limit", tt.defaultVal)
			if got != tt.want {
				t.Errorf("FlagIntOrDefault(limit, %d) = %d, want %d", tt.defaultVal, got, tt.want)
			}
		})
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	parser := NewArgParser([]string{"list", "--confirm", "--search", "trip"})

	if !parser.HasFlag("confirm") {
		t.Error("HasFlag(confirm) should be true")
	}
	if !parser.HasFlag("--search") {
		t.Error("HasFlag(--search) should be true")
	}
	if parser.HasFlag("nonexistent") {
		t.Error("HasFlag(nonexistent) should be false")
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	parser := NewArgParser(nil)
	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if parser.Positional(3) != "" {
		t.Error("Positional out of range should be empty")
	}
	if len(parser.PositionalFrom(1)) != 0 {
		t.Error("PositionalFrom out of range should be empty")
	}
}

// =============================================================================
// COMMAND LINE TESTS (cli.go)
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{
			name:    "no arguments starts the TUI",
			argv:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "alias",
			argv:    []string{"img", "a", "cat"},
			wantCmd: CmdImage,
			check: func(t *testing.T, a Args) {
				if strings.Join(a.Raw, " ") != "a cat" {
					t.Errorf("Raw = %v", a.Raw)
				}
			},
		},
		{
			name:    "global flags anywhere",
			argv:    []string{"--json", "history", "list", "-q", "--url", "http://x:1"},
			wantCmd: CmdHistory,
			check: func(t *testing.T, a Args) {
				if !a.JSON || !a.Quiet {
					t.Errorf("JSON=%v Quiet=%v, want both", a.JSON, a.Quiet)
				}
				if a.BaseURL != "http://x:1" {
					t.Errorf("BaseURL = %q", a.BaseURL)
				}
				if strings.Join(a.Raw, " ") != "list" {
					t.Errorf("Raw = %v", a.Raw)
				}
			},
		},
		{
			name:    "config path with equals",
			argv:    []string{"--config=/tmp/c.toml", "settings"},
			wantCmd: CmdSettings,
			check: func(t *testing.T, a Args) {
				if a.ConfigPath != "/tmp/c.toml" {
					t.Errorf("ConfigPath = %q", a.ConfigPath)
				}
			},
		},
		{
			name:    "command flags stay raw",
			argv:    []string{"ask", "-f", "main.go", "explain"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, a Args) {
				if strings.Join(a.Raw, " ") != "-f main.go explain" {
					t.Errorf("Raw = %v", a.Raw)
				}
			},
		},
		{
			name:    "version flag",
			argv:    []string{"--version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "unknown command",
			argv:    []string{"histroy"},
			wantCmd: CmdUnknown,
			check: func(t *testing.T, a Args) {
				if a.Name != "histroy" {
					t.Errorf("Name = %q", a.Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Errorf("command = %v, want %v", cmd, tt.wantCmd)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"histroy", "history"},
		{"setings", "settings"},
		{"asc", "ask"},
		{"imgae", "image"},
		{"history", ""},
		{"x", ""},
		{"kubernetes", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SuggestCommand(tt.input); got != tt.want {
				t.Errorf("SuggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnknownCommand_Suggests(t *testing.T) {
	err := Run(CmdUnknown, Args{Name: "histroy"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "history"`) {
		t.Fatalf("err = %v", err)
	}
	if GetExitCode(err) != ExitUsageError {
		t.Errorf("exit code = %d, want %d", GetExitCode(err), ExitUsageError)
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"validation", &ValidationError{Field: "id"}, ExitUsageError},
		{"settings validation", settings.ValidationError{Field: "temperature"}, ExitUsageError},
		{"attachment too large", fmt.Errorf("attach: %w", attach.ErrTooLarge), ExitUsageError},
		{"not found", &NotFoundError{Resource: "conversation", ID: "x"}, ExitNotFound},
		{"missing conversation", fmt.Errorf("load: %w", storage.ErrConversationNotFound), ExitNotFound},
		{"config", config.ValidateErrors{{Field: "backend.base_url"}}, ExitConfigError},
		{"timeout", fmt.Errorf("send: %w", context.DeadlineExceeded), ExitTimeout},
		{"http", &backend.HTTPError{StatusCode: 502}, ExitNetworkError},
		{"dial", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("refused")}, ExitNetworkError},
		{"rate limited", backend.ErrRateLimited, ExitNetworkError},
		{"quota", fmt.Errorf("save: %w", kvstore.ErrQuotaExceeded), ExitStorageError},
		{"wrapped in command error", &CommandError{Command: "ask", Err: &NotFoundError{}}, ExitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "format", Value: "pdf", Reason: "unsupported format", Example: "md, json"}
	want := "invalid format: unsupported format (got: pdf)\nExample: md, json"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
