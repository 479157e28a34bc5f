// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output streams. Tests swap them for buffers.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Command is the CLI command to run.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdImage
	CmdHistory
	CmdSettings
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// commandNames maps every spelling to its command.
var commandNames = map[string]Command{
	"tui":      CmdTUI,
	"chat":     CmdChat,
	"ask":      CmdAsk,
	"a":        CmdAsk,
	"image":    CmdImage,
	"img":      CmdImage,
	"history":  CmdHistory,
	"h":        CmdHistory,
	"settings": CmdSettings,
	"config":   CmdConfig,
	"version":  CmdVersion,
	"help":     CmdHelp,
}

// String returns the primary name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdImage:
		return "image"
	case CmdHistory:
		return "history"
	case CmdSettings:
		return "settings"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds the global flags plus the command's own arguments.
type Args struct {
	Quiet   bool
	Verbose bool
	JSON    bool
	NoColor bool

	// ConfigPath overrides ~/.chatpad/config.toml.
	ConfigPath string

	// BaseURL overrides backend.base_url for this run.
	BaseURL string

	// Name is the command word as typed, kept for error messages.
	Name string

	// Raw is everything after the command word, global flags removed.
	Raw []string
}

const usageText = `chatpad - terminal client for a chat and image-generation backend

Usage:
  chatpad [tui]                        Start the full-screen chat (default)
  chatpad chat                         Line-mode chat with input history
  chatpad ask "question" [-f FILE]...  Send one message and print the reply
  chatpad image "prompt" [--out FILE]  Generate an image
  chatpad history [subcommand]         Manage saved conversations
  chatpad settings [subcommand]        Show or change chat settings
  chatpad config [subcommand]          Show or change client configuration
  chatpad version                      Print version information

Ask:
  -f, --file FILE          Attach a file (repeatable, 10 MiB each)
  -c, --conversation ID    Continue a saved conversation (id or prefix)
  --system TEXT            System prompt for this message only
  --temperature N          Temperature for this message only (0 to 1)
  --code                   Print code blocks from the reply with line numbers

Image:
  -o, --out FILE           Write the decoded image to FILE
  -c, --conversation ID    Save into a saved conversation

History:
  chatpad history list [--search Q]           List conversations, newest first
  chatpad history show ID                     Print one conversation
  chatpad history delete ID                   Delete one conversation
  chatpad history clear [--confirm]           Delete every conversation
  chatpad history rename ID NAME              Rename a conversation
  chatpad history export ID [--format md|json|html] [--out FILE]

Settings:
  chatpad settings show                       Print the saved settings
  chatpad settings set KEY VALUE              Set theme, temperature or systemPrompt
  chatpad settings reset [--confirm]          Restore the defaults

Config:
  chatpad config show                         Print the effective configuration
  chatpad config path                         Print the config file location
  chatpad config init [--force]               Write a default config.toml
  chatpad config get KEY                      Print one value (e.g. backend.base_url)
  chatpad config set KEY VALUE                Change one value and save
  chatpad config keys                         List every config key
  chatpad config reset [--confirm]            Overwrite config.toml with the defaults

Global flags:
  --url URL        Backend base URL for this run
  --config FILE    Use FILE instead of ~/.chatpad/config.toml
  --json           Machine-readable output where supported
  --no-color       Disable colors (NO_COLOR is honored too)
  -q, --quiet      Less output
  -v, --verbose    Debug logging to the log file

Environment:
  CHATPAD_HOME, CHATPAD_BASE_URL, CHATPAD_TIMEOUT, CHATPAD_STORAGE,
  CHATPAD_DATA_DIR, CHATPAD_LOG_LEVEL, CHATPAD_METRICS_ADDR
`

// =============================================================================
// PARSING
// =============================================================================

// Parse reads os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs picks the command word and strips global flags. With no command
// word the TUI starts.
func ParseArgs(argv []string) (Command, Args) {
	var args Args
	cmd := CmdTUI
	found := false

	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--quiet" || a == "-q":
			args.Quiet = true
		case a == "--verbose" || a == "-v":
			args.Verbose = true
		case a == "--json":
			args.JSON = true
		case a == "--no-color":
			args.NoColor = true
		case a == "--help" && !found:
			cmd, found = CmdHelp, true
		case a == "--version" && !found:
			cmd, found = CmdVersion, true
		case a == "--config" && i+1 < len(argv):
			args.ConfigPath = argv[i+1]
			i++
		case strings.HasPrefix(a, "--config="):
			args.ConfigPath = strings.TrimPrefix(a, "--config=")
		case a == "--url" && i+1 < len(argv):
			args.BaseURL = argv[i+1]
			i++
		case strings.HasPrefix(a, "--url="):
			args.BaseURL = strings.TrimPrefix(a, "--url=")
		case !found && !strings.HasPrefix(a, "-"):
			found = true
			args.Name = a
			c, ok := commandNames[strings.ToLower(a)]
			if !ok {
				c = CmdUnknown
			}
			cmd = c
		default:
			args.Raw = append(args.Raw, a)
		}
	}
	return cmd, args
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes cmd.
func Run(cmd Command, args Args) error {
	if args.NoColor {
		ForceColorsEnabled(false)
	}

	switch cmd {
	case CmdTUI:
		return HandleTUI(args)
	case CmdChat:
		return HandleChat(args)
	case CmdAsk:
		return HandleAsk(args)
	case CmdImage:
		return HandleImage(args)
	case CmdHistory:
		return HandleHistory(args)
	case CmdSettings:
		return HandleSettings(args)
	case CmdConfig:
		return HandleConfig(args)
	case CmdVersion:
		return HandleVersion(args)
	case CmdHelp:
		fmt.Fprint(stdout, usageText)
		return nil
	}
	return unknownCommand(args.Name)
}

func unknownCommand(name string) error {
	msg := fmt.Sprintf("unknown command %q", name)
	if s := SuggestCommand(name); s != "" {
		msg += fmt.Sprintf("; did you mean %q?", s)
	}
	return &ValidationError{Field: "command", Reason: msg, Example: "chatpad help"}
}

// HandleVersion prints version information.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}
	fmt.Fprintf(stdout, "chatpad %s\n", Version)
	if !args.Quiet {
		fmt.Fprintf(stdout, "  commit: %s\n  built:  %s\n  go:     %s %s/%s\n",
			GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	}
	return nil
}
