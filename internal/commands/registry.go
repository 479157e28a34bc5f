// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"
)

// Action names. These are the stable identifiers key bindings use.
const (
	ActionSend          = "send"
	ActionNew           = "new"
	ActionLoad          = "load"
	ActionDelete        = "delete"
	ActionClearHistory  = "clear-history"
	ActionHistory       = "history"
	ActionSettings      = "settings"
	ActionSaveSettings  = "save-settings"
	ActionResetSettings = "reset-settings"
	ActionTheme         = "theme"
	ActionTemperature   = "temperature"
	ActionSystem        = "system"
	ActionRename        = "rename"
	ActionAttach        = "attach"
	ActionDetach        = "detach"
	ActionImage         = "image"
	ActionEnhance       = "enhance"
	ActionRegenerate    = "regenerate"
	ActionCopy          = "copy"
	ActionExport        = "export"
	ActionHelp          = "help"
	ActionQuit          = "quit"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Handler runs one action. raw is the argument text as typed, for commands
// that take free text.
type Handler func(ctx context.Context, env *Env, args []string, raw string) Result

// Command is one named action, optionally reachable as a slash command.
type Command struct {
	// Action is the stable name (e.g. "new").
	Action string

	// Name is the primary slash command (e.g. "/new"). Empty for actions
	// that are only bound to keys.
	Name string

	Aliases     []string
	Description string
	Usage       string
	Args        []ArgDef
	Category    string
	Hidden      bool

	Handler Handler
}

// ArgDef describes one argument for validation and completion.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string
	Values      []string
}

// ArgType selects completion behavior.
type ArgType int

const (
	ArgTypeString       ArgType = iota // Free-form text
	ArgTypeConversation                // Stored conversation id
	ArgTypeFile                        // File path
	ArgTypeEnum                        // One of Values
	ArgTypePending                     // Name of a pending attachment
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds every command by action name and by slash name.
type Registry struct {
	actions map[string]*Command
	slash   map[string]*Command
}

// NewRegistry creates a registry with the built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		actions: make(map[string]*Command),
		slash:   make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds cmd, replacing any command with the same action.
func (r *Registry) Register(cmd *Command) {
	r.actions[cmd.Action] = cmd
	if cmd.Name != "" {
		r.slash[cmd.Name] = cmd
	}
	for _, alias := range cmd.Aliases {
		r.slash[alias] = cmd
	}
}

// Get looks up a slash command or alias.
func (r *Registry) Get(name string) *Command {
	return r.slash[name]
}

// Action looks up a command by action name.
func (r *Registry) Action(action string) *Command {
	return r.actions[action]
}

// All returns every command sorted by action name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.actions))
	for _, cmd := range r.actions {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Action < cmds[j].Action })
	return cmds
}

// Categories lists help categories in display order.
var Categories = []string{"Chat", "Conversations", "Settings", "Files", "General"}

// ByCategory groups the visible slash commands.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden || cmd.Name == "" {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Chat
	r.Register(&Command{
		Action:      ActionSend,
		Description: "Send the input line",
		Category:    "Chat",
		Handler:     handleSend,
	})

	r.Register(&Command{
		Action:      ActionImage,
		Name:        "/image",
		Aliases:     []string{"/img"},
		Description: "Generate an image from a prompt",
		Usage:       "/image <prompt>",
		Args: []ArgDef{
			{Name: "prompt", Required: true, Type: ArgTypeString, Description: "What to draw"},
		},
		Category: "Chat",
		Handler:  handleImage,
	})

	r.Register(&Command{
		Action:      ActionEnhance,
		Name:        "/enhance",
		Description: "Rewrite a prompt into a more detailed one",
		Usage:       "/enhance <text>",
		Args: []ArgDef{
			{Name: "text", Required: true, Type: ArgTypeString, Description: "Prompt to improve"},
		},
		Category: "Chat",
		Handler:  handleEnhance,
	})

	r.Register(&Command{
		Action:      ActionRegenerate,
		Name:        "/regenerate",
		Aliases:     []string{"/retry"},
		Description: "Send the last message again",
		Category:    "Chat",
		Handler:     handleRegenerate,
	})

	r.Register(&Command{
		Action:      ActionCopy,
		Name:        "/copy",
		Description: "Copy the last reply (or its last code block) to the clipboard",
		Usage:       "/copy [code]",
		Args: []ArgDef{
			{Name: "what", Type: ArgTypeEnum, Values: []string{"code"}, Description: "Copy only the last code block"},
		},
		Category: "Chat",
		Handler:  handleCopy,
	})

	// Conversations
	r.Register(&Command{
		Action:      ActionNew,
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new conversation",
		Category:    "Conversations",
		Handler:     handleNew,
	})

	r.Register(&Command{
		Action:      ActionLoad,
		Name:        "/load",
		Aliases:     []string{"/open"},
		Description: "Load a saved conversation",
		Usage:       "/load <id>",
		Args: []ArgDef{
			{Name: "id", Required: true, Type: ArgTypeConversation, Description: "Conversation id or unique prefix"},
		},
		Category: "Conversations",
		Handler:  handleLoad,
	})

	r.Register(&Command{
		Action:      ActionDelete,
		Name:        "/delete",
		Aliases:     []string{"/rm"},
		Description: "Delete a conversation (default: the current one)",
		Usage:       "/delete [id]",
		Args: []ArgDef{
			{Name: "id", Type: ArgTypeConversation, Description: "Conversation id or unique prefix"},
		},
		Category: "Conversations",
		Handler:  handleDelete,
	})

	r.Register(&Command{
		Action:      ActionClearHistory,
		Name:        "/clear-history",
		Description: "Delete every saved conversation",
		Category:    "Conversations",
		Handler:     handleClearHistory,
	})

	r.Register(&Command{
		Action:      ActionHistory,
		Name:        "/history",
		Aliases:     []string{"/hist"},
		Description: "Show saved conversations, optionally filtered",
		Usage:       "/history [filter]",
		Args: []ArgDef{
			{Name: "filter", Type: ArgTypeString, Description: "Text to match in titles and previews"},
		},
		Category: "Conversations",
		Handler:  handleHistory,
	})

	r.Register(&Command{
		Action:      ActionRename,
		Name:        "/rename",
		Description: "Rename the current conversation",
		Usage:       "/rename <name>",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypeString, Description: "New name"},
		},
		Category: "Conversations",
		Handler:  handleRename,
	})

	r.Register(&Command{
		Action:      ActionExport,
		Name:        "/export",
		Description: "Write the current conversation to a file",
		Usage:       "/export [md|json|html] [path]",
		Args: []ArgDef{
			{Name: "format", Type: ArgTypeEnum, Values: []string{"md", "json", "html"}, Description: "Output format"},
			{Name: "path", Type: ArgTypeFile, Description: "Output file"},
		},
		Category: "Conversations",
		Handler:  handleExport,
	})

	// Settings
	r.Register(&Command{
		Action:      ActionSettings,
		Name:        "/settings",
		Aliases:     []string{"/prefs"},
		Description: "Open the settings panel",
		Category:    "Settings",
		Handler:     handleSettings,
	})

	r.Register(&Command{
		Action:      ActionSaveSettings,
		Description: "Save settings from key=value pairs",
		Usage:       "save-settings theme=dark temperature=0.7 systemPrompt=...",
		Category:    "Settings",
		Handler:     handleSaveSettings,
	})

	r.Register(&Command{
		Action:      ActionResetSettings,
		Name:        "/reset-settings",
		Description: "Restore default settings",
		Category:    "Settings",
		Handler:     handleResetSettings,
	})

	r.Register(&Command{
		Action:      ActionTheme,
		Name:        "/theme",
		Description: "Switch or toggle the color theme",
		Usage:       "/theme [dark|light]",
		Args: []ArgDef{
			{Name: "name", Type: ArgTypeEnum, Values: []string{"dark", "light"}, Description: "Theme name"},
		},
		Category: "Settings",
		Handler:  handleTheme,
	})

	r.Register(&Command{
		Action:      ActionTemperature,
		Name:        "/temperature",
		Aliases:     []string{"/temp"},
		Description: "Show or set the sampling temperature",
		Usage:       "/temperature [0..1]",
		Args: []ArgDef{
			{Name: "value", Type: ArgTypeString, Description: "A number between 0 and 1"},
		},
		Category: "Settings",
		Handler:  handleTemperature,
	})

	r.Register(&Command{
		Action:      ActionSystem,
		Name:        "/system",
		Description: "Show, set or clear the system prompt",
		Usage:       "/system [prompt|clear]",
		Args: []ArgDef{
			{Name: "prompt", Type: ArgTypeString, Description: "New system prompt"},
		},
		Category: "Settings",
		Handler:  handleSystem,
	})

	// Files
	r.Register(&Command{
		Action:      ActionAttach,
		Name:        "/attach",
		Aliases:     []string{"/a"},
		Description: "Attach a file to the next message",
		Usage:       "/attach <path>",
		Args: []ArgDef{
			{Name: "path", Required: true, Type: ArgTypeFile, Description: "File to attach"},
		},
		Category: "Files",
		Handler:  handleAttach,
	})

	r.Register(&Command{
		Action:      ActionDetach,
		Name:        "/detach",
		Description: "Remove a pending attachment",
		Usage:       "/detach <name>",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypePending, Description: "Attachment name"},
		},
		Category: "Files",
		Handler:  handleDetach,
	})

	// General
	r.Register(&Command{
		Action:      ActionHelp,
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Category:    "General",
		Handler:     handleHelp,
	})

	r.Register(&Command{
		Action:      ActionQuit,
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit chatpad",
		Category:    "General",
		Handler:     handleQuit,
	})
}
