// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jeranaias/chatpad-tui/internal/util"
)

// maxFileCompletions caps directory listings.
const maxFileCompletions = 20

// ConversationInfo is what the completer needs to know about a saved
// conversation.
type ConversationInfo struct {
	ID      string
	Title   string
	Preview string
}

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// ConversationsFn lists saved conversations.
	ConversationsFn func() []ConversationInfo
	// PendingFn lists pending attachment names.
	PendingFn func() []string
	// FilesFn overrides directory-based file completion.
	FilesFn func(prefix string) []string
}

// NewCompleter creates a completer for registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for input with the cursor at cursorPos.
func (c *Completer) Complete(input string, cursorPos int) []Completion {
	if cursorPos >= 0 && cursorPos < len(input) {
		input = input[:cursorPos]
	}
	input = strings.TrimLeft(input, " \t")

	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := splitCommandLine(input)
	endsWithSpace := strings.HasSuffix(input, " ")
	if len(parts) == 0 {
		return c.completeCommands("")
	}
	if len(parts) == 1 && !endsWithSpace {
		return c.completeCommands(parts[0])
	}

	cmd := c.registry.Get(strings.ToLower(parts[0]))
	if cmd == nil {
		return nil
	}

	argIndex := len(parts) - 2
	partial := ""
	if endsWithSpace {
		argIndex++
	} else {
		partial = parts[len(parts)-1]
	}
	return c.completeArg(cmd, argIndex, partial)
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

func (c *Completer) completeCommands(partial string) []Completion {
	var completions []Completion
	partial = strings.ToLower(partial)

	for _, cmd := range c.registry.All() {
		if cmd.Hidden || cmd.Name == "" {
			continue
		}
		name := Completion{
			Value:       cmd.Name,
			Display:     cmd.Name,
			Description: cmd.Description,
			Score:       calculateScore(cmd.Name, partial),
		}
		nameIdx := -1
		if strings.HasPrefix(cmd.Name, partial) {
			nameIdx = len(completions)
			completions = append(completions, name)
		}
		for _, alias := range cmd.Aliases {
			// A fully typed alias completes to its command.
			if alias == partial {
				if nameIdx < 0 {
					nameIdx = len(completions)
					completions = append(completions, name)
				}
				completions[nameIdx].Score = calculateScore(alias, partial)
				continue
			}
			if strings.HasPrefix(alias, partial) {
				completions = append(completions, Completion{
					Value:       alias,
					Display:     alias + " -> " + cmd.Name,
					Description: cmd.Description,
					Score:       calculateScore(alias, partial) - 10,
				})
			}
		}
	}

	sortCompletions(completions)
	return completions
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

func (c *Completer) completeArg(cmd *Command, argIndex int, partial string) []Completion {
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	arg := cmd.Args[argIndex]
	switch arg.Type {
	case ArgTypeConversation:
		return c.completeConversations(partial)
	case ArgTypeFile:
		return c.completeFiles(partial)
	case ArgTypeEnum:
		return completeFromList(arg.Values, partial)
	case ArgTypePending:
		if c.PendingFn == nil {
			return nil
		}
		return completeFromList(c.PendingFn(), partial)
	default:
		return nil
	}
}

// completeConversations matches id prefixes first, then titles.
func (c *Completer) completeConversations(partial string) []Completion {
	if c.ConversationsFn == nil {
		return nil
	}

	var completions []Completion
	partial = strings.ToLower(partial)

	for _, conv := range c.ConversationsFn() {
		idMatch := strings.HasPrefix(conv.ID, partial)
		titleMatch := partial != "" && strings.Contains(strings.ToLower(conv.Title), partial)
		if !idMatch && !titleMatch {
			continue
		}

		score := calculateScore(conv.ID, partial)
		if titleMatch && !idMatch {
			score -= 5
		}
		display := shortID(conv.ID)
		if conv.Title != "" {
			display += " - " + util.Ellipsize(conv.Title, 30)
		}
		completions = append(completions, Completion{
			Value:       conv.ID,
			Display:     display,
			Description: conv.Preview,
			Score:       score,
		})
	}

	sortCompletions(completions)
	return completions
}

func (c *Completer) completeFiles(partial string) []Completion {
	if c.FilesFn != nil {
		return completeFromList(c.FilesFn(partial), partial)
	}
	return defaultFileCompletion(partial)
}

// defaultFileCompletion lists directory entries matching partial.
func defaultFileCompletion(partial string) []Completion {
	var completions []Completion

	sep := string(os.PathSeparator)
	dir, prefix := filepath.Dir(partial), filepath.Base(partial)
	switch {
	case partial == "":
		dir, prefix = ".", ""
	case strings.HasSuffix(partial, sep):
		dir, prefix = partial, ""
	}
	bare := !strings.Contains(partial, sep)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	lowerPrefix := strings.ToLower(prefix)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}

		path := name
		if !bare {
			path = filepath.Join(dir, name)
		}
		score := calculateScore(name, lowerPrefix)
		desc := ""
		if entry.IsDir() {
			path += string(os.PathSeparator)
			score += 5
			desc = "directory"
		} else if info, err := entry.Info(); err == nil {
			desc = humanize.IBytes(uint64(info.Size()))
		}

		completions = append(completions, Completion{
			Value:       path,
			Display:     name,
			Description: desc,
			Score:       score,
		})
	}

	sortCompletions(completions)
	if len(completions) > maxFileCompletions {
		completions = completions[:maxFileCompletions]
	}
	return completions
}

func completeFromList(values []string, partial string) []Completion {
	var completions []Completion
	partial = strings.ToLower(partial)

	for _, value := range values {
		if strings.HasPrefix(strings.ToLower(value), partial) {
			completions = append(completions, Completion{
				Value:   value,
				Display: value,
				Score:   calculateScore(value, partial),
			})
		}
	}

	sortCompletions(completions)
	return completions
}

// calculateScore ranks a prefix match. Exact matches win, then shorter
// values.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100
	if value == partial {
		return score + 100
	}
	if strings.HasPrefix(value, partial) {
		score += 50
		score += 20 - len(value)
	}
	return score - len(value)/2
}

// sortCompletions orders by score, then alphabetically.
func sortCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}

// Apply replaces the token being typed in input with value.
func Apply(input, value string) string {
	trimmed := strings.TrimRight(input, " ")
	if trimmed != input {
		return input + value
	}
	idx := strings.LastIndexAny(input, " \t")
	return input[:idx+1] + value
}

// =============================================================================
// COMPLETION NAVIGATION
// =============================================================================

// Completion is one suggestion.
type Completion struct {
	Value       string
	Display     string
	Description string
	Score       int
}

// CompletionState tracks cycling through suggestions.
type CompletionState struct {
	OriginalInput string
	Completions   []Completion
	Selected      int
	Visible       bool
}

// NewCompletionState creates an empty state.
func NewCompletionState() *CompletionState {
	return &CompletionState{Selected: -1}
}

// Update replaces the suggestions, selecting the first.
func (cs *CompletionState) Update(input string, completions []Completion) {
	cs.OriginalInput = input
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next moves to the next suggestion, wrapping.
func (cs *CompletionState) Next() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected = (cs.Selected + 1) % len(cs.Completions)
}

// Prev moves to the previous suggestion, wrapping.
func (cs *CompletionState) Prev() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected--
	if cs.Selected < 0 {
		cs.Selected = len(cs.Completions) - 1
	}
}

// Accept returns the selected value, the first one if nothing is selected.
func (cs *CompletionState) Accept() string {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		if len(cs.Completions) > 0 {
			return cs.Completions[0].Value
		}
		return ""
	}
	return cs.Completions[cs.Selected].Value
}

// Clear hides and empties the state.
func (cs *CompletionState) Clear() {
	cs.OriginalInput = ""
	cs.Completions = nil
	cs.Selected = -1
	cs.Visible = false
}
