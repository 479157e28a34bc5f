// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// ParseResult is the parsed form of one input line.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if unknown)
	Command *Command

	// CommandName is the raw command name (e.g. "/theme")
	CommandName string

	// Args are the tokenized arguments
	Args []string

	// RawArgs is everything after the command name, untokenized
	RawArgs string

	RawInput string
}

// Parser resolves slash commands against a registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser for registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse splits input into a command and arguments. Input without a leading
// slash is returned with IsCommand false.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	result := ParseResult{RawInput: input}

	if !strings.HasPrefix(input, "/") {
		return result
	}
	result.IsCommand = true

	name := input
	if end := strings.IndexFunc(input, unicode.IsSpace); end >= 0 {
		name = input[:end]
		result.RawArgs = strings.TrimSpace(input[end:])
	}
	result.CommandName = name
	result.Args = splitCommandLine(result.RawArgs)
	result.Command = p.registry.Get(strings.ToLower(name))
	return result
}

// ParseArgs tokenizes an argument string, honoring quotes.
func ParseArgs(input string) []string {
	return splitCommandLine(input)
}

// splitCommandLine splits a command line into tokens. Single and double
// quotes group words; a backslash escapes a quote inside quotes.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote, quoted bool

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		char := runes[i]

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			quoted = true

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			quoted = true

		case char == '\\' && i+1 < len(runes) && (inDoubleQuote || inSingleQuote):
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
				quoted = false
			}

		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// IsCommand reports whether input looks like a slash command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ValidateArgs checks required arguments and enum values.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}

	for i, argDef := range cmd.Args {
		if argDef.Required && i >= len(args) {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      argDef.Name,
				Message:  "required argument missing",
				Expected: argDef.Description,
			}
		}

		if i < len(args) && argDef.Type == ArgTypeEnum && len(argDef.Values) > 0 {
			valid := false
			for _, v := range argDef.Values {
				if strings.EqualFold(args[i], v) {
					valid = true
					break
				}
			}
			if !valid {
				return &ValidationError{
					Command:  cmd.Name,
					Arg:      argDef.Name,
					Message:  "invalid value",
					Got:      args[i],
					Expected: strings.Join(argDef.Values, ", "),
				}
			}
		}
	}
	return nil
}

// ValidationError is an argument error reported before a handler runs.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	msg := e.Command + ": " + e.Message
	if e.Arg != "" {
		msg += " for argument '" + e.Arg + "'"
	}
	if e.Got != "" {
		msg += " (got: " + e.Got + ")"
	}
	if e.Expected != "" {
		msg += " - expected: " + e.Expected
	}
	return msg
}
