// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits subcommand arguments into flags and positionals.
//
// Supported forms:
//
//	--flag value     long flag with a value
//	--flag=value     long flag with equals sign
//	-f value         short flag
//	--flag           boolean flag
//	--               everything after is positional
//
// Flags named in bools never take a value, so "--json list" keeps "list"
// as a positional. A flag given more than once keeps every value (see
// FlagValues).
type ArgParser struct {
	subcommand string
	flags      map[string][]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser parses raw. bools lists the boolean flag names.
//
// Example:
//
//	p := NewArgParser([]string{"export", "01j", "--format", "json", "--json"}, "json")
//	p.Subcommand()     // "export"
//	p.Positional(1)    // "01j"
//	p.Flag("format")   // "json"
//	p.BoolFlag("json") // true
func NewArgParser(raw []string, bools ...string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string][]string),
		boolFlags: make(map[string]bool),
	}
	isBool := make(map[string]bool, len(bools))
	for _, b := range bools {
		isBool[b] = true
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" || isNumber(arg) {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if k, v, ok := strings.Cut(name, "="); ok {
			if isBool[k] || v == "true" || v == "false" {
				p.boolFlags[k] = v != "false"
			} else {
				p.flags[k] = append(p.flags[k], v)
			}
			continue
		}

		if !isBool[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = append(p.flags[name], raw[i+1])
			i++
			continue
		}
		p.boolFlags[name] = true
	}

	if len(p.positional) > 0 {
		p.subcommand = p.positional[0]
	}
	return p
}

// isNumber keeps negative numbers positional.
func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Subcommand returns the first positional argument.
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the last value given for name, trying each alias in turn.
func (p *ArgParser) Flag(names ...string) string {
	for _, name := range names {
		if vals := p.flags[strings.TrimLeft(name, "-")]; len(vals) > 0 {
			return vals[len(vals)-1]
		}
	}
	return ""
}

// FlagValues returns every value given for the names, in order.
func (p *ArgParser) FlagValues(names ...string) []string {
	var out []string
	for _, name := range names {
		out = append(out, p.flags[strings.TrimLeft(name, "-")]...)
	}
	return out
}

// FlagOrDefault returns the flag value or def.
func (p *ArgParser) FlagOrDefault(name, def string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return def
}

// FlagInt returns the flag value as an integer.
func (p *ArgParser) FlagInt(name string) (int, error) {
	val := p.Flag(name)
	if val == "" {
		return 0, fmt.Errorf("flag %s not found", name)
	}
	return strconv.Atoi(val)
}

// FlagIntOrDefault returns the flag as an integer, or def when it is
// missing or malformed.
func (p *ArgParser) FlagIntOrDefault(name string, def int) int {
	val, err := p.FlagInt(name)
	if err != nil {
		return def
	}
	return val
}

// BoolFlag reports whether any of the names was set.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, name := range names {
		if p.boolFlags[strings.TrimLeft(name, "-")] {
			return true
		}
	}
	return false
}

// Positional returns the positional argument at index; 0 is the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns the positionals starting at index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// HasFlag reports whether the flag was given in either form.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// JoinPositionalArgs joins the positionals from startIndex into one string,
// for commands that take free text.
func JoinPositionalArgs(p *ArgParser, startIndex int) string {
	return strings.Join(p.PositionalFrom(startIndex), " ")
}
