// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
)

// HighlightCode colors code for a 256-color terminal. It returns code
// unchanged when highlighting fails.
func HighlightCode(code, language, style string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code
	}
	return buf.String()
}

// CodeBox draws a code block with line numbers and a language badge.
func CodeBox(cb CodeBlock, theme *styles.Theme, width int) string {
	lines := strings.Split(HighlightCode(cb.Code, cb.Language, theme.ChromaStyle()), "\n")

	lineNum := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	var b strings.Builder
	if cb.Language != "" {
		b.WriteString(theme.CodeLangBase.Render(cb.Language))
		b.WriteString("\n")
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(lineNum.Render(strconv.Itoa(i + 1)))
		b.WriteString(line)
	}

	maxWidth := width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(b.String())
}
