// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/jeranaias/chatpad-tui/internal/util"
)

// CodeBlock is one fenced block found in a message.
type CodeBlock struct {
	Language string
	Code     string
	// Detected is true when Language was guessed from the code.
	Detected bool
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// Sanitizer policies are safe for concurrent use once built.
	viewPolicy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowDataURIImages()
		return p
	}()
	stripPolicy = bluemonday.StrictPolicy()
)

type document struct {
	html string
	code []CodeBlock
}

// toHTML parses src once, collecting fenced code blocks and rendering HTML.
// Raw HTML in src is omitted by goldmark.
func toHTML(src string) document {
	source := []byte(src)
	root := markdown.Parser().Parse(text.NewReader(source))

	var doc document
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			doc.code = append(doc.code, codeBlock(fcb, source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := markdown.Renderer().Render(&buf, source, root); err != nil {
		doc.html = "<p>" + html.EscapeString(src) + "</p>"
		return doc
	}
	doc.html = buf.String()
	return doc
}

func codeBlock(fcb *ast.FencedCodeBlock, source []byte) CodeBlock {
	var b strings.Builder
	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	cb := CodeBlock{
		Language: string(fcb.Language(source)),
		Code:     strings.TrimRight(b.String(), "\n"),
	}
	if cb.Language == "" {
		if l := lexers.Analyse(cb.Code); l != nil {
			cb.Language = strings.ToLower(l.Config().Name)
			cb.Detected = true
		}
	}
	return cb
}

// ToHTML renders markdown to sanitized HTML. Inline data-URI images survive.
func ToHTML(md string) string {
	return sanitize(toHTML(md).html)
}

func sanitize(h string) string {
	return viewPolicy.Sanitize(h)
}

func strip(h string) string {
	return util.SingleLine(html.UnescapeString(stripPolicy.Sanitize(h)))
}

// StripMarkup returns md as a single line of plain text.
func StripMarkup(md string) string {
	return strip(toHTML(md).html)
}

// Preview strips markup and keeps at most n runes, adding "..." when cut.
func Preview(md string, n int) string {
	return util.Ellipsize(StripMarkup(md), n)
}
