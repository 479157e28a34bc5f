// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/chatpad-tui/internal/model"
)

func sampleConversation() *model.Conversation {
	ts := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	return &model.Conversation{
		ID:        "01hzxabcdefgh",
		Title:     "Hello world",
		Timestamp: ts,
		Messages: []model.Message{
			{Role: model.RoleUser, Kind: model.KindText, Content: "Show me Go", Timestamp: ts},
			{Role: model.RoleBot, Kind: model.KindText, Content: "```go\nfmt.Println(\"hi\")\n```", Timestamp: ts},
			{Role: model.RoleUser, Kind: model.KindImageRequest, Content: model.ImageRequestContent("a red fox"), Timestamp: ts},
			{Role: model.RoleBot, Kind: model.KindImage, Content: model.ImageMarkdown("image/png", "QUJD"), Timestamp: ts},
		},
	}
}

func TestFor(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"md", ".md"},
		{"markdown", ".md"},
		{"", ".md"},
		{"JSON", ".json"},
		{"html", ".html"},
	}
	for _, tt := range tests {
		exp, err := For(tt.format, nil)
		if err != nil {
			t.Fatalf("For(%q) error: %v", tt.format, err)
		}
		if got := exp.FileExtension(); got != tt.ext {
			t.Errorf("For(%q).FileExtension() = %q, want %q", tt.format, got, tt.ext)
		}
	}

	if _, err := For("pdf", nil); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("For(pdf) error = %v, want ErrUnknownFormat", err)
	}
}

func TestNilConversation(t *testing.T) {
	for _, format := range Formats {
		exp, _ := For(format, nil)
		if _, err := exp.Export(nil); !errors.Is(err, ErrNilConversation) {
			t.Errorf("%s: Export(nil) error = %v, want ErrNilConversation", format, err)
		}
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"title: Hello world\n",
		"# Hello world\n",
		"### You <sub>",
		"### Bot <sub>",
		"```go\nfmt.Println(\"hi\")\n```",
		"> a red fox",
		"](data:image/png;base64,QUJD)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExport_NoTimestamps(t *testing.T) {
	out, _ := NewMarkdownExporter(&Options{}).Export(sampleConversation())
	if strings.Contains(string(out), "<sub>") {
		t.Error("timestamps written with IncludeTimestamps false")
	}
}

func TestYAMLTitleEscaping(t *testing.T) {
	conv := &model.Conversation{ID: "c1", Title: "Evil\ntitle: injected"}
	out, _ := NewMarkdownExporter(nil).Export(conv)
	if !strings.Contains(string(out), `title: "Evil\ntitle: injected"`) {
		t.Errorf("title not quoted:\n%s", out)
	}
}

func TestJSONExport(t *testing.T) {
	conv := sampleConversation()
	out, err := NewJSONExporter().Export(conv)
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	var back model.Conversation
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if back.Title != conv.Title || len(back.Messages) != len(conv.Messages) {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestHTMLExport(t *testing.T) {
	out, err := NewHTMLExporter(&Options{Theme: "light"}).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	page := string(out)

	for _, want := range []string{
		"<title>Hello world</title>",
		`<body class="light-theme">`,
		`class="message user-message"`,
		`class="message bot-message"`,
		"<pre>",
		"Image prompt:</em> a red fox",
		`src="data:image/png;base64,QUJD"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestHTMLExport_SanitizesContent(t *testing.T) {
	conv := &model.Conversation{
		ID:    "c1",
		Title: "<script>alert(1)</script>",
		Messages: []model.Message{
			{Role: model.RoleBot, Content: "hi <script>alert('xss')</script> <img src=x onerror=alert(1)>"},
		},
	}
	out, _ := NewHTMLExporter(nil).Export(conv)
	page := string(out)

	if strings.Contains(page, "<script>") {
		t.Error("script tag survived export")
	}
	if strings.Contains(page, "onerror") {
		t.Error("event handler survived export")
	}
	if !strings.Contains(page, `<body class="dark-theme">`) {
		t.Error("dark theme is not the default")
	}
}

func TestFilenameSanitization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Trip plan", "Trip_plan"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "conversation"},
		{"   ", "conversation"},
		{"bell\x07", "bell-"},
		{strings.Repeat("x", 60), strings.Repeat("x", 40)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	conv := sampleConversation()

	path, err := ToFile(conv, NewJSONExporter(), dir)
	if err != nil {
		t.Fatalf("ToFile error: %v", err)
	}
	if want := filepath.Join(dir, "chatpad-Hello_world-01hzxabc.json"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !json.Valid(data) {
		t.Error("written file is not JSON")
	}

	if _, err := ToFile(nil, NewJSONExporter(), dir); !errors.Is(err, ErrNilConversation) {
		t.Errorf("ToFile(nil) error = %v", err)
	}
}
