// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatHistory.json")
	data := []byte(`[{"id":"a"}]`)

	if err := AtomicWriteFile(path, data, 0o600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", content, data)
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "kv", "chatSettings.json")

	if err := AtomicWriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("File not created: %v", err)
	}
}

func TestAtomicWriteFile_OverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "value.json")

	if err := AtomicWriteFile(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "second" {
		t.Errorf("got %q, want %q", content, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

// =============================================================================
// TEXT TESTS
// =============================================================================

func TestEllipsize(t *testing.T) {
	long := strings.Repeat("a", 60)
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Hello", 50, "Hello"},
		{"exact", strings.Repeat("b", 50), 50, strings.Repeat("b", 50)},
		{"long", long, 50, strings.Repeat("a", 50) + "..."},
		{"multibyte", "日本語のテキスト", 3, "日本語..."},
		{"zero", "anything", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ellipsize(tt.in, tt.n); got != tt.want {
				t.Errorf("Ellipsize(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestClipWidth(t *testing.T) {
	if got := ClipWidth("hello", 10); got != "hello" {
		t.Errorf("ClipWidth short = %q", got)
	}
	got := ClipWidth("日本語のテキスト", 7)
	if w := runewidth.StringWidth(got); w > 7 {
		t.Errorf("ClipWidth width = %d, want <= 7 (%q)", w, got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("ClipWidth missing tail: %q", got)
	}
	if ClipWidth("x", 0) != "" {
		t.Error("ClipWidth with zero width should be empty")
	}
}

func TestPadWidth(t *testing.T) {
	if got := PadWidth("ab", 5); got != "ab   " {
		t.Errorf("PadWidth = %q", got)
	}
	if w := runewidth.StringWidth(PadWidth("a very long title", 6)); w != 6 {
		t.Errorf("PadWidth width = %d, want 6", w)
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("  line one\n\n line\ttwo  "); got != "line one line two" {
		t.Errorf("SingleLine = %q", got)
	}
}
