// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach loads files for sending alongside a chat message.
//
// Files are sniffed with mimetype rather than trusted by extension. Images
// travel to the backend as base64, text files as their raw content, and
// anything else as name and type only. Files over the size limit are refused
// before any bytes are read.
package attach

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/chatpad-tui/internal/backend"
)

// DefaultMaxSize is the per-file limit.
const DefaultMaxSize int64 = 10 * 1024 * 1024

// NoticeTooLarge is shown when a file is refused for size.
const NoticeTooLarge = "File size too large. Please select files under 10MB."

// ErrTooLarge is matched by *TooLargeError.
var ErrTooLarge = errors.New("attachment exceeds size limit")

// TooLargeError names the refused file.
type TooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s is %s, over the %s limit", e.Name, FormatSize(e.Size), FormatSize(e.Limit))
}

func (e *TooLargeError) Is(target error) bool { return target == ErrTooLarge }

// =============================================================================
// ATTACHMENT
// =============================================================================

// Attachment is one file held in memory until the message is sent.
type Attachment struct {
	Name string
	MIME string
	Size int64
	Data []byte

	text bool
}

// FromBytes builds an attachment from in-memory data.
func FromBytes(name string, data []byte) Attachment {
	m := mimetype.Detect(data)
	return Attachment{
		Name: name,
		MIME: m.String(),
		Size: int64(len(data)),
		Data: data,
		text: isText(m) && utf8.Valid(data),
	}
}

// Load reads path, refusing it without reading when it exceeds limit.
func Load(path string, limit int64) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, err
	}
	if info.IsDir() {
		return Attachment{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	if limit > 0 && info.Size() > limit {
		return Attachment{}, &TooLargeError{Name: name, Size: info.Size(), Limit: limit}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, err
	}
	return FromBytes(name, data), nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// IsImage reports whether the file is sent as base64 image data.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIME, "image/")
}

// IsText reports whether the file's content is sent inline.
func (a Attachment) IsText() bool {
	return a.text
}

// BaseMIME strips parameters such as "; charset=utf-8".
func (a Attachment) BaseMIME() string {
	mt, _, _ := strings.Cut(a.MIME, ";")
	return strings.TrimSpace(mt)
}

// Descriptor builds the wire form of the attachment.
func (a Attachment) Descriptor() backend.File {
	f := backend.File{Type: a.BaseMIME(), Name: a.Name}
	switch {
	case a.IsImage():
		data := base64.StdEncoding.EncodeToString(a.Data)
		f.Data = &data
	case a.IsText():
		f.Content = string(a.Data)
	}
	return f
}

// Encode builds descriptors for every attachment, in order, encoding them
// in parallel.
func Encode(ctx context.Context, atts []Attachment) ([]backend.File, error) {
	out := make([]backend.File, len(atts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, a := range atts {
		i, a := i, a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = a.Descriptor()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FormatSize renders a byte count in binary units, such as "2.1 MiB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Icon returns a glyph for the file type, keyed by extension.
func Icon(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "pdf":
		return "📕"
	case "doc", "docx":
		return "📘"
	case "txt", "md":
		return "📄"
	case "xls", "xlsx", "csv":
		return "📗"
	case "ppt", "pptx":
		return "📙"
	case "zip", "rar", "7z", "gz":
		return "🗜"
	case "png", "jpg", "jpeg", "gif", "webp":
		return "🖼"
	default:
		return "📎"
	}
}

// Label is the chip shown for a pending attachment: icon, name and size.
func (a Attachment) Label() string {
	return Icon(a.Name) + " " + a.Name + " (" + FormatSize(a.Size) + ")"
}

// =============================================================================
// PENDING SET
// =============================================================================

// Set holds the attachments waiting for the next message.
type Set struct {
	mu    sync.Mutex
	items []Attachment
	limit int64
}

// NewSet creates an empty set enforcing limit per file.
func NewSet(limit int64) *Set {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	return &Set{limit: limit}
}

// Limit returns the per-file size limit.
func (s *Set) Limit() int64 { return s.limit }

// Add queues a, refusing it when it exceeds the limit. A file with the same
// name replaces the earlier one.
func (s *Set) Add(a Attachment) error {
	if a.Size > s.limit {
		return &TooLargeError{Name: a.Name, Size: a.Size, Limit: s.limit}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Name == a.Name {
			s.items[i] = a
			return nil
		}
	}
	s.items = append(s.items, a)
	return nil
}

// AddPath loads and queues a file.
func (s *Set) AddPath(path string) (Attachment, error) {
	a, err := Load(path, s.limit)
	if err != nil {
		return Attachment{}, err
	}
	return a, s.Add(a)
}

// Remove drops the named attachment, releasing its buffer.
func (s *Set) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Name == name {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a snapshot of the queued attachments.
func (s *Set) List() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Attachment(nil), s.items...)
}

// Len returns the number of queued attachments.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Take returns the queued attachments and empties the set.
func (s *Set) Take() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items
	s.items = nil
	return items
}

// Clear empties the set.
func (s *Set) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}
