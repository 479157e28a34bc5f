// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A 1x1 transparent PNG.
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestFromBytes_Kinds(t *testing.T) {
	img := FromBytes("pixel.png", pngBytes)
	assert.True(t, img.IsImage())
	assert.Equal(t, "image/png", img.BaseMIME())

	txt := FromBytes("notes.txt", []byte("plain text content\n"))
	assert.False(t, txt.IsImage())
	assert.True(t, txt.IsText())
	assert.Equal(t, "text/plain", txt.BaseMIME())

	pdf := FromBytes("doc.pdf", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"))
	assert.Equal(t, "application/pdf", pdf.BaseMIME())
	assert.False(t, pdf.IsText())
}

func TestDescriptor(t *testing.T) {
	img := FromBytes("pixel.png", pngBytes).Descriptor()
	require.NotNil(t, img.Data)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), *img.Data)
	assert.Empty(t, img.Content)

	txt := FromBytes("notes.txt", []byte("hello")).Descriptor()
	assert.Nil(t, txt.Data)
	assert.Equal(t, "hello", txt.Content)
	assert.Equal(t, "notes.txt", txt.Name)

	bin := FromBytes("blob.pdf", []byte("%PDF-1.7\n")).Descriptor()
	assert.Nil(t, bin.Data)
	assert.Empty(t, bin.Content)
	assert.Equal(t, "application/pdf", bin.Type)
}

func TestLoad_TooLarge(t *testing.T) {
	path := writeFile(t, "big.bin", make([]byte, 2048))

	_, err := Load(path, 1024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))

	var tl *TooLargeError
	require.True(t, errors.As(err, &tl))
	assert.Equal(t, "big.bin", tl.Name)
	assert.Equal(t, int64(2048), tl.Size)

	a, err := Load(path, 4096)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), a.Size)
}

func TestFormatSize_BinaryUnits(t *testing.T) {
	assert.Equal(t, "10 MiB", FormatSize(DefaultMaxSize))
	assert.Equal(t, "2.0 KiB", FormatSize(2048))
	assert.Equal(t, "0 B", FormatSize(-1))

	err := &TooLargeError{Name: "scan.pdf", Size: 12_000_000, Limit: DefaultMaxSize}
	assert.Equal(t, "scan.pdf is 11 MiB, over the 10 MiB limit", err.Error())
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir(), 0)
	assert.Error(t, err)
}

func TestSet_RejectsOversized(t *testing.T) {
	s := NewSet(10)
	err := s.Add(FromBytes("big.txt", []byte("01234567890")))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Add(FromBytes("ok.txt", []byte("0123456789"))))
	assert.Equal(t, 1, s.Len())
}

func TestSet_AddRemoveTake(t *testing.T) {
	s := NewSet(0)
	assert.Equal(t, DefaultMaxSize, s.Limit())

	require.NoError(t, s.Add(FromBytes("a.txt", []byte("a"))))
	require.NoError(t, s.Add(FromBytes("b.txt", []byte("b"))))
	require.NoError(t, s.Add(FromBytes("a.txt", []byte("A2"))))
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "A2", string(s.List()[0].Data))

	assert.True(t, s.Remove("a.txt"))
	assert.False(t, s.Remove("a.txt"))

	taken := s.Take()
	require.Len(t, taken, 1)
	assert.Equal(t, "b.txt", taken[0].Name)
	assert.Equal(t, 0, s.Len())
}

func TestSet_AddPath(t *testing.T) {
	s := NewSet(1024)
	path := writeFile(t, "pixel.png", pngBytes)
	a, err := s.AddPath(path)
	require.NoError(t, err)
	assert.True(t, a.IsImage())
	assert.Equal(t, 1, s.Len())

	_, err = s.AddPath(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestEncode_PreservesOrder(t *testing.T) {
	var atts []Attachment
	for _, name := range []string{"1.txt", "2.txt", "3.txt", "4.txt", "5.txt", "6.txt"} {
		atts = append(atts, FromBytes(name, []byte("content "+name)))
	}
	files, err := Encode(context.Background(), atts)
	require.NoError(t, err)
	require.Len(t, files, len(atts))
	for i, f := range files {
		assert.Equal(t, atts[i].Name, f.Name)
		assert.Equal(t, "content "+atts[i].Name, f.Content)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Encode(ctx, atts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIconAndLabel(t *testing.T) {
	assert.Equal(t, "📕", Icon("report.PDF"))
	assert.Equal(t, "📘", Icon("letter.docx"))
	assert.Equal(t, "📗", Icon("sheet.xlsx"))
	assert.Equal(t, "📙", Icon("deck.ppt"))
	assert.Equal(t, "🗜", Icon("archive.rar"))
	assert.Equal(t, "📎", Icon("unknown.xyz"))

	a := FromBytes("notes.txt", make([]byte, 1500))
	assert.Equal(t, "📄 notes.txt (1.5 KiB)", a.Label())
}
