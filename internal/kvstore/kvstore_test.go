// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendCase struct {
	name string
	open func(t *testing.T, quota int64) Store
}

func backends() []backendCase {
	return []backendCase{
		{"memory", func(t *testing.T, quota int64) Store {
			return NewMemoryStore(quota)
		}},
		{"file", func(t *testing.T, quota int64) Store {
			s, err := NewFileStore(t.TempDir(), quota)
			require.NoError(t, err)
			return s
		}},
		{"sqlite", func(t *testing.T, quota int64) Store {
			s, err := NewSQLiteStore(t.TempDir(), quota)
			require.NoError(t, err)
			return s
		}},
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t, 0)
			defer s.Close()

			_, err := s.Get("chatHistory")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set("chatHistory", []byte(`[]`)))
			require.NoError(t, s.Set("chatSettings", []byte(`{"theme":"dark"}`)))

			v, err := s.Get("chatSettings")
			require.NoError(t, err)
			assert.Equal(t, `{"theme":"dark"}`, string(v))

			require.NoError(t, s.Set("chatSettings", []byte(`{"theme":"light"}`)))
			v, err = s.Get("chatSettings")
			require.NoError(t, err)
			assert.Equal(t, `{"theme":"light"}`, string(v))

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"chatHistory", "chatSettings"}, keys)

			require.NoError(t, s.Delete("chatHistory"))
			require.NoError(t, s.Delete("chatHistory"), "delete is idempotent")
			_, err = s.Get("chatHistory")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_Quota(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t, 10)
			defer s.Close()

			require.NoError(t, s.Set("a", []byte("123456")))
			require.NoError(t, s.Set("b", []byte("1234")))

			err := s.Set("c", []byte("1"))
			assert.ErrorIs(t, err, ErrQuotaExceeded)

			// Replacing a value only counts the difference.
			require.NoError(t, s.Set("a", []byte("12")))
			require.NoError(t, s.Set("c", []byte("1234")))

			// A rejected write leaves the old value in place.
			assert.ErrorIs(t, s.Set("b", []byte("123456789")), ErrQuotaExceeded)
			v, err := s.Get("b")
			require.NoError(t, err)
			assert.Equal(t, "1234", string(v))
		})
	}
}

func TestStore_InvalidKey(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t, 0)
			defer s.Close()
			for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
				assert.ErrorIs(t, s.Set(key, []byte("x")), ErrInvalidKey, key)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	for _, name := range []string{BackendFile, BackendSQLite, BackendMemory} {
		s, err := Open(name, t.TempDir(), 0)
		require.NoError(t, err, name)
		require.NoError(t, s.Close())
	}
	_, err := Open("redis", t.TempDir(), 0)
	assert.Error(t, err)
}

func TestMemoryStore_FailWrites(t *testing.T) {
	s := NewMemoryStore(0)
	boom := errors.New("disk full")
	s.FailWrites = boom
	assert.ErrorIs(t, s.Set("k", []byte("v")), boom)
}

func TestSQLiteStore_Persists(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir, 0)
	require.NoError(t, err)
	require.NoError(t, s.Set("chatHistory", []byte(`[{"id":"x"}]`)))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(dir, 0)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get("chatHistory")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"x"}]`, string(v))
}

func TestFileStore_WatchReportsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx)
	require.NoError(t, err)

	// Our own write should not come back.
	require.NoError(t, s.Set("chatSettings", []byte(`{}`)))

	// Another process rewriting history should.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chatHistory.json"), []byte(`[]`), 0o600))

	select {
	case key := <-ch:
		assert.Equal(t, "chatHistory", key)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}

	select {
	case key := <-ch:
		t.Fatalf("unexpected extra event for %q", key)
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	for range ch {
	}
}
