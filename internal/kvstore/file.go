// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/chatpad-tui/internal/util"
)

const fileExt = ".json"

// watchDebounce coalesces the burst of events an atomic rename produces.
const watchDebounce = 150 * time.Millisecond

// FileStore keeps each key in <dir>/<key>.json.
type FileStore struct {
	dir   string
	quota int64

	mu     sync.Mutex
	closed bool

	// written remembers the digest of our own last write per key so the
	// watcher does not report them back as external changes.
	written map[string][sha256.Size]byte
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, quota int64) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("kvstore: file backend needs a directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("kvstore: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir, quota: quota, written: make(map[string][sha256.Size]byte)}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStore) Get(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if s.quota > 0 {
		total, old, err := s.usage(key)
		if err != nil {
			return err
		}
		if overQuota(s.quota, total, old, int64(len(value))) {
			return ErrQuotaExceeded
		}
	}

	if err := util.AtomicWriteFile(s.path(key), value, 0o600); err != nil {
		return fmt.Errorf("kvstore: write %s: %w", key, err)
	}
	s.written[key] = sha256.Sum256(value)
	return nil
}

func (s *FileStore) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.written, key)
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("kvstore: list %s: %w", s.dir, err)
	}
	var keys []string
	for _, e := range entries {
		if k, ok := keyFromName(e.Name()); ok && !e.IsDir() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// usage sums the size of every key file and returns it with key's own size.
// Caller holds mu.
func (s *FileStore) usage(key string) (total, own int64, err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("kvstore: list %s: %w", s.dir, err)
	}
	for _, e := range entries {
		k, ok := keyFromName(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
		if k == key {
			own = info.Size()
		}
	}
	return total, own, nil
}

func keyFromName(name string) (string, bool) {
	if !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
		return "", false
	}
	k := strings.TrimSuffix(name, fileExt)
	return k, checkKey(k) == nil
}

// =============================================================================
// WATCH
// =============================================================================

// Watch reports keys whose files were changed by someone other than this
// store. Events are debounced; our own writes are filtered out by digest.
func (s *FileStore) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("kvstore: watch: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("kvstore: watch %s: %w", s.dir, err)
	}

	out := make(chan string, 8)
	go s.watchLoop(ctx, w, out)
	return out, nil
}

func (s *FileStore) watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer w.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			key, ok := keyFromName(filepath.Base(ev.Name))
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			timer.Reset(watchDebounce)

		case <-timer.C:
			for key := range pending {
				delete(pending, key)
				if s.isOwnWrite(key) {
					continue
				}
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			}

		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *FileStore) isOwnWrite(key string) bool {
	data, err := os.ReadFile(s.path(key))
	s.mu.Lock()
	defer s.mu.Unlock()
	digest, known := s.written[key]
	if err != nil {
		// Removed: ours only if we deleted it (and so forgot the digest).
		return !known
	}
	return known && digest == sha256.Sum256(data)
}
