// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"sort"
	"sync"
)

// MemoryStore keeps values in a map.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	total  int64
	quota  int64
	closed bool

	// FailWrites, when set, makes every Set and Delete return it. Tests use
	// it to simulate a full or broken disk.
	FailWrites error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), quota: quota}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.FailWrites != nil {
		return s.FailWrites
	}
	old := int64(len(s.data[key]))
	if overQuota(s.quota, s.total, old, int64(len(value))) {
		return ErrQuotaExceeded
	}
	s.data[key] = append([]byte(nil), value...)
	s.total += int64(len(value)) - old
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.total -= int64(len(s.data[key]))
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
