// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);`

// SQLiteStore keeps every key as a row in <dir>/chatpad.db.
type SQLiteStore struct {
	db    *sql.DB
	quota int64
}

// NewSQLiteStore opens (creating if needed) chatpad.db under dir. An empty
// dir or ":memory:" opens an in-memory database.
func NewSQLiteStore(dir string, quota int64) (*SQLiteStore, error) {
	dsn := ":memory:"
	if dir != "" && dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("kvstore: create %s: %w", dir, err)
		}
		dsn = filepath.Join(dir, "chatpad.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open sqlite: %w", err)
	}

	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("kvstore: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: create schema: %w", err)
	}

	return &SQLiteStore{db: db, quota: quota}, nil
}

func (s *SQLiteStore) Get(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("kvstore: begin: %w", err)
	}
	defer tx.Rollback()

	if s.quota > 0 {
		var total, own sql.NullInt64
		err := tx.QueryRow(`SELECT
		    COALESCE(SUM(length(value)), 0),
		    COALESCE(SUM(CASE WHEN key = ? THEN length(value) END), 0)
		  FROM kv`, key).Scan(&total, &own)
		if err != nil {
			return fmt.Errorf("kvstore: usage: %w", err)
		}
		if overQuota(s.quota, total.Int64, own.Int64, int64(len(value))) {
			return ErrQuotaExceeded
		}
	}

	_, err = tx.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("kvstore: set %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("kvstore: keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
