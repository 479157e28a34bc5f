// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Storage.MaxConversations != 20 {
		t.Errorf("MaxConversations = %d, want 20", cfg.Storage.MaxConversations)
	}
	if cfg.Attachments.MaxSizeBytes != 10*1024*1024 {
		t.Errorf("MaxSizeBytes = %d, want 10MB", cfg.Attachments.MaxSizeBytes)
	}
	if cfg.Storage.SettingsKey != "chatSettings" || cfg.Storage.HistoryKey != "chatHistory" {
		t.Errorf("unexpected storage keys: %q %q", cfg.Storage.SettingsKey, cfg.Storage.HistoryKey)
	}
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.BaseURL = "not a url"
	cfg.Storage.Backend = "redis"
	cfg.Storage.MaxConversations = 0
	cfg.UI.ImageCommands = []string{"image"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidateErrors, got %T", err)
	}

	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, want := range []string{"backend.base_url", "storage.backend", "storage.max_conversations", "ui.image_commands[0]"} {
		if !fields[want] {
			t.Errorf("missing validation error for %s (got %v)", want, err)
		}
	}
}

func TestValidate_KeysMustDiffer(t *testing.T) {
	cfg := Default()
	cfg.Storage.HistoryKey = cfg.Storage.SettingsKey
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when history and settings share a key")
	}
}

func TestLoadFromPath_TOMLFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[backend]
base_url = "http://localhost:8080"

[storage]
backend = "sqlite"
max_conversations = 5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.MaxConversations != 5 {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	// Untouched sections come from defaults.
	if cfg.Storage.HistoryKey != DefaultHistoryKey {
		t.Errorf("HistoryKey = %q, want default", cfg.Storage.HistoryKey)
	}
	if cfg.Attachments.MaxSizeBytes != DefaultMaxAttachment {
		t.Errorf("MaxSizeBytes = %d, want default", cfg.Attachments.MaxSizeBytes)
	}
	if len(cfg.UI.ImageCommands) == 0 {
		t.Error("ImageCommands should default")
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"logging":{"level":"debug"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromPath_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestLoad_UsesChatpadHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CHATPAD_HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with no files failed: %v", err)
	}
	if cfg.Backend.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.Backend.BaseURL)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if dataDir != filepath.Join(home, "data") {
		t.Errorf("DataDir = %q", dataDir)
	}
}

func TestLoad_MalformedFileReturnsDefaultsAndError(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CHATPAD_HOME", home)
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte("[backend\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err == nil {
		t.Error("expected load error to be reported")
	}
	if cfg == nil || cfg.Storage.MaxConversations != DefaultMaxConversations {
		t.Errorf("expected usable defaults, got %+v", cfg)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CHATPAD_BASE_URL", "http://example.test:9000/")
	t.Setenv("CHATPAD_STORAGE", "MEMORY")
	t.Setenv("CHATPAD_TIMEOUT", "30")
	t.Setenv("CHATPAD_LOG_LEVEL", "DEBUG")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Backend.BaseURL != "http://example.test:9000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Backend.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d", cfg.Backend.TimeoutSecs)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Backend.RequestsPerMinute = 12
	cfg.Metrics.ListenAddr = "127.0.0.1:9464"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# chatpad configuration file") {
		t.Error("missing header comment")
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Backend.RequestsPerMinute != 12 || loaded.Metrics.ListenAddr != "127.0.0.1:9464" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestSave_JSONByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Storage.MaxConversations = 5

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "{") {
		t.Errorf("expected JSON, got %q", data)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Storage.MaxConversations != 5 {
		t.Errorf("MaxConversations = %d, want 5", loaded.Storage.MaxConversations)
	}
}

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("storage.max_conversations", "7"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, err := cfg.Get("storage.max_conversations")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v.(int) != 7 {
		t.Errorf("max_conversations = %v, want 7", v)
	}

	if err := cfg.Set("storage.watch", "false"); err != nil {
		t.Fatalf("Set bool failed: %v", err)
	}
	if cfg.Storage.Watch {
		t.Error("watch should be false")
	}

	if err := cfg.Set("ui.image_commands", "/image, /draw"); err != nil {
		t.Fatalf("Set slice failed: %v", err)
	}
	if len(cfg.UI.ImageCommands) != 2 || cfg.UI.ImageCommands[1] != "/draw" {
		t.Errorf("ImageCommands = %v", cfg.UI.ImageCommands)
	}

	if _, err := cfg.Get("storage.nope"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := cfg.Set("backend.base_url.extra", "x"); err == nil {
		t.Error("expected error when descending into a leaf")
	}
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	want := map[string]bool{"backend.base_url": false, "storage.quota_bytes": false, "metrics.listen_addr": false}
	for _, k := range keys {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("GetAllKeys missing %s", k)
		}
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.UI.ImageCommands[0] = "/changed"
	if cfg.UI.ImageCommands[0] == "/changed" {
		t.Error("Clone shares ImageCommands backing array")
	}
}

// Run with -race.
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	t.Setenv("CHATPAD_HOME", t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
	ResetGlobalForTesting()
}
