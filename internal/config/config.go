// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/jeranaias/chatpad-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the root chatpad configuration.
type Config struct {
	Backend     BackendConfig     `toml:"backend" json:"backend"`
	Storage     StorageConfig     `toml:"storage" json:"storage"`
	Attachments AttachmentsConfig `toml:"attachments" json:"attachments"`
	UI          UIConfig          `toml:"ui" json:"ui"`
	Logging     LoggingConfig     `toml:"logging" json:"logging"`
	Metrics     MetricsConfig     `toml:"metrics" json:"metrics"`
}

// BackendConfig describes the remote chat/image backend.
type BackendConfig struct {
	// BaseURL is prefixed to /send_message and /generate_image.
	BaseURL string `toml:"base_url" json:"base_url" validate:"required,url"`

	// TimeoutSecs bounds a single request. Zero means no client timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" validate:"gte=0,lte=3600"`

	// RequestsPerMinute throttles outbound requests. Zero disables throttling.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute" validate:"gte=0"`
}

// StorageConfig selects where settings and history are persisted.
type StorageConfig struct {
	// Backend is one of "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend" validate:"oneof=file sqlite memory"`

	// Dir holds the key files (file backend) or chatpad.db (sqlite backend).
	// Empty means ~/.chatpad/data.
	Dir string `toml:"dir" json:"dir"`

	SettingsKey string `toml:"settings_key" json:"settings_key" validate:"required"`
	HistoryKey  string `toml:"history_key" json:"history_key" validate:"required,nefield=SettingsKey"`

	// MaxConversations caps the history list; older conversations are evicted.
	MaxConversations int `toml:"max_conversations" json:"max_conversations" validate:"gte=1,lte=1000"`

	// QuotaBytes is the total size budget across all keys.
	QuotaBytes int64 `toml:"quota_bytes" json:"quota_bytes" validate:"gte=0"`

	// Watch reloads history when another process rewrites it.
	Watch bool `toml:"watch" json:"watch"`
}

// AttachmentsConfig limits what can be attached to a message.
type AttachmentsConfig struct {
	MaxSizeBytes int64 `toml:"max_size_bytes" json:"max_size_bytes" validate:"gt=0"`
}

// UIConfig holds interface options.
type UIConfig struct {
	// ImageCommands are the slash prefixes routed to image generation.
	ImageCommands []string `toml:"image_commands" json:"image_commands" validate:"min=1,dive,startswith=/"`

	WordWrap int `toml:"word_wrap" json:"word_wrap" validate:"gte=0,lte=400"`

	// QuickPrompts prefill the input box from the TUI quick-prompt menu.
	QuickPrompts []string `toml:"quick_prompts" json:"quick_prompts"`
}

// LoggingConfig controls the structured log file.
type LoggingConfig struct {
	Level string `toml:"level" json:"level" validate:"oneof=debug info warn error"`

	// File is the log destination. Empty means ~/.chatpad/chatpad.log.
	File string `toml:"file" json:"file"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	// ListenAddr, when set (e.g. "127.0.0.1:9464"), serves /metrics.
	ListenAddr string `toml:"listen_addr" json:"listen_addr" validate:"omitempty,hostname_port"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default values shared with other packages.
const (
	DefaultBaseURL          = "http://127.0.0.1:5000"
	DefaultTimeoutSecs      = 120
	DefaultSettingsKey      = "chatSettings"
	DefaultHistoryKey       = "chatHistory"
	DefaultMaxConversations = 20
	DefaultQuotaBytes       = 5 * 1024 * 1024
	DefaultMaxAttachment    = 10 * 1024 * 1024
	DefaultWordWrap         = 100
)

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:     DefaultBaseURL,
			TimeoutSecs: DefaultTimeoutSecs,
		},
		Storage: StorageConfig{
			Backend:          "file",
			SettingsKey:      DefaultSettingsKey,
			HistoryKey:       DefaultHistoryKey,
			MaxConversations: DefaultMaxConversations,
			QuotaBytes:       DefaultQuotaBytes,
			Watch:            true,
		},
		Attachments: AttachmentsConfig{
			MaxSizeBytes: DefaultMaxAttachment,
		},
		UI: UIConfig{
			ImageCommands: []string{"/image", "/img"},
			WordWrap:      DefaultWordWrap,
			QuickPrompts: []string{
				"Explain this like I'm five: ",
				"Summarize the following text: ",
				"Write a short poem about ",
				"Review this code for bugs: ",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatpad configuration directory (~/.chatpad).
// CHATPAD_HOME overrides it, which tests use to stay out of the real home.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CHATPAD_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatpad"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir creates the config directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// DataDir resolves the storage directory, defaulting to ~/.chatpad/data.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// LogFile resolves the log path, defaulting to ~/.chatpad/chatpad.log.
func (c *Config) LogFile() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatpad.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads config.toml, falling back to config.json and then to defaults.
// Environment overrides are applied last. A malformed file is reported
// together with a usable default config so callers can warn and continue.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if loadErr == nil {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				cfg, err := LoadFromPath(jsonPath)
				if err == nil {
					return cfg, nil
				}
				loadErr = err
			}
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadFromPath loads one file (TOML unless it ends in .json), fills
// defaults, applies env overrides and validates.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config %s: %w", path, err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config %s: %w", path, err)
		}
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills zero values from Default. Booleans are left alone since
// false is a legitimate choice.
func fillDefaults(cfg *Config) {
	d := Default()

	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = d.Backend.BaseURL
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = d.Backend.TimeoutSecs
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = d.Storage.Backend
	}
	if cfg.Storage.SettingsKey == "" {
		cfg.Storage.SettingsKey = d.Storage.SettingsKey
	}
	if cfg.Storage.HistoryKey == "" {
		cfg.Storage.HistoryKey = d.Storage.HistoryKey
	}
	if cfg.Storage.MaxConversations == 0 {
		cfg.Storage.MaxConversations = d.Storage.MaxConversations
	}
	if cfg.Storage.QuotaBytes == 0 {
		cfg.Storage.QuotaBytes = d.Storage.QuotaBytes
	}

	if cfg.Attachments.MaxSizeBytes == 0 {
		cfg.Attachments.MaxSizeBytes = d.Attachments.MaxSizeBytes
	}

	if len(cfg.UI.ImageCommands) == 0 {
		cfg.UI.ImageCommands = d.UI.ImageCommands
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = d.UI.WordWrap
	}
	if cfg.UI.QuickPrompts == nil {
		cfg.UI.QuickPrompts = d.UI.QuickPrompts
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path, as JSON when path ends in .json and TOML
// otherwise, mirroring LoadFromPath.
func Save(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with a short header comment.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# chatpad configuration file\n")
	b.WriteString("# Generated by chatpad - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every rejected field.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their toml name so messages match the file.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := structValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make(ValidateErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// Namespace is "Config.backend.base_url"; drop the root.
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		errs = append(errs, ValidationError{Field: field, Message: describeTag(fe)})
	}
	return errs
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("must be an absolute URL, got %q", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "nefield":
		return "must differ from " + fe.Param()
	case "hostname_port":
		return fmt.Sprintf("must be host:port, got %q", fe.Value())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - CHATPAD_BASE_URL: backend.base_url
//   - CHATPAD_TIMEOUT: backend.timeout_secs
//   - CHATPAD_STORAGE: storage.backend
//   - CHATPAD_DATA_DIR: storage.dir
//   - CHATPAD_LOG_LEVEL: logging.level
//   - CHATPAD_METRICS_ADDR: metrics.listen_addr
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATPAD_BASE_URL"); v != "" {
		c.Backend.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("CHATPAD_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = n
		}
	}
	if v := os.Getenv("CHATPAD_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CHATPAD_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("CHATPAD_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CHATPAD_METRICS_ADDR"); v != "" {
		c.Metrics.ListenAddr = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get returns the value at a dotted toml path such as "storage.max_conversations".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value at a dotted toml path. String input is converted to
// the field's type; comma-separated strings fill string slices.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTOMLName(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.SplitN(t.Field(i).Tag.Get("toml"), ",", 2)[0]
		if tag == name || strings.EqualFold(t.Field(i).Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(b)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(s, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("nil value")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns every leaf key in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
			if name == "" || name == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, prefix+name+".")
				continue
			}
			keys = append(keys, prefix+name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	clone.UI.ImageCommands = append([]string(nil), c.UI.ImageCommands...)
	clone.UI.QuickPrompts = append([]string(nil), c.UI.QuickPrompts...)
	return &clone
}

// String renders the config as indented JSON for "chatpad config show".
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global so the next Global call reloads.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
