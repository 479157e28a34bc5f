// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings owns the user's chat preferences record.
//
// The record is a single JSON object (theme, temperature, system prompt,
// conversation name) kept under one kvstore key. Loading never fails: a
// missing or corrupt record yields defaults, and each stored field is merged
// over the defaults on its own so one bad field does not discard the rest.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jeranaias/chatpad-tui/internal/kvstore"
	"github.com/jeranaias/chatpad-tui/internal/logging"
	"github.com/jeranaias/chatpad-tui/internal/model"
)

// =============================================================================
// TYPES
// =============================================================================

// Theme is the color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle flips between dark and light.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Settings is the persisted preferences record. JSON names match the
// browser client's chatSettings object so existing exports load unchanged.
type Settings struct {
	Theme            Theme   `json:"theme" validate:"oneof=dark light"`
	Temperature      float64 `json:"temperature" validate:"gte=0,lte=1"`
	SystemPrompt     string  `json:"systemPrompt" validate:"max=16000"`
	ConversationName string  `json:"conversationName" validate:"max=200"`
}

// Default values.
const (
	DefaultTheme       = ThemeDark
	DefaultTemperature = 0.7
)

// Defaults returns the factory settings.
func Defaults() Settings {
	return Settings{
		Theme:            DefaultTheme,
		Temperature:      DefaultTemperature,
		SystemPrompt:     "",
		ConversationName: model.DefaultConversationName,
	}
}

// Notices shown after user-initiated changes.
const (
	NoticeSaved = "Settings saved!"
	NoticeReset = "Settings reset to defaults!"
)

// ValidationError rejects one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks ranges and enumerations.
func (s Settings) Validate() error {
	err := fieldValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return ValidationError{Field: jsonName(fe.StructField()), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func jsonName(structField string) string {
	switch structField {
	case "Theme":
		return "theme"
	case "Temperature":
		return "temperature"
	case "SystemPrompt":
		return "systemPrompt"
	case "ConversationName":
		return "conversationName"
	}
	return structField
}

// ParseTemperature parses user input for the temperature field.
func ParseTemperature(input string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0, ValidationError{Field: "temperature", Message: "must be a number between 0 and 1"}
	}
	if v < 0 || v > 1 {
		return 0, ValidationError{Field: "temperature", Message: "must be between 0 and 1"}
	}
	return v, nil
}

// ParseTheme parses user input for the theme field.
func ParseTheme(input string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(input))); t {
	case ThemeDark, ThemeLight:
		return t, nil
	}
	return "", ValidationError{Field: "theme", Message: "must be one of dark, light"}
}

// =============================================================================
// STORE
// =============================================================================

// Notifier receives user-visible confirmations.
type Notifier func(message string)

// Store loads and persists Settings under one kvstore key.
type Store struct {
	kv     kvstore.Store
	key    string
	log    *logging.Logger
	notify Notifier
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithNotifier attaches the confirmation callback.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// NewStore creates a settings store on kv under key.
func NewStore(kv kvstore.Store, key string, opts ...Option) *Store {
	s := &Store{kv: kv, key: key, log: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log).Named("settings")
	return s
}

// SetNotifier replaces the confirmation callback. The TUI installs its toast
// hook after the store is built.
func (s *Store) SetNotifier(n Notifier) {
	s.notify = n
}

// Load returns the stored settings merged over Defaults. It never fails.
func (s *Store) Load() Settings {
	out := Defaults()

	data, err := s.kv.Get(s.key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.log.Warn("read settings failed, using defaults", zap.Error(err))
		}
		return out
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		s.log.Warn("settings record unreadable, using defaults", zap.Error(err))
		return out
	}

	v := fieldValidator()
	if raw, ok := fields["theme"]; ok {
		var theme string
		if json.Unmarshal(raw, &theme) == nil && v.Var(theme, "oneof=dark light") == nil {
			out.Theme = Theme(theme)
		} else {
			s.log.Debug("ignoring stored theme", zap.ByteString("value", raw))
		}
	}
	if raw, ok := fields["temperature"]; ok {
		var temp float64
		if json.Unmarshal(raw, &temp) == nil && v.Var(temp, "gte=0,lte=1") == nil {
			out.Temperature = temp
		} else if str, err := unquote(raw); err == nil {
			// Older records stored the slider value as a string.
			if t, err := ParseTemperature(str); err == nil {
				out.Temperature = t
			}
		}
	}
	if raw, ok := fields["systemPrompt"]; ok {
		var prompt string
		if json.Unmarshal(raw, &prompt) == nil {
			out.SystemPrompt = prompt
		}
	}
	if raw, ok := fields["conversationName"]; ok {
		var name string
		if json.Unmarshal(raw, &name) == nil && name != "" {
			out.ConversationName = name
		}
	}
	return out
}

func unquote(raw json.RawMessage) (string, error) {
	var str string
	err := json.Unmarshal(raw, &str)
	return str, err
}

// Save validates and persists settings, then confirms with NoticeSaved.
func (s *Store) Save(settings Settings) error {
	if err := s.Persist(settings); err != nil {
		return err
	}
	s.emit(NoticeSaved)
	return nil
}

// Persist validates and writes settings without a confirmation notice.
func (s *Store) Persist(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.kv.Set(s.key, data); err != nil {
		s.log.Warn("persist settings failed", zap.Error(err))
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SetConversationName quietly persists cur with its conversation name
// replaced. An empty name stores the default name.
func (s *Store) SetConversationName(cur Settings, name string) (Settings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultConversationName
	}
	cur.ConversationName = name
	return cur, s.Persist(cur)
}

// Reset persists Defaults and confirms with NoticeReset.
func (s *Store) Reset() (Settings, error) {
	d := Defaults()
	if err := s.Persist(d); err != nil {
		return d, err
	}
	s.emit(NoticeReset)
	return d, nil
}

func (s *Store) emit(msg string) {
	if s.notify != nil {
		s.notify(msg)
	}
}
