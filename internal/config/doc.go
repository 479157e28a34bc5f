// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the chatpad application configuration.
//
// Configuration lives in ~/.chatpad/config.toml, with config.json accepted
// as a fallback. Missing values are filled from Default, CHATPAD_* environment
// variables override the file, and Validate rejects values the rest of the
// program cannot work with.
//
// This is application configuration (where the backend lives, which storage
// backend to use, log level). User chat preferences such as theme and
// temperature are a separate record owned by the settings package.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := backend.New(cfg.Backend.BaseURL)
//
// Dot-notation accessors back the "chatpad config" subcommand:
//
//	v, _ := cfg.Get("storage.max_conversations")
//	_ = cfg.Set("backend.base_url", "http://localhost:8080")
package config
