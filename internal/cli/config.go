// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - client configuration (~/.chatpad/config.toml).
//
// Command: config [subcommand]
// Short:   Show or change client configuration
//
// Subcommands:
//
//	show (default)      Print the effective configuration
//	get KEY             Print one value
//	set KEY VALUE       Change one value and save
//	keys                List every key
//	path                Print the config file path
//	init [--force]      Write a config file with the defaults
//	reset [--confirm]   Overwrite the config file with the defaults
//
// Examples:
//
//	chatpad config set backend.base_url http://gpu-box:5000
//	chatpad config set storage.backend sqlite
//	chatpad config set ui.image_commands /image,/img,/draw
//	chatpad config get storage.max_conversations
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/chatpad-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	p := NewArgParser(args.Raw, "force", "confirm", "y")

	switch sub := p.Subcommand(); sub {
	case "", "show":
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config show", cfg).Print()
		}
		fmt.Fprintln(stdout, cfg.String())
		return nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", "chatpad config get backend.base_url")
		}
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		v, err := cfg.Get(key)
		if err != nil {
			return &ValidationError{Field: "key", Value: key, Reason: err.Error(), Example: "chatpad config keys"}
		}
		if args.JSON {
			return NewJSONResponse("config get", map[string]interface{}{"key": key, "value": v}).Print()
		}
		fmt.Fprintln(stdout, v)
		return nil

	case "set":
		key, value := p.Positional(1), JoinPositionalArgs(p, 2)
		if key == "" || p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "chatpad config set storage.backend sqlite")
		}
		return configSet(args, key, value)

	case "keys":
		keys := config.GetAllKeys()
		if args.JSON {
			return NewJSONResponse("config keys", keys).Print()
		}
		for _, k := range keys {
			fmt.Fprintln(stdout, k)
		}
		return nil

	case "path":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}).Print()
		}
		fmt.Fprintln(stdout, path)
		return nil

	case "init":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !p.BoolFlag("force") {
			return &ValidationError{Field: "config", Value: path, Reason: "file already exists", Example: "chatpad config init --force"}
		}
		return writeDefaults(args, path, "config init")

	case "reset":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		ok, err := RequireConfirmation("overwrite "+path+" with the defaults", ConfirmationOptions{
			ConfirmFlag: p.BoolFlag("confirm", "y"),
			JSONMode:    args.JSON,
		})
		if err != nil {
			return err
		}
		if !ok {
			ShowCancellationMessage()
			return nil
		}
		return writeDefaults(args, path, "config reset")

	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   sub,
			Reason:  "unknown config subcommand",
			Example: "chatpad config show | get | set | keys | path | init | reset",
		}
	}
}

func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

func writeDefaults(args Args, path, command string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	return done(args, command, map[string]string{"path": path}, "Wrote "+path)
}

func configSet(args Args, key, value string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	next := cfg.Clone()
	if err := next.Set(key, value); err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: err.Error(), Example: "chatpad config keys"}
	}
	if err := next.Validate(); err != nil {
		return err
	}

	path, err := configPath(args)
	if err != nil {
		return err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.Save(next, path); err != nil {
		return err
	}
	v, _ := next.Get(key)
	return done(args, "config set", map[string]interface{}{"key": key, "value": v}, fmt.Sprintf("%s = %v", key, v))
}
