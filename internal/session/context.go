// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"

	"github.com/jeranaias/chatpad-tui/internal/attach"
	"github.com/jeranaias/chatpad-tui/internal/settings"
)

// Context is the controller's mutable session state.
type Context struct {
	mu        sync.Mutex
	currentID string
	settings  settings.Settings

	// saved is what the store holds. settings differs from it only after
	// UseSettings.
	saved settings.Settings

	// Pending holds the files waiting for the next message. It has its own
	// lock.
	Pending *attach.Set
}

// Snapshot is a consistent copy of Context.
type Snapshot struct {
	CurrentID string
	Settings  settings.Settings
}

func newContext(s settings.Settings, id string, limit int64) *Context {
	return &Context{
		currentID: id,
		settings:  s,
		saved:     s,
		Pending:   attach.NewSet(limit),
	}
}

// Snapshot copies the current id and settings.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{CurrentID: c.currentID, Settings: c.settings}
}

func (c *Context) setCurrent(id string) {
	c.mu.Lock()
	c.currentID = id
	c.mu.Unlock()
}

func (c *Context) setSettings(s settings.Settings) {
	c.mu.Lock()
	c.settings = s
	c.saved = s
	c.mu.Unlock()
}

func (c *Context) useSettings(s settings.Settings) {
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
}
