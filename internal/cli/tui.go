// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatpad-tui/internal/ui/chat"
)

// HandleTUI runs the full-screen chat.
func HandleTUI(args Args) error {
	if err := RequiresTTY("the full-screen chat", "use 'chatpad chat' or 'chatpad ask' instead"); err != nil {
		return err
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := chat.NewSink()
	app.SetSink(sink)
	app.ServeMetrics(ctx)

	m := chat.New(chat.Options{
		Session:      app.Session,
		Dispatcher:   app.Dispatcher,
		History:      app.History,
		Sink:         sink,
		Backend:      backendHost(app.Config.Backend.BaseURL),
		QuickPrompts: app.Config.UI.QuickPrompts,
		WordWrap:     app.Config.UI.WordWrap,
		Changes:      app.Watch(ctx),
		Context:      ctx,
		Log:          app.Log.Named("tui"),
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chatpad: %w", err)
	}
	return nil
}

func backendHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
