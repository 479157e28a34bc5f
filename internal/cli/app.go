// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatpad-tui/internal/backend"
	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/config"
	"github.com/jeranaias/chatpad-tui/internal/history"
	"github.com/jeranaias/chatpad-tui/internal/kvstore"
	"github.com/jeranaias/chatpad-tui/internal/logging"
	"github.com/jeranaias/chatpad-tui/internal/metrics"
	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/storage"
)

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// App is every long-lived component, built once per process from the
// configuration.
type App struct {
	Config     *config.Config
	Log        *logging.Logger
	KV         kvstore.Store
	Metrics    *metrics.Recorder
	Client     *backend.Client
	Convs      *storage.ConversationStore
	Prefs      *settings.Store
	Session    *session.Controller
	History    *history.Panel
	Dispatcher *commands.Dispatcher

	mu   sync.Mutex
	sink session.Sink
}

// loadConfig reads the config file named by args, or the default one, and
// applies the per-run overrides. A malformed file is reported on stderr
// and the defaults are used.
func loadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil && !args.Quiet {
			fmt.Fprintf(stderr, "%s %v; using defaults\n", WarningStyle.Render("[!]"), err)
		}
	}

	if args.BaseURL != "" {
		cfg.Backend.BaseURL = strings.TrimRight(args.BaseURL, "/")
	}
	if args.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// OpenApp loads the configuration and builds the App.
func OpenApp(args Args) (*App, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	return NewApp(cfg)
}

// NewApp builds the App from cfg. Close releases the store.
func NewApp(cfg *config.Config) (*App, error) {
	log := logging.Nop()
	if path, err := cfg.LogFile(); err == nil {
		if l, err := logging.New(cfg.Logging.Level, path); err == nil {
			log = l
		}
	}

	dir, err := cfg.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	kv, err := kvstore.Open(cfg.Storage.Backend, dir, cfg.Storage.QuotaBytes)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	rec := metrics.New()
	client := backend.New(cfg.Backend.BaseURL,
		backend.WithTimeout(time.Duration(cfg.Backend.TimeoutSecs)*time.Second),
		backend.WithRateLimit(cfg.Backend.RequestsPerMinute),
		backend.WithLogger(log),
		backend.WithMetrics(rec),
	)
	convs := storage.NewConversationStore(kv, cfg.Storage.HistoryKey,
		storage.WithMaxConversations(cfg.Storage.MaxConversations),
		storage.WithLogger(log),
		storage.WithMetrics(rec),
	)
	prefs := settings.NewStore(kv, cfg.Storage.SettingsKey, settings.WithLogger(log))

	a := &App{
		Config:  cfg,
		Log:     log,
		KV:      kv,
		Metrics: rec,
		Client:  client,
		Convs:   convs,
		Prefs:   prefs,
		sink:    session.Discard,
	}
	a.Session = session.New(client, convs, prefs,
		session.WithSink(a),
		session.WithLogger(log),
		session.WithMetrics(rec),
		session.WithImageCommands(cfg.UI.ImageCommands),
		session.WithAttachmentLimit(cfg.Attachments.MaxSizeBytes),
	)
	a.History = history.NewPanel(convs, a.Session)
	a.Dispatcher = commands.NewDispatcher(commands.NewRegistry(), &commands.Env{
		Session: a.Session,
		History: a.History,
		Convs:   convs,
		Notify:  a.Notice,
		Log:     log,
	})

	log.Info("chatpad started",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("conversations", convs.Len()),
	)
	return a, nil
}

// SetSink routes controller events and command notices to s.
func (a *App) SetSink(s session.Sink) {
	if s == nil {
		s = session.Discard
	}
	a.mu.Lock()
	a.sink = s
	a.mu.Unlock()
}

func (a *App) current() session.Sink {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sink
}

// App forwards to the installed sink so the UI can be swapped after the
// controller is built.
func (a *App) Message(v render.View)          { a.current().Message(v) }
func (a *App) Transcript(views []render.View) { a.current().Transcript(views) }
func (a *App) Notice(n session.Notice)        { a.current().Notice(n) }
func (a *App) State(s session.State)          { a.current().State(s) }

var _ session.Sink = (*App)(nil)

// ServeMetrics starts the Prometheus listener when metrics.listen_addr is
// set. It stops with ctx.
func (a *App) ServeMetrics(ctx context.Context) {
	addr := a.Config.Metrics.ListenAddr
	if addr == "" {
		return
	}
	go func() {
		a.Log.Info("metrics listening", zap.String("addr", addr))
		if err := a.Metrics.Serve(ctx, addr); err != nil {
			a.Log.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
}

// Watch reports history keys rewritten by another process, or nil when
// watching is off or the backend cannot watch.
func (a *App) Watch(ctx context.Context) <-chan string {
	if !a.Config.Storage.Watch {
		return nil
	}
	w, ok := a.KV.(kvstore.Watcher)
	if !ok {
		return nil
	}
	ch, err := w.Watch(ctx)
	if err != nil {
		a.Log.Warn("storage watch unavailable", zap.Error(err))
		return nil
	}

	// Settings changes are not replayed into a running session.
	out := make(chan string)
	go func() {
		defer close(out)
		for key := range ch {
			if key != a.Config.Storage.HistoryKey {
				continue
			}
			select {
			case out <- key:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close flushes the log and closes the store.
func (a *App) Close() error {
	_ = a.Log.Sync()
	return a.KV.Close()
}

// useConversation makes ref (an id or unique prefix) current.
func (a *App) useConversation(ref string) error {
	if ref == "" {
		return nil
	}
	conv, err := a.Convs.FindPrefix(ref)
	if err != nil {
		return &NotFoundError{Resource: "conversation", ID: ref}
	}
	return a.Session.LoadConversation(conv.ID)
}
