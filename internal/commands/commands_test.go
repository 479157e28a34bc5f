// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatpad-tui/internal/backend"
	"github.com/jeranaias/chatpad-tui/internal/history"
	"github.com/jeranaias/chatpad-tui/internal/kvstore"
	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/storage"
)

type fixture struct {
	d        *Dispatcher
	env      *Env
	mu       sync.Mutex
	notices  []session.Notice
	copied   string
	requests []string
}

func (f *fixture) noticeTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.notices))
	for i, n := range f.notices {
		out[i] = n.Text
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Path)
		f.mu.Unlock()
		switch r.URL.Path {
		case backend.PathGenerateImage:
			_ = json.NewEncoder(w).Encode(backend.ImageResponse{Status: "success", ImageBase64: "QUJD"})
		default:
			var req backend.SendRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(backend.SendResponse{
				Status:   "success",
				Response: "Echo: " + req.Message + "\n\n```go\nfmt.Println(1)\n```",
			})
		}
	}))
	t.Cleanup(srv.Close)

	kv := kvstore.NewMemoryStore(0)
	convs := storage.NewConversationStore(kv, "chatHistory")
	prefs := settings.NewStore(kv, "chatSettings")
	ctl := session.New(backend.New(srv.URL), convs, prefs)

	env := &Env{
		Session: ctl,
		History: history.NewPanel(convs, ctl),
		Convs:   convs,
		Notify: func(n session.Notice) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.notices = append(f.notices, n)
		},
		Clipboard: func(s string) error { f.copied = s; return nil },
		ExportDir: t.TempDir(),
	}
	f.env = env
	f.d = NewDispatcher(NewRegistry(), env)
	return f
}

// =============================================================================
// PARSER
// =============================================================================

func TestParse(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse(`  /rename "Trip to Lisbon" `)
	assert.True(t, res.IsCommand)
	require.NotNil(t, res.Command)
	assert.Equal(t, ActionRename, res.Command.Action)
	assert.Equal(t, []string{"Trip to Lisbon"}, res.Args)
	assert.Equal(t, `"Trip to Lisbon"`, res.RawArgs)

	res = p.Parse("/THEME light")
	require.NotNil(t, res.Command)
	assert.Equal(t, ActionTheme, res.Command.Action)

	res = p.Parse("hello /theme")
	assert.False(t, res.IsCommand)

	res = p.Parse("/nope x")
	assert.True(t, res.IsCommand)
	assert.Nil(t, res.Command)
	assert.Equal(t, "/nope", res.CommandName)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`a b  c`, []string{"a", "b", "c"}},
		{`"a b" 'c d'`, []string{"a b", "c d"}},
		{`"say \"hi\""`, []string{`say "hi"`}},
		{`""`, []string{""}},
		{`café "naïve test"`, []string{"café", "naïve test"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseArgs(tt.in), tt.in)
	}
}

func TestValidateArgs(t *testing.T) {
	reg := NewRegistry()

	err := ValidateArgs(reg.Get("/load"), nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "id", verr.Arg)

	err = ValidateArgs(reg.Get("/theme"), []string{"blue"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "blue", verr.Got)

	assert.NoError(t, ValidateArgs(reg.Get("/theme"), []string{"LIGHT"}))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	for _, action := range []string{
		ActionSend, ActionNew, ActionLoad, ActionDelete, ActionClearHistory, ActionHistory,
		ActionSettings, ActionSaveSettings, ActionResetSettings, ActionTheme, ActionTemperature,
		ActionSystem, ActionRename, ActionAttach, ActionDetach, ActionImage, ActionEnhance,
		ActionRegenerate, ActionCopy, ActionExport, ActionHelp, ActionQuit,
	} {
		cmd := reg.Action(action)
		require.NotNil(t, cmd, action)
		assert.NotNil(t, cmd.Handler, action)
	}
	assert.Equal(t, reg.Get("/quit"), reg.Get("/q"))
	assert.Nil(t, reg.Get("/send"))
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestSubmit_PlainTextSends(t *testing.T) {
	f := newFixture(t)

	res := f.d.Submit(context.Background(), "Hello")
	assert.Equal(t, ActionSend, res.Action)
	assert.Equal(t, session.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, []string{backend.PathSendMessage}, f.requests)
	assert.Equal(t, 1, f.env.History.Len())
}

func TestSubmit_ImageRoutes(t *testing.T) {
	f := newFixture(t)

	res := f.d.Submit(context.Background(), "/img a red cube")
	assert.Equal(t, session.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, []string{backend.PathGenerateImage}, f.requests)
}

func TestSubmit_UnknownCommand(t *testing.T) {
	f := newFixture(t)

	res := f.d.Submit(context.Background(), "/frobnicate")
	assert.ErrorIs(t, res.Err, ErrUnknownCommand)
	assert.Empty(t, f.requests)
	require.NotEmpty(t, f.noticeTexts())
	assert.Contains(t, f.noticeTexts()[0], "/frobnicate")
}

func TestSubmit_MissingArgument(t *testing.T) {
	f := newFixture(t)
	res := f.d.Submit(context.Background(), "/load")
	var verr *ValidationError
	assert.True(t, errors.As(res.Err, &verr))
	assert.Contains(t, f.noticeTexts(), "Usage: /load <id>")

	res = f.d.Do(context.Background(), ActionLoad)
	assert.True(t, errors.As(res.Err, &verr))
}

func TestDo_UnknownAction(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.d.Do(context.Background(), "dance").Err, ErrUnknownCommand)
}

func TestTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.d.Submit(ctx, "/theme")
	assert.True(t, res.ThemeChanged)
	assert.Equal(t, settings.ThemeLight, f.env.Session.Settings().Theme)

	res = f.d.Submit(ctx, "/theme light")
	assert.False(t, res.ThemeChanged)

	res = f.d.Submit(ctx, "/reset-settings")
	assert.True(t, res.ThemeChanged)
	assert.Equal(t, settings.ThemeDark, f.env.Session.Settings().Theme)
}

func TestTemperatureAndSystem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, "temperature: 0.7", f.d.Submit(ctx, "/temperature").Output)

	f.d.Submit(ctx, "/temp 0.3")
	assert.Equal(t, 0.3, f.env.Session.Settings().Temperature)

	res := f.d.Submit(ctx, "/temperature 5")
	assert.Error(t, res.Err)
	assert.Equal(t, 0.3, f.env.Session.Settings().Temperature)

	f.d.Submit(ctx, "/system You are terse.")
	assert.Equal(t, "You are terse.", f.env.Session.Settings().SystemPrompt)
	assert.Equal(t, "system prompt: You are terse.", f.d.Submit(ctx, "/system").Output)
	f.d.Submit(ctx, "/system clear")
	assert.Equal(t, "", f.env.Session.Settings().SystemPrompt)
}

func TestSaveSettingsAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.d.Do(ctx, ActionSaveSettings, "theme=light", "temperature=0.2", "systemPrompt=Be brief")
	require.NoError(t, res.Err)
	assert.True(t, res.ThemeChanged)
	s := f.env.Session.Settings()
	assert.Equal(t, settings.ThemeLight, s.Theme)
	assert.Equal(t, 0.2, s.Temperature)
	assert.Equal(t, "Be brief", s.SystemPrompt)

	res = f.d.Do(ctx, ActionSaveSettings, "volume=11")
	assert.Error(t, res.Err)
	res = f.d.Do(ctx, ActionSaveSettings, "theme")
	assert.Error(t, res.Err)
}

func TestConversationCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.d.Submit(ctx, "first question")
	firstID := f.env.Session.CurrentID()
	f.d.Submit(ctx, "/new")
	f.d.Submit(ctx, "second question")
	secondID := f.env.Session.CurrentID()
	require.NotEqual(t, firstID, secondID)

	res := f.d.Submit(ctx, "/history first")
	assert.Equal(t, PanelHistory, res.Open)
	assert.Contains(t, res.Output, "first question")
	assert.NotContains(t, res.Output, "second question")

	res = f.d.Submit(ctx, "/load "+firstID[:20])
	require.NoError(t, res.Err)
	assert.Equal(t, firstID, f.env.Session.CurrentID())

	f.d.Submit(ctx, `/rename "Renamed chat"`)
	conv, _ := f.env.Session.Current()
	assert.Equal(t, "Renamed chat", conv.Title)

	res = f.d.Submit(ctx, "/delete "+secondID)
	require.NoError(t, res.Err)
	assert.Equal(t, 1, f.env.Convs.Len())

	res = f.d.Submit(ctx, "/load zzzz")
	assert.Error(t, res.Err)

	f.d.Submit(ctx, "/clear-history")
	assert.Zero(t, f.env.Convs.Len())
	assert.Zero(t, f.env.History.Len())
}

func TestCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.d.Submit(ctx, "/copy")
	assert.Equal(t, session.OutcomeRejected, res.Outcome)

	f.d.Submit(ctx, "hi")
	f.d.Submit(ctx, "/copy")
	assert.True(t, strings.HasPrefix(f.copied, "Echo: hi"))

	f.d.Submit(ctx, "/copy code")
	assert.Equal(t, "fmt.Println(1)", f.copied)
	assert.Contains(t, f.noticeTexts(), "Copied to clipboard!")
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.d.Submit(ctx, "/export")
	assert.Equal(t, session.OutcomeRejected, res.Outcome)

	f.d.Submit(ctx, "hello")
	res = f.d.Submit(ctx, "/export")
	require.NoError(t, res.Err)
	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Equal(t, ".md", filepath.Ext(res.Output))

	out := filepath.Join(t.TempDir(), "conv.json")
	res = f.d.Submit(ctx, "/export json "+out)
	require.NoError(t, res.Err)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	res = f.d.Submit(ctx, "/export html")
	require.NoError(t, res.Err)
	assert.Equal(t, ".html", filepath.Ext(res.Output))

	res = f.d.Submit(ctx, "/export pdf")
	assert.Equal(t, session.OutcomeRejected, res.Outcome)
}

func TestAttachDetach(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes file.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	res := f.d.Submit(ctx, `/attach "`+path+`"`)
	require.NoError(t, res.Err)
	assert.Len(t, f.env.Session.Pending(), 1)

	res = f.d.Submit(ctx, `/detach "notes file.txt"`)
	require.NoError(t, res.Err)
	assert.Empty(t, f.env.Session.Pending())

	res = f.d.Submit(ctx, "/detach nothing.txt")
	assert.Error(t, res.Err)

	res = f.d.Submit(ctx, "/attach /does/not/exist")
	assert.Error(t, res.Err)
}

func TestHelpAndQuit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.d.Submit(ctx, "/?")
	assert.Equal(t, PanelHelp, res.Open)
	assert.Contains(t, res.Output, "/image <prompt>")
	assert.Contains(t, res.Output, "Conversations")
	assert.NotContains(t, res.Output, "save-settings")

	assert.True(t, f.d.Submit(ctx, "/exit").Quit)
}

// =============================================================================
// COMPLETION
// =============================================================================

func TestComplete_Commands(t *testing.T) {
	c := NewCompleter(NewRegistry())

	got := c.Complete("/the", 4)
	require.NotEmpty(t, got)
	assert.Equal(t, "/theme", got[0].Value)

	got = c.Complete("/theme l", 8)
	require.Len(t, got, 1)
	assert.Equal(t, "light", got[0].Value)

	assert.Nil(t, c.Complete("hello", 5))
	assert.Nil(t, c.Complete("/unknown x", 10))
}

func TestComplete_AliasCompletesToCommand(t *testing.T) {
	c := NewCompleter(NewRegistry())

	got := c.Complete("/hist", 5)
	require.Len(t, got, 1)
	assert.Equal(t, "/history", got[0].Value)

	got = c.Complete("/h", 2)
	require.NotEmpty(t, got)
	assert.Equal(t, "/help", got[0].Value)
	for _, g := range got {
		assert.NotEqual(t, "/h", g.Value)
	}
}

func TestComplete_Conversations(t *testing.T) {
	c := NewCompleter(NewRegistry())
	c.ConversationsFn = func() []ConversationInfo {
		return []ConversationInfo{
			{ID: "01hx0000aaaa", Title: "Trip to Lisbon"},
			{ID: "01hy0000bbbb", Title: "Go generics"},
		}
	}

	got := c.Complete("/load 01hy", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "01hy0000bbbb", got[0].Value)

	got = c.Complete("/load lisbon", 12)
	require.Len(t, got, 1)
	assert.Equal(t, "01hx0000aaaa", got[0].Value)
}

func TestComplete_Files(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "reports"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600))

	c := NewCompleter(NewRegistry())
	input := "/attach " + dir + string(os.PathSeparator) + "rep"
	got := c.Complete(input, len(input))
	require.Len(t, got, 2)
	assert.Equal(t, filepath.Join(dir, "reports")+string(os.PathSeparator), got[0].Value)
	assert.Equal(t, "directory", got[0].Description)
	assert.Equal(t, filepath.Join(dir, "report.txt"), got[1].Value)
}

func TestApply(t *testing.T) {
	assert.Equal(t, "/theme", Apply("/th", "/theme"))
	assert.Equal(t, "/theme light", Apply("/theme l", "light"))
	assert.Equal(t, "/theme dark", Apply("/theme ", "dark"))
}

func TestCompletionState(t *testing.T) {
	cs := NewCompletionState()
	assert.Equal(t, "", cs.Accept())

	cs.Update("/t", []Completion{{Value: "/theme"}, {Value: "/temperature"}})
	assert.True(t, cs.Visible)
	assert.Equal(t, "/theme", cs.Accept())
	cs.Next()
	assert.Equal(t, "/temperature", cs.Accept())
	cs.Next()
	assert.Equal(t, "/theme", cs.Accept())
	cs.Prev()
	assert.Equal(t, "/temperature", cs.Accept())

	cs.Clear()
	assert.False(t, cs.Visible)
}
