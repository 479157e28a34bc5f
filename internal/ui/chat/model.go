// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/commands"
	"github.com/jeranaias/chatpad-tui/internal/history"
	"github.com/jeranaias/chatpad-tui/internal/logging"
	"github.com/jeranaias/chatpad-tui/internal/render"
	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/settings"
	"github.com/jeranaias/chatpad-tui/internal/ui/components"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// focus is the element receiving key presses.
type focus int

const (
	focusInput focus = iota
	focusHistory
	focusHistoryFilter
	focusSettings
)

// sidebarWidth is the history column width on wide terminals.
const sidebarWidth = 34

// maxInputHistory bounds the recall list for Up/Down in the input line.
const maxInputHistory = 100

// Options wires the model to the application.
type Options struct {
	Session    *session.Controller
	Dispatcher *commands.Dispatcher
	History    *history.Panel
	Sink       *Sink

	// Backend is shown in the header, usually the base URL host.
	Backend string

	// QuickPrompts are cycled into the input with Ctrl+K.
	QuickPrompts []string

	// WordWrap caps the transcript width. Zero uses the terminal width.
	WordWrap int

	// Changes delivers storage keys rewritten by another process.
	Changes <-chan string

	Context context.Context
	Log     *logging.Logger
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx  context.Context
	ctl  *session.Controller
	disp *commands.Dispatcher
	hist *history.Panel
	sink *Sink
	log  *logging.Logger

	changes <-chan string

	// Styling
	theme *styles.Theme
	term  *render.Terminal

	// Dimensions
	width    int
	height   int
	wordWrap int

	// Transcript: views and their rendered text, kept in step.
	views    []render.View
	rendered []string

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap
	histKeys HistoryKeyMap

	header     *components.Header
	statusBar  *components.StatusBar
	toasts     *components.ToastManager
	ticking    bool
	palette    *components.CommandPalette
	completer  *commands.Completer
	completion *commands.CompletionState
	popup      *components.CompletionPopup

	// Panels
	focus       focus
	showHistory bool
	showHelp    bool
	sidebar     sidebarState
	form        settingsForm

	// Request state
	state session.State

	// Input recall
	inputHistory []string
	recall       int

	quickPrompts []string
	quickIndex   int

	backend string
}

// New creates the chat model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	dark := opts.Session.Settings().Theme != settings.ThemeLight
	theme := styles.New(dark)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message, or /help for commands..."
	ti.CharLimit = 16000
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	completion := commands.NewCompletionState()
	completer := commands.NewCompleter(opts.Dispatcher.Registry())

	m := Model{
		ctx:          ctx,
		ctl:          opts.Session,
		disp:         opts.Dispatcher,
		hist:         opts.History,
		sink:         opts.Sink,
		log:          logging.OrNop(opts.Log).Named("tui"),
		changes:      opts.Changes,
		theme:        theme,
		term:         render.NewTerminal(theme, 80),
		width:        80,
		height:       24,
		wordWrap:     opts.WordWrap,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		help:         help.New(),
		keys:         DefaultKeyMap(),
		histKeys:     DefaultHistoryKeyMap(),
		header:       components.NewHeader(theme),
		statusBar:    components.NewStatusBar(theme),
		toasts:       components.NewToastManager(),
		palette:      components.NewCommandPalette(opts.Dispatcher.Registry()),
		completer:    completer,
		completion:   completion,
		popup:        components.NewCompletionPopup(completion),
		sidebar:      newSidebarState(),
		form:         newSettingsForm(),
		quickPrompts: opts.QuickPrompts,
		quickIndex:   -1,
		recall:       -1,
		backend:      opts.Backend,
	}
	m.header.Backend = opts.Backend

	completer.ConversationsFn = m.conversationInfo
	completer.PendingFn = m.pendingNames

	m.hist.Refresh()
	m.syncChrome()
	return m
}

// conversationInfo feeds /load and /delete completion.
func (m Model) conversationInfo() []commands.ConversationInfo {
	entries := m.hist.Entries()
	out := make([]commands.ConversationInfo, len(entries))
	for i, e := range entries {
		out[i] = commands.ConversationInfo{ID: e.ID, Title: e.Title, Preview: e.Preview}
	}
	return out
}

func (m Model) pendingNames() []string {
	pending := m.ctl.Pending()
	names := make([]string, len(pending))
	for i, a := range pending {
		names[i] = a.Name
	}
	return names
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the event listeners.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.sink.Listen(),
		tea.SetWindowTitle("chatpad - " + m.ctl.Settings().ConversationName),
	}
	if m.changes != nil {
		cmds = append(cmds, m.watchChanges())
	}
	return tea.Batch(cmds...)
}

// storeChangedMsg reports that another process rewrote a storage key.
type storeChangedMsg struct {
	key string
	err error
}

func (m Model) watchChanges() tea.Cmd {
	ch := m.changes
	ctl := m.ctl
	return func() tea.Msg {
		key, ok := <-ch
		if !ok {
			return nil
		}
		return storeChangedMsg{key: key, err: ctl.ReloadHistory()}
	}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// contentWidth is the transcript width after the sidebar and wrap limit.
func (m Model) contentWidth() int {
	w := m.width
	if m.showHistory {
		w -= m.sidebarCols()
	}
	if m.wordWrap > 0 && w > m.wordWrap {
		w = m.wordWrap
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) sidebarCols() int {
	if m.width < 3*sidebarWidth {
		return m.width / 3
	}
	return sidebarWidth
}

func (m *Model) appendView(v render.View) {
	m.views = append(m.views, v)
	m.rendered = append(m.rendered, m.term.Render(v))
	m.refreshViewport(true)
}

func (m *Model) setTranscript(views []render.View) {
	m.views = views
	m.rerender()
	m.refreshViewport(true)
}

// rerender redraws every view, after a width or theme change.
func (m *Model) rerender() {
	m.term.SetWidth(m.contentWidth())
	m.rendered = make([]string, len(m.views))
	for i, v := range m.views {
		m.rendered[i] = m.term.Render(v)
	}
}

func (m *Model) refreshViewport(bottom bool) {
	if len(m.rendered) == 0 {
		m.viewport.SetContent(m.welcome())
		return
	}
	m.viewport.SetContent(strings.Join(m.rendered, "\n"))
	if bottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) welcome() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Hello! Ask me anything."))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Muted.Render("Type a message and press Enter. Use /image <prompt> to generate an image,"))
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("/attach <path> to add files, and /help for everything else."))
	if len(m.quickPrompts) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.theme.PanelLabel.UnsetWidth().Render("Try these examples (Ctrl+K):"))
		for _, p := range m.quickPrompts {
			b.WriteString("\n  ")
			b.WriteString(m.theme.ShortcutKey.Render("-") + " " + p)
		}
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// =============================================================================
// CHROME
// =============================================================================

// syncChrome copies controller state into the header and status bar.
func (m *Model) syncChrome() {
	s := m.ctl.Settings()
	m.header.Conversation = s.ConversationName
	m.statusBar.Settings = s
	m.statusBar.State = m.state
	m.statusBar.Spinner = m.spinner.View()

	pending := m.ctl.Pending()
	var size int64
	for _, a := range pending {
		size += a.Size
	}
	m.statusBar.Pending = len(pending)
	m.statusBar.PendingBytes = size
}

// applyTheme rebuilds styles after the settings theme changed.
func (m *Model) applyTheme() {
	m.theme = styles.New(m.ctl.Settings().Theme != settings.ThemeLight)
	m.term.SetTheme(m.theme)
	m.header.SetTheme(m.theme)
	m.statusBar.SetTheme(m.theme)
	m.input.PromptStyle = m.theme.InputPrompt
	m.spinner.Style = m.theme.Spinner
	m.rerender()
	m.refreshViewport(false)
}

// layout sizes the viewport to whatever the other rows leave.
func (m *Model) layout() {
	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.palette.SetSize(m.width, m.height)
	m.help.Width = m.width

	used := 1 + 1 + 2 // header, status bar, input with its border
	if len(m.ctl.Pending()) > 0 {
		used++
	}
	if m.popup.Visible() {
		used += lipgloss.Height(m.popup.View())
	}
	if m.toasts.Len() > 0 {
		used += lipgloss.Height(components.RenderToasts(m.theme, m.toasts.Toasts(), m.width))
	}

	w := m.width
	if m.showHistory {
		w -= m.sidebarCols()
	}
	h := m.height - used
	if h < 3 {
		h = 3
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = m.width - 6
	m.popup.SetWidth(m.width - 4)
	if atBottom {
		m.viewport.GotoBottom()
	}
}
