// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpad-tui/internal/session"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

// Toast durations by level. Errors stay longer so they can be read.
const (
	DefaultToastDuration = 3 * time.Second
	WarningToastDuration = 5 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

// MaxToasts is the number of toasts shown at once.
const MaxToasts = 4

// Toast is one transient notification.
type Toast struct {
	ID        int
	Level     session.Level
	Text      string
	CreatedAt time.Time
	Duration  time.Duration
}

func durationFor(level session.Level) time.Duration {
	switch level {
	case session.LevelError:
		return ErrorToastDuration
	case session.LevelWarning:
		return WarningToastDuration
	default:
		return DefaultToastDuration
	}
}

// Expired reports whether the toast should be dropped at now.
func (t Toast) Expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// Remaining is the time left before the toast expires.
func (t Toast) Remaining(now time.Time) time.Duration {
	left := t.Duration - now.Sub(t.CreatedAt)
	if left < 0 {
		return 0
	}
	return left
}

// ToastManager holds the visible toasts, newest first.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
	nextID int
	now    func() time.Time
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, now: time.Now}
}

// Add shows a notice and returns its toast id. Empty notices are ignored.
func (m *ToastManager) Add(n session.Notice) int {
	if strings.TrimSpace(n.Text) == "" {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Toast{
		ID:        m.nextID,
		Level:     n.Level,
		Text:      n.Text,
		CreatedAt: m.now(),
		Duration:  durationFor(n.Level),
	}
	m.nextID++

	// Repeated notices refresh instead of stacking.
	for i, old := range m.toasts {
		if old.Text == t.Text && old.Level == t.Level {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			break
		}
	}
	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > MaxToasts {
		m.toasts = m.toasts[:MaxToasts]
	}
	return t.ID
}

// Dismiss removes a toast by id.
func (m *ToastManager) Dismiss(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast.
func (m *ToastManager) DismissNewest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Tick drops expired toasts and returns how many remain.
func (m *ToastManager) Tick() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.Expired(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return len(m.toasts)
}

// Toasts returns a copy of the visible toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// Len returns the number of visible toasts.
func (m *ToastManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts)
}

// Clear removes every toast.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// ToastTickMsg drives toast expiry.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks toasts every 250ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// RENDERING
// =============================================================================

func toastStyle(theme *styles.Theme, level session.Level) (lipgloss.Style, string) {
	switch level {
	case session.LevelError:
		return theme.ToastError, styles.StatusIndicators.Error
	case session.LevelWarning:
		return theme.ToastWarning, styles.StatusIndicators.Warning
	case session.LevelSuccess:
		return theme.ToastSuccess, styles.StatusIndicators.Success
	default:
		return theme.ToastInfo, styles.StatusIndicators.Info
	}
}

// RenderToast draws one toast no wider than width.
func RenderToast(theme *styles.Theme, t Toast, width int) string {
	maxWidth := 56
	if width > 0 && width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 20 {
		maxWidth = 20
	}
	style, icon := toastStyle(theme, t.Level)
	text := lipgloss.NewStyle().Width(maxWidth - 2 - len(icon) - 1).Render(t.Text)
	return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, icon+" ", text))
}

// RenderToasts stacks toasts right-aligned, newest at the bottom.
func RenderToasts(theme *styles.Theme, toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	rows := make([]string, 0, len(toasts))
	for i := len(toasts) - 1; i >= 0; i-- {
		rows = append(rows, RenderToast(theme, toasts[i], width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rows...)
	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
	}
	return stack
}
