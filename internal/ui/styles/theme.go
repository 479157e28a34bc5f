// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds every styled component for one color scheme.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header and chrome
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	StatusBar   lipgloss.Style
	ShortcutKey lipgloss.Style
	Muted       lipgloss.Style

	// Messages
	RoleUser     lipgloss.Style
	RoleBot      lipgloss.Style
	UserBubble   lipgloss.Style
	BotBubble    lipgloss.Style
	ErrorBubble  lipgloss.Style
	InfoBubble   lipgloss.Style
	ImageBadge   lipgloss.Style
	Timestamp    lipgloss.Style
	AttachChip   lipgloss.Style
	CodeLangBase lipgloss.Style

	// Input
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// History sidebar
	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarCurrent  lipgloss.Style
	SidebarPreview  lipgloss.Style

	// Settings panel
	Panel      lipgloss.Style
	PanelLabel lipgloss.Style
	PanelFocus lipgloss.Style

	// Toasts
	ToastSuccess lipgloss.Style
	ToastError   lipgloss.Style
	ToastWarning lipgloss.Style
	ToastInfo    lipgloss.Style

	Spinner lipgloss.Style
}

// GlamourStyle names the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// ChromaStyle names the chroma style used for code blocks.
func (t *Theme) ChromaStyle() string {
	if t.IsDark {
		return "monokai"
	}
	return "github"
}

// New builds the theme and makes it the active color scheme.
func New(dark bool) *Theme {
	lipgloss.SetHasDarkBackground(dark)
	t := &Theme{
		IsDark:       dark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// DetectDark reports whether the terminal background looks dark. Used only
// to pick a first-run default.
func DetectDark() bool {
	return termenv.HasDarkBackground()
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Messages
	t.RoleUser = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.RoleBot = lipgloss.NewStyle().Foreground(Purple).Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.BotBubble = lipgloss.NewStyle().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Rose).
		BorderLeft(true).
		PaddingLeft(1)

	t.InfoBubble = lipgloss.NewStyle().
		Foreground(Blue).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Blue).
		BorderLeft(true).
		PaddingLeft(1)

	t.ImageBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.AttachChip = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(Overlay).
		Padding(0, 1).
		MarginRight(1)

	t.CodeLangBase = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Cyan).
		Padding(0, 1)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.SidebarCurrent = lipgloss.NewStyle().
		Foreground(Cyan)

	t.SidebarPreview = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Settings panel
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.PanelLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(16)

	t.PanelFocus = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true).
		Width(16)

	// Toasts
	toast := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	t.ToastSuccess = toast.Foreground(TextInverse).Background(Emerald)
	t.ToastError = toast.Foreground(TextInverse).Background(Rose)
	t.ToastWarning = toast.Foreground(TextInverse).Background(Amber)
	t.ToastInfo = toast.Foreground(TextInverse).Background(Blue)

	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
}
