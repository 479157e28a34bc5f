// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for chatpad.
//
// Colors are lipgloss.AdaptiveColor pairs. The user's theme setting (dark or
// light) is applied with lipgloss.SetHasDarkBackground, so every adaptive
// color flips together when the theme is toggled.
//
// # Usage
//
//	theme := styles.New(settings.Theme == "dark")
//	fmt.Println(theme.UserBubble.Render("Hello"))
//
// Rebuild the theme after toggling:
//
//	theme = styles.New(!theme.IsDark)
package styles
