// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNew_DarkAndLight(t *testing.T) {
	dark := New(true)
	if !dark.IsDark || dark.GlamourStyle() != "dark" || dark.ChromaStyle() != "monokai" {
		t.Errorf("dark theme misconfigured: %+v", dark.GlamourStyle())
	}

	light := New(false)
	if light.IsDark || light.GlamourStyle() != "light" {
		t.Errorf("light theme misconfigured")
	}
}

func TestTheme_RendersText(t *testing.T) {
	theme := New(true)
	for name, style := range map[string]func(...string) string{
		"user":   theme.UserBubble.Render,
		"bot":    theme.BotBubble.Render,
		"error":  theme.ErrorBubble.Render,
		"toast":  theme.ToastSuccess.Render,
		"badge":  theme.ImageBadge.Render,
		"status": theme.StatusBar.Render,
	} {
		if out := style("hello"); !strings.Contains(out, "hello") {
			t.Errorf("%s style dropped its content: %q", name, out)
		}
	}
}

func TestStatusIndicators_AreASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Success, StatusIndicators.Error, StatusIndicators.Warning,
		StatusIndicators.Info, StatusIndicators.Pending,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q is not ASCII", s)
			}
		}
	}
}
