// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_ForcedModes(t *testing.T) {
	dark := NewTheme(ThemeDark)
	if !dark.IsDark {
		t.Error("dark theme should report IsDark")
	}
	if got := dark.GlamourStyle(); got != "dark" {
		t.Errorf("GlamourStyle() = %q, want dark", got)
	}

	light := NewTheme("LIGHT")
	if light.IsDark {
		t.Error("light theme should not report IsDark")
	}
	if got := light.GlamourStyle(); got != "light" {
		t.Errorf("GlamourStyle() = %q, want light", got)
	}
}

func TestTheme_StylesRenderText(t *testing.T) {
	theme := NewTheme(ThemeDark)
	for name, out := range map[string]string{
		"header":    theme.Header.Render("bloodbridge"),
		"user":      theme.UserLabel.Render("You"),
		"assistant": theme.AssistantLabel.Render("Assistant"),
		"error":     theme.Error.Render("failed"),
	} {
		if strings.TrimSpace(out) == "" {
			t.Errorf("%s style rendered empty output", name)
		}
	}
}
