// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds the styled components for the chat view.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderUser  lipgloss.Style

	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantText  lipgloss.Style

	InputBorder lipgloss.Style
	StatusBar   lipgloss.Style
	Streaming   lipgloss.Style
	Error       lipgloss.Style
	Muted       lipgloss.Style
}

// NewTheme builds a theme. "auto" asks the terminal for its background;
// "dark" and "light" force the adaptive colors one way.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case ThemeDark:
		isDark = true
	case ThemeLight:
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(CrimsonDeep).
		Foreground(TextInverse).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true)
	t.HeaderUser = lipgloss.NewStyle().Foreground(TextInverse).Italic(true)

	t.UserLabel = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.UserText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(Crimson).Bold(true)
	t.AssistantText = lipgloss.NewStyle().Foreground(TextPrimary)

	t.InputBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)
	t.StatusBar = lipgloss.NewStyle().Foreground(TextMuted).Padding(0, 1)
	t.Streaming = lipgloss.NewStyle().Foreground(Amber)
	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}

// GlamourStyle returns the glamour standard style name matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// Plain reports whether the terminal renders no color at all.
func (t *Theme) Plain() bool {
	return t.ColorProfile == termenv.Ascii
}
