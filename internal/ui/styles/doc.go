// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the bloodbridge TUI.

# Color System (colors.go)

  - Crimson - Brand color, header and assistant label
  - Cyan - User messages and prompts
  - Emerald - Signed-in indicator
  - Amber - Streaming indicator
  - Rose - Errors

# Themes (theme.go)

NewTheme takes the ui.theme setting ("auto", "dark" or "light"). Auto mode
queries the terminal background through termenv; the other two force Lip
Gloss adaptive colors to one side.

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.Header.Render("bloodbridge")
*/
package styles
