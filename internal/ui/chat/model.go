// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the assistant chat view for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/bloodbridge-tui/internal/assistant"
	"github.com/jeranaias/bloodbridge-tui/internal/logging"
	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/ui/styles"
)

// Options configures the chat view.
type Options struct {
	Theme    *styles.Theme
	Markdown bool   // render assistant replies with glamour
	UserName string // shown in the header; empty means anonymous
	Logger   *zap.Logger
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme  *styles.Theme
	logger *zap.Logger

	// Dimensions
	width  int
	height int

	conv      *assistant.Conversation
	relay     *relay
	cancelMgr *cancelManager // pointer so model copies share the mutex

	// Last snapshot received from the conversation
	messages  []model.Message
	streaming bool

	// UI Components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	keyMap   KeyMap

	markdown bool
	renderer *glamour.TermRenderer
	userName string
}

// New creates a chat view over conv. It installs itself as conv's change
// listener.
func New(conv *assistant.Conversation, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.ThemeAuto)
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about donating blood..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 4096
	ta.SetHeight(2)
	ta.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = opts.Theme.Streaming

	r := newRelay()
	conv.OnChange(r.push)

	m := Model{
		theme:     opts.Theme,
		logger:    logging.OrNop(opts.Logger).Named("chat"),
		conv:      conv,
		relay:     r,
		cancelMgr: newCancelManager(),
		messages:  conv.Messages(),
		streaming: conv.Streaming(),
		viewport:  vp,
		input:     ta,
		spinner:   sp,
		keyMap:    DefaultKeyMap(),
		markdown:  opts.Markdown,
		userName:  opts.UserName,
	}
	m.renderer = m.newRenderer(vp.Width)
	return m
}

// newRenderer builds a glamour renderer wrapped to width. It returns nil
// when markdown is off or the renderer cannot be built.
func (m Model) newRenderer(width int) *glamour.TermRenderer {
	if !m.markdown {
		return nil
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		m.logger.Debug("markdown renderer unavailable", zap.Error(err))
		return nil
	}
	return r
}

// Messages returns the history as last rendered.
func (m Model) Messages() []model.Message {
	return m.messages
}

// Streaming reports whether a reply is in flight.
func (m Model) Streaming() bool {
	return m.streaming
}

// Init starts the snapshot relay and the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.relay.wait())
}
