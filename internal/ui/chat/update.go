// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Layout rows outside the viewport: header, input border and textarea,
// status bar.
const (
	headerHeight    = 1
	inputAreaHeight = 3
	statusBarHeight = 1
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		wasStreaming := m.streaming
		m.messages = msg.Snapshot.Messages
		m.streaming = msg.Snapshot.Streaming
		m.refreshViewport()
		cmds := []tea.Cmd{m.relay.wait()}
		if m.streaming && !wasStreaming {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case TurnDoneMsg:
		return m, nil

	case UserChangedMsg:
		m.userName = msg.Name
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = vpHeight
	m.input.SetWidth(max(m.width-2, 10))

	m.renderer = m.newRenderer(m.viewport.Width)
	m.refreshViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.streaming {
			m.conv.Cancel()
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Clear):
		if !m.streaming {
			m.conv.Reset()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Newline):
		m.input.InsertString("\n")
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if m.streaming {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.streaming = true
		return m, tea.Batch(m.sendTurn(text), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendTurn runs one turn off the Update loop. Progress arrives through the
// relay; TurnDoneMsg only marks the goroutine's exit.
func (m Model) sendTurn(text string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)
	conv := m.conv
	return func() tea.Msg {
		defer cancel()
		conv.SendTurn(ctx, text)
		return TurnDoneMsg{}
	}
}

// shutdown stops any in-flight turn before the program exits.
func (m Model) shutdown() {
	m.conv.Cancel()
	m.cancelMgr.cancel()
}
