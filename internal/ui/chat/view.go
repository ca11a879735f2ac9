// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/util"
)

// View renders the chat view.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.theme.InputBorder.Width(m.width).Render(m.input.View()),
		m.renderStatusBar(),
	)
}

// refreshViewport re-renders the history and keeps the view pinned to the
// bottom while a reply streams in.
func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom || m.streaming {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("bloodbridge assistant")
	who := "anonymous"
	if m.userName != "" {
		who = m.userName
	}
	user := m.theme.HeaderUser.Render(who)

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(user) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + user)
}

func (m Model) renderStatusBar() string {
	left := m.keyMap.ShortHelp()
	if m.streaming {
		left = m.spinner.View() + " " + m.theme.Streaming.Render("replying... Esc to stop")
	}
	return m.theme.StatusBar.Width(m.width).Render(util.TruncateWidth(left, max(m.width-2, 1)))
}

func (m Model) renderMessages() string {
	if len(m.messages) == 0 {
		return m.theme.Muted.Render("Ask anything about donation eligibility, campaigns or blood groups.")
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg model.Message) string {
	if msg.IsUser() {
		return m.theme.UserLabel.Render(msg.Role.DisplayName()) + "\n" +
			m.theme.UserText.Render(msg.Content)
	}

	body := msg.Content
	if m.renderer != nil {
		if out, err := m.renderer.Render(body); err == nil {
			body = strings.Trim(out, "\n")
		}
	} else {
		body = m.theme.AssistantText.Render(body)
	}
	return m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + "\n" + body
}
