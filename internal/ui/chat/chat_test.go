// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bloodbridge-tui/internal/assistant"
	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

// newTestModel returns a sized chat view whose assistant streams lines.
func newTestModel(t *testing.T, lines ...string) Model {
	t.Helper()
	r := chi.NewRouter()
	r.Post(assistant.DefaultPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conv := assistant.NewConversation(assistant.NewTransport(srv.URL))
	m := New(conv, Options{Theme: styles.NewTheme(styles.ThemeDark)})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

// runBatch executes every command in cmd, as the Bubble Tea runtime would,
// and returns the resulting messages.
func runBatch(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runBatch(c)...)
	}
	return out
}

func enter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

// =============================================================================
// TESTS
// =============================================================================

func TestView_LoadingBeforeSize(t *testing.T) {
	conv := assistant.NewConversation(assistant.NewTransport("http://127.0.0.1:1"))
	m := New(conv, Options{Theme: styles.NewTheme(styles.ThemeDark)})
	assert.Equal(t, "Loading...", m.View())
}

func TestSubmit_StreamsReplyIntoView(t *testing.T) {
	m := newTestModel(t, `data: {"delta":"Hello"}`, `data: {"delta":"Hello donor"}`, "data: [DONE]")
	m.input.SetValue("can I donate?")

	next, cmd := m.Update(enter())
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.Streaming())
	assert.Empty(t, m.input.Value())

	var done bool
	for _, msg := range runBatch(cmd) {
		if _, ok := msg.(TurnDoneMsg); ok {
			done = true
		}
	}
	require.True(t, done)

	next, _ = m.Update(m.relay.wait()())
	m = next.(Model)
	assert.False(t, m.Streaming())
	require.Len(t, m.Messages(), 2)
	assert.Equal(t, model.RoleUser, m.Messages()[0].Role)
	assert.Equal(t, "Hello donor", m.Messages()[1].Content)
	assert.Contains(t, m.View(), "Hello donor")
}

func TestSubmit_IgnoredWhileStreaming(t *testing.T) {
	m := newTestModel(t)
	m.streaming = true
	m.input.SetValue("second question")

	next, cmd := m.Update(enter())
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, "second question", m.input.Value())
}

func TestSubmit_BlankIgnored(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("   ")

	_, cmd := m.Update(enter())
	assert.Nil(t, cmd)
}

func TestCtrlC_QuitsWhenIdle(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestEsc_IdleIsNoop(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
}

func TestCtrlL_ClearsConversation(t *testing.T) {
	m := newTestModel(t, `data: {"delta":"hi"}`)
	m.conv.SendTurn(context.Background(), "hello")
	require.Len(t, m.conv.Messages(), 2)

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.conv.Messages())
}

func TestRelay_KeepsLatestSnapshot(t *testing.T) {
	r := newRelay()
	for i := 1; i <= 3; i++ {
		r.push(assistant.Snapshot{Messages: []model.Message{model.NewUserMessage(strings.Repeat("x", i))}})
	}
	msg := r.wait()().(SnapshotMsg)
	require.Len(t, msg.Snapshot.Messages, 1)
	assert.Equal(t, "xxx", msg.Snapshot.Messages[0].Content)
}

func TestView_HeaderShowsUser(t *testing.T) {
	conv := assistant.NewConversation(assistant.NewTransport("http://127.0.0.1:1"))
	m := New(conv, Options{Theme: styles.NewTheme(styles.ThemeDark), UserName: "Asha"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, next.(Model).View(), "Asha")
}

func TestUserChangedMsg_UpdatesHeader(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, m.View(), "anonymous")

	next, _ := m.Update(UserChangedMsg{Name: "Dr. Rao (hospital)"})
	assert.Contains(t, next.(Model).View(), "Dr. Rao (hospital)")
}
