// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/bloodbridge-tui/internal/assistant"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// SnapshotMsg carries the conversation state after a change.
type SnapshotMsg struct {
	Snapshot assistant.Snapshot
}

// TurnDoneMsg is sent when a SendTurn call returns.
type TurnDoneMsg struct{}

// UserChangedMsg updates the signed-in user shown in the header. An empty
// Name means anonymous.
type UserChangedMsg struct {
	Name string
}

// =============================================================================
// SNAPSHOT RELAY
// =============================================================================

// relay forwards conversation snapshots into the Bubble Tea loop. Only the
// latest snapshot matters, so a pending one is replaced rather than queued.
type relay struct {
	ch chan assistant.Snapshot
}

func newRelay() *relay {
	return &relay{ch: make(chan assistant.Snapshot, 1)}
}

// push is installed as the conversation's change listener.
func (r *relay) push(s assistant.Snapshot) {
	for {
		select {
		case r.ch <- s:
			return
		default:
		}
		select {
		case <-r.ch:
		default:
		}
	}
}

// wait blocks for the next snapshot.
func (r *relay) wait() tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: <-r.ch}
	}
}
