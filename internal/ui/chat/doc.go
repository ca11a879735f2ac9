// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the assistant chat view for the TUI.

The view renders an assistant.Conversation. Turns run on a goroutine
started from Update; the conversation's change listener pushes snapshots
through a one-slot relay that always holds the newest state, and the
Update loop re-arms a wait on it after each SnapshotMsg.

# Keys

	Enter       send (ignored while a reply is streaming)
	Alt+Enter   newline
	Esc/Ctrl+C  stop the reply; Ctrl+C quits when idle
	Ctrl+L      clear the conversation
	PgUp/PgDn   scroll
	Ctrl+D      quit

Assistant replies are rendered with glamour when markdown is enabled.
*/
package chat
