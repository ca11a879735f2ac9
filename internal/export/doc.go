// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes assistant chat transcripts to disk.
//
// # Supported Formats
//
//   - Markdown: human-readable, one heading per turn
//   - JSON: the role/content pairs plus export metadata
//
// # Usage
//
//	t := export.NewTranscript(conv.Messages(), "Ada Lovelace")
//	path, err := export.WriteFile("chat.md", t)
//
// The format is chosen from the file extension; anything other than
// ".json" is written as Markdown.
package export
