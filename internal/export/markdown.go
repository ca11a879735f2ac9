// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	// IncludeTimestamps adds the send time next to each role heading.
	IncludeTimestamps bool
}

// NewMarkdownExporter creates a Markdown exporter with timestamps on.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{IncludeTimestamps: true}
}

// Export converts a transcript to Markdown. Message bodies are written
// verbatim since assistant replies are already Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("---\n")
	if t.User != "" {
		sb.WriteString(fmt.Sprintf("user: %s\n", escapeYAML(t.User)))
	}
	sb.WriteString(fmt.Sprintf("exported: %s\n", t.ExportedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("messages: %d\n", len(t.Messages)))
	sb.WriteString("generator: bloodbridge\n")
	sb.WriteString("---\n\n")

	sb.WriteString("# Donation assistant chat\n\n")
	sb.WriteString(fmt.Sprintf("_Exported %s_\n\n", formatTimestamp(t.ExportedAt)))

	for i, msg := range t.Messages {
		label := msg.Role.DisplayName()
		if msg.IsUser() && t.User != "" {
			label = escapeMarkdown(t.User)
		}
		if e.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values that YAML would otherwise misread.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
