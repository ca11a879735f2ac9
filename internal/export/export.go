// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a chat history ready for export.
type Transcript struct {
	User       string          `json:"user,omitempty"`
	ExportedAt time.Time       `json:"exportedAt"`
	Messages   []model.Message `json:"messages"`
}

// NewTranscript copies msgs into a transcript stamped with the current time.
// An empty user means the chat was anonymous.
func NewTranscript(msgs []model.Message, user string) *Transcript {
	cp := make([]model.Message, len(msgs))
	copy(cp, msgs)
	return &Transcript{
		User:       user,
		ExportedAt: time.Now(),
		Messages:   cp,
	}
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ForPath picks the exporter matching path's extension.
func ForPath(path string) Exporter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONExporter()
	}
	return NewMarkdownExporter()
}

// WriteFile renders t with the exporter for path and writes it atomically.
// A path without an extension gets the exporter's. Returns the final path.
func WriteFile(path string, t *Transcript) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("export path is required")
	}
	exporter := ForPath(path)
	if filepath.Ext(path) == "" {
		path += exporter.FileExtension()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

// formatTimestamp formats a timestamp for headings.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
