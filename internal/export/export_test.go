// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
)

func sampleTranscript(user string) *Transcript {
	at := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
	q := model.NewUserMessage("Can I donate after a tattoo?")
	q.Timestamp = at
	a := model.NewAssistantMessage("Usually after **6 months**.\n")
	a.Timestamp = at.Add(time.Second)
	t := NewTranscript([]model.Message{q, a}, user)
	t.ExportedAt = at.Add(time.Minute)
	return t
}

func TestNewTranscript_CopiesMessages(t *testing.T) {
	msgs := []model.Message{model.NewUserMessage("hi")}
	tr := NewTranscript(msgs, "")
	msgs[0].Content = "changed"
	assert.Equal(t, "hi", tr.Messages[0].Content)
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter().Export(sampleTranscript("Ada_L"))
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\nuser: Ada_L\n"))
	assert.Contains(t, md, "messages: 2\n")
	assert.Contains(t, md, "### Ada\\_L <sub>09:30:00</sub>")
	assert.Contains(t, md, "### Assistant <sub>09:30:01</sub>")
	assert.Contains(t, md, "Usually after **6 months**.\n\n")
	assert.Equal(t, 1, strings.Count(md, "\n---\n\n### "))
}

func TestMarkdownExport_Anonymous(t *testing.T) {
	e := &MarkdownExporter{}
	out, err := e.Export(sampleTranscript(""))
	require.NoError(t, err)
	md := string(out)
	assert.NotContains(t, md, "user:")
	assert.Contains(t, md, "### You\n\n")
}

func TestMarkdownExport_QuotesYAML(t *testing.T) {
	out, err := NewMarkdownExporter().Export(sampleTranscript("Dr: Who\nx: y"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `user: "Dr: Who\nx: y"`)
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter().Export(sampleTranscript("Ada"))
	require.NoError(t, err)

	var got struct {
		User     string `json:"user"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "Ada", got.User)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.NotContains(t, string(out), `"ID"`)
}

func TestExport_Empty(t *testing.T) {
	_, err := NewJSONExporter().Export(NewTranscript(nil, ""))
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	_, err = NewMarkdownExporter().Export(nil)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestForPath(t *testing.T) {
	assert.IsType(t, &JSONExporter{}, ForPath("chat.JSON"))
	assert.IsType(t, &MarkdownExporter{}, ForPath("chat.md"))
	assert.IsType(t, &MarkdownExporter{}, ForPath("chat.txt"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteFile(filepath.Join(dir, "nested", "chat"), sampleTranscript("Ada"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "chat.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Donation assistant chat")

	path, err = WriteFile(filepath.Join(dir, "chat.json"), sampleTranscript("Ada"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestWriteFile_Errors(t *testing.T) {
	_, err := WriteFile("  ", sampleTranscript(""))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.md")
	_, err = WriteFile(path, NewTranscript(nil, ""))
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
