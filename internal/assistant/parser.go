// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"bytes"
	"encoding/json"
)

// MaxLineSize bounds a single buffered line. Longer lines are discarded
// up to their terminating newline.
const MaxLineSize = 1 << 20

var (
	dataPrefix = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// EventKind classifies a decoded stream line.
type EventKind int

const (
	// EventDelta carries a fragment of assistant text.
	EventDelta EventKind = iota
	// EventDone is the [DONE] sentinel. It does not end the read loop.
	EventDone
	// EventMalformed is a data line whose payload did not decode.
	EventMalformed
)

// Event is one decoded data line.
type Event struct {
	Kind  EventKind
	Delta string
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Parser splits a byte stream into data lines and decodes them. Splitting
// is byte-wise, so a multi-byte character cut across two reads is joined
// before it is decoded. A line is interpreted only once its newline has
// arrived, or at end of stream via Flush.
type Parser struct {
	buf      []byte
	overflow bool
}

// Feed consumes the next chunk of the body and returns the events for
// every line it completed.
func (p *Parser) Feed(chunk []byte) []Event {
	var events []Event
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			p.buffer(chunk)
			break
		}
		p.buffer(chunk[:i])
		if !p.overflow {
			if ev, ok := parseLine(p.buf); ok {
				events = append(events, ev)
			}
		}
		p.buf = p.buf[:0]
		p.overflow = false
		chunk = chunk[i+1:]
	}
	return events
}

// Flush interprets the final unterminated line. Call it once, after the
// body is exhausted.
func (p *Parser) Flush() []Event {
	defer func() {
		p.buf = p.buf[:0]
		p.overflow = false
	}()
	if p.overflow || len(p.buf) == 0 {
		return nil
	}
	if ev, ok := parseLine(p.buf); ok {
		return []Event{ev}
	}
	return nil
}

// Buffered returns the number of bytes held for an incomplete line.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

func (p *Parser) buffer(b []byte) {
	if p.overflow {
		return
	}
	if len(p.buf)+len(b) > MaxLineSize {
		p.overflow = true
		p.buf = p.buf[:0]
		return
	}
	p.buf = append(p.buf, b...)
}

// parseLine decodes one complete line. ok is false for lines that carry
// nothing: non-data lines, empty payloads and empty deltas.
func parseLine(line []byte) (Event, bool) {
	line = bytes.TrimRight(line, "\r")
	if !bytes.HasPrefix(line, dataPrefix) {
		return Event{}, false
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if len(payload) == 0 {
		return Event{}, false
	}
	if bytes.Equal(payload, doneMarker) {
		return Event{Kind: EventDone}, true
	}

	var chunk streamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return Event{Kind: EventMalformed}, true
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return Event{}, false
	}
	return Event{Kind: EventDelta, Delta: chunk.Choices[0].Delta.Content}, true
}
