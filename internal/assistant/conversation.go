// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
)

// Fixed assistant texts.
const (
	NoResponseText = "(no response)"
	ApologyText    = "Sorry, something went wrong while contacting the assistant."
)

const readBufferSize = 4096

// Snapshot is a copy of the conversation at one point in time.
type Snapshot struct {
	Messages  []model.Message
	Streaming bool
}

// Conversation is the ordered chat history of one widget. At most one
// assistant message is being written at a time; user messages never change.
type Conversation struct {
	transport *Transport
	logger    *zap.Logger

	mu        sync.Mutex
	messages  []model.Message
	streaming bool
	cancel    context.CancelFunc
	turn      uint64
	onChange  func(Snapshot)
}

// NewConversation creates an empty conversation sending turns through t.
func NewConversation(t *Transport) *Conversation {
	return &Conversation{transport: t, logger: t.logger}
}

// OnChange registers fn to receive a snapshot after every history mutation
// and every change of the streaming flag. fn runs on the SendTurn goroutine.
func (c *Conversation) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message(nil), c.messages...)
}

// Streaming reports whether a turn is in flight.
func (c *Conversation) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

// Cancel aborts the turn in flight, if any. Text already received stays.
func (c *Conversation) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset cancels any turn and clears the history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.messages = nil
	c.streaming = false
	c.cancel = nil
	c.turn++
	snap, fn := c.snapshotLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func (c *Conversation) snapshotLocked() (Snapshot, func(Snapshot)) {
	return Snapshot{
		Messages:  append([]model.Message(nil), c.messages...),
		Streaming: c.streaming,
	}, c.onChange
}

// mutate applies fn under the lock and then notifies the observer.
func (c *Conversation) mutate(fn func()) {
	c.mu.Lock()
	fn()
	snap, notify := c.snapshotLocked()
	c.mu.Unlock()
	if notify != nil {
		notify(snap)
	}
}

// SendTurn sends text as a user turn and streams the reply into the
// history. It blocks until the turn completes, fails or is cancelled.
// Blank text is ignored. Failures never escape: they become one
// assistant message carrying ApologyText.
func (c *Conversation) SendTurn(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		turn    uint64
		history []model.Message
	)
	c.mutate(func() {
		c.messages = append(c.messages, model.NewUserMessage(text))
		// A turn still in flight is abandoned, not cancelled.
		c.turn++
		turn = c.turn
		c.cancel = cancel
		c.streaming = true
		history = append([]model.Message(nil), c.messages...)
	})
	defer c.mutate(func() {
		if c.turn == turn {
			c.streaming = false
			c.cancel = nil
		}
	})

	resp, err := c.transport.Open(turnCtx, history)
	if err != nil {
		if turnCtx.Err() != nil {
			return
		}
		c.logger.Warn("chat request failed", zap.Error(err))
		c.appendAssistant(ApologyText)
		return
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("chat request rejected", zap.Int("status", resp.StatusCode))
		c.appendAssistant(ApologyText)
		return
	}

	if resp.Body == http.NoBody {
		c.appendAssistant(NoResponseText)
		return
	}

	c.readStream(turnCtx, resp.Body)
}

// readStream applies deltas until EOF, error or cancellation. Only a body
// that yields no bytes at all is answered with NoResponseText; a stream
// without deltas leaves the history alone.
func (c *Conversation) readStream(ctx context.Context, body io.Reader) {
	var (
		parser  Parser
		partial strings.Builder
		total   int
		buf     = make([]byte, readBufferSize)
	)

	apply := func(events []Event) {
		for _, ev := range events {
			if ev.Kind != EventDelta {
				continue
			}
			partial.WriteString(ev.Delta)
			c.replaceOrAppendAssistant(partial.String())
		}
	}

	for {
		n, err := body.Read(buf)
		if n > 0 {
			total += n
			apply(parser.Feed(buf[:n]))
		}
		if errors.Is(err, io.EOF) {
			apply(parser.Flush())
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Debug("chat turn cancelled", zap.Int("chars", partial.Len()))
				return
			}
			c.logger.Warn("chat stream failed", zap.Error(err))
			c.appendAssistant(ApologyText)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}

	if total == 0 {
		c.appendAssistant(NoResponseText)
	}
}

func (c *Conversation) appendAssistant(text string) {
	c.mutate(func() {
		c.messages = append(c.messages, model.NewAssistantMessage(text))
	})
}

// replaceOrAppendAssistant overwrites the trailing assistant message with
// the running reply, or appends one when the last message is the user's.
func (c *Conversation) replaceOrAppendAssistant(text string) {
	c.mutate(func() {
		if n := len(c.messages); n > 0 && c.messages[n-1].IsAssistant() {
			c.messages[n-1].Content = text
			return
		}
		c.messages = append(c.messages, model.NewAssistantMessage(text))
	})
}
