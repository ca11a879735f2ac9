// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the typed REST client for the blood-donation backend.
// Every call goes through the session's authenticated-request helper.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/bloodbridge-tui/internal/logging"
	"github.com/jeranaias/bloodbridge-tui/internal/session"
)

const (
	// DefaultTimeout bounds each REST call.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the largest body the client will read.
	MaxResponseSize = 10 * 1024 * 1024
)

// Client issues REST calls on behalf of a session.
type Client struct {
	sess    *session.Manager
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps outgoing calls per second. Zero or less disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client bound to sess.
func New(sess *session.Manager, opts ...Option) *Client {
	c := &Client{sess: sess, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger).Named("api")
	return c
}

// Session returns the session the client acts for.
func (c *Client) Session() *session.Manager {
	return c.sess
}

// do sends one request. A non-nil in is encoded as the JSON body; a non-nil
// out receives the decoded response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	req, err := c.sess.NewRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := c.sess.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := decodeResource(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// decodeResource unwraps a {"data": {...}} envelope when present.
func decodeResource(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err == nil {
			if data, ok := env["data"]; ok {
				d := bytes.TrimSpace(data)
				if len(d) > 0 && d[0] == '{' {
					return json.Unmarshal(d, out)
				}
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}

func resourcePath(base, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s: id is required", base)
	}
	return base + "/" + url.PathEscape(id), nil
}
