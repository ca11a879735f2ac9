// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant streams chat replies from the platform's assistant
// endpoint and folds them into a conversation.
package assistant

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/bloodbridge-tui/internal/logging"
	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/session"
)

// Defaults for the chat request.
const (
	DefaultPath        = "/api/assistant/chat"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
)

// streamingClient has no timeout; streams are bounded by their context.
var streamingClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	},
}

// ChatRequest is the body POSTed to the assistant endpoint.
type ChatRequest struct {
	Messages    []model.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream"`
}

// Transport opens streaming chat requests.
type Transport struct {
	baseURL     string
	path        string
	temperature float64
	maxTokens   int
	client      *http.Client
	session     *session.Manager
	logger      *zap.Logger
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithPath overrides DefaultPath.
func WithPath(path string) TransportOption {
	return func(t *Transport) {
		t.path = path
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(v float64) TransportOption {
	return func(t *Transport) {
		t.temperature = v
	}
}

// WithMaxTokens sets the reply length limit.
func WithMaxTokens(n int) TransportOption {
	return func(t *Transport) {
		t.maxTokens = n
	}
}

// WithHTTPClient replaces the streaming client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) {
		t.client = c
	}
}

// WithSession sends requests through the session so the bearer token is
// attached. Without it the chat is anonymous.
func WithSession(m *session.Manager) TransportOption {
	return func(t *Transport) {
		t.session = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = l
	}
}

// NewTransport creates a transport for the backend at baseURL.
func NewTransport(baseURL string, opts ...TransportOption) *Transport {
	t := &Transport{
		baseURL:     strings.TrimRight(baseURL, "/"),
		path:        DefaultPath,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		client:      streamingClient,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.OrNop(t.logger).Named("assistant")
	return t
}

// Open POSTs the history with stream:true and returns the response
// without reading its body. The caller closes the body.
func (t *Transport) Open(ctx context.Context, history []model.Message) (*http.Response, error) {
	body, err := json.Marshal(ChatRequest{
		Messages:    history,
		Temperature: t.temperature,
		MaxTokens:   t.maxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+t.path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set(session.RequestIDHeader, uuid.NewString())

	if t.session != nil {
		return t.session.DoWith(t.client, req)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		logging.LogRequest(t.logger, req.Method, t.path, 0, start, req.Header.Get(session.RequestIDHeader), err)
		return nil, err
	}
	logging.LogRequest(t.logger, req.Method, t.path, resp.StatusCode, start, req.Header.Get(session.RequestIDHeader), nil)
	return resp, nil
}
