// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the authenticated identity of the running client
// and mediates every authenticated call to the backend.
package session

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/bloodbridge-tui/internal/logging"
	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/storage"
)

// Storage keys. They are always written and cleared together.
const (
	KeyToken = "auth_token"
	KeyRole  = "auth_role"
	KeyUser  = "auth_user"
)

// LoginPath is the credential exchange endpoint.
const LoginPath = "/api/login"

// RequestIDHeader carries a per-request id for correlating client and
// server logs.
const RequestIDHeader = "X-Request-ID"

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20
)

// DefaultHTTPClient is the pooled client used for non-streaming calls.
var DefaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	},
	Timeout: defaultTimeout,
}

// =============================================================================
// STATE
// =============================================================================

// State is a snapshot of the session.
type State struct {
	Token string
	Role  model.UserRole
	User  model.User
}

// Authenticated reports whether a token is held.
func (s State) Authenticated() bool {
	return s.Token != ""
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Role  model.UserRole `json:"role"`
	User  model.User     `json:"user"`
	Token string         `json:"-"`
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager is the single source of truth for who is using the client.
// Only the Manager mutates session state.
type Manager struct {
	mu    sync.RWMutex
	state State

	baseURL string
	store   storage.Store
	client  *http.Client
	logger  *zap.Logger

	listenersMu sync.Mutex
	listeners   []func(State)
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient replaces DefaultHTTPClient.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.client = c
	}
}

// WithLogger sets the logger. Tokens and passwords are never logged.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates an anonymous session bound to baseURL and store. Call
// Initialize to rehydrate a persisted session.
func New(baseURL string, store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		client:  DefaultHTTPClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrNop(m.logger).Named("session")
	return m
}

// BaseURL returns the backend base URL with no trailing slash.
func (m *Manager) BaseURL() string {
	return m.baseURL
}

// State returns a snapshot of the current session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Token returns the bearer token, or "" when anonymous.
func (m *Manager) Token() string {
	return m.State().Token
}

// Role returns the session role, or "" when anonymous.
func (m *Manager) Role() model.UserRole {
	return m.State().Role
}

// User returns the persisted profile.
func (m *Manager) User() model.User {
	return m.State().User
}

// Authenticated reports whether a token is held.
func (m *Manager) Authenticated() bool {
	return m.State().Authenticated()
}

// OnChange registers fn to be called with the new state after Initialize,
// Login and Logout.
func (m *Manager) OnChange(fn func(State)) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()

	m.listenersMu.Lock()
	listeners := append([]func(State){}, m.listeners...)
	m.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Initialize rehydrates the session from storage. When a token is stored
// without a role, the role is taken from the token's claims; a token that
// cannot be decoded leaves the role empty.
func (m *Manager) Initialize(ctx context.Context) error {
	values, err := m.store.GetMany(ctx, KeyToken, KeyRole, KeyUser)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	s := State{Token: values[KeyToken]}
	if s.Token == "" {
		m.setState(State{})
		return nil
	}

	s.Role = model.ParseUserRole(values[KeyRole])
	if s.Role == "" {
		if claims, ok := DecodeClaims(s.Token); ok {
			s.Role = model.ParseUserRole(claims.Role)
		}
	}
	if raw := values[KeyUser]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.User); err != nil {
			m.logger.Debug("ignoring unreadable stored user", zap.Error(err))
			s.User = model.User{}
		}
	}

	m.setState(s)
	m.logger.Debug("session restored", zap.String("role", string(s.Role)))
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID         json.RawMessage `json:"id"`
	LegacyID   json.RawMessage `json:"_id"`
	HospitalID json.RawMessage `json:"hospitalId"`
	DonorID    json.RawMessage `json:"donorId"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
}

type loginResponse struct {
	Token string     `json:"token"`
	Role  string     `json:"role"`
	User  *loginUser `json:"user"`
}

type messageBody struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a token and persists the new session as
// one group write. On any failure the previous session is left untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+LoginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		logging.LogRequest(m.logger, req.Method, LoginPath, 0, start, requestID, err)
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	logging.LogRequest(m.logger, req.Method, LoginPath, resp.StatusCode, start, requestID, nil)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "Login failed"
		var mb messageBody
		if json.Unmarshal(data, &mb) == nil && mb.Message != "" {
			msg = mb.Message
		}
		return nil, &AuthenticationError{Status: resp.StatusCode, Message: msg}
	}

	var lr loginResponse
	if err := json.Unmarshal(data, &lr); err != nil || lr.Token == "" {
		return nil, &ProtocolError{Message: "No token returned"}
	}

	claims, _ := DecodeClaims(lr.Token)
	role := model.ParseUserRole(lr.Role)
	if role == "" {
		role = model.ParseUserRole(claims.Role)
	}
	if role == "" {
		return nil, &ProtocolError{Message: "No role in token/response"}
	}

	user := normalizeUser(lr.User, claims)
	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	if err := m.store.SetMany(ctx, map[string]string{
		KeyToken: lr.Token,
		KeyRole:  string(role),
		KeyUser:  string(userJSON),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.setState(State{Token: lr.Token, Role: role, User: user})
	m.logger.Info("signed in", zap.String("role", string(role)))
	return &LoginResult{Role: role, User: user, Token: lr.Token}, nil
}

// normalizeUser fills each profile field from the response, falling back
// to the token claims.
func normalizeUser(u *loginUser, c Claims) model.User {
	var out model.User
	if u != nil {
		out.ID = rawString(u.ID)
		if out.ID == "" {
			out.ID = rawString(u.LegacyID)
		}
		out.HospitalID = rawString(u.HospitalID)
		out.DonorID = rawString(u.DonorID)
		out.Email = u.Email
		out.Name = u.Name
	}
	if out.ID == "" {
		out.ID = c.UserID()
	}
	if out.HospitalID == "" {
		out.HospitalID = c.HospitalID
	}
	if out.DonorID == "" {
		out.DonorID = c.DonorID
	}
	if out.Email == "" {
		out.Email = c.Email
	}
	if out.Name == "" {
		out.Name = c.Name
	}
	return out
}

// rawString accepts ids sent as JSON strings or numbers.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Logout clears the session from storage, then from memory. No request is
// sent. When the stored keys cannot be removed the session stays signed in.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.DeleteMany(ctx, KeyToken, KeyRole, KeyUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	m.setState(State{})
	m.logger.Info("signed out")
	return nil
}

// =============================================================================
// AUTHENTICATED REQUESTS
// =============================================================================

// NewRequest builds a request for path on the backend. A non-nil body is
// encoded as JSON.
func (m *Manager) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// Prepare sets the bearer token (when held), a JSON content type unless the
// caller already chose one, and a request id.
func (m *Manager) Prepare(req *http.Request) {
	if token := m.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
}

// Do sends req with the session's credentials and returns the raw
// response. Nothing is retried and a 401 does not end the session.
func (m *Manager) Do(req *http.Request) (*http.Response, error) {
	return m.DoWith(m.client, req)
}

// DoWith is Do over a caller-supplied client, e.g. one without a timeout
// for streaming.
func (m *Manager) DoWith(client *http.Client, req *http.Request) (*http.Response, error) {
	m.Prepare(req)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		logging.LogRequest(m.logger, req.Method, req.URL.Path, 0, start, req.Header.Get(RequestIDHeader), err)
		return nil, err
	}
	logging.LogRequest(m.logger, req.Method, req.URL.Path, resp.StatusCode, start, req.Header.Get(RequestIDHeader), nil)
	return resp, nil
}

// =============================================================================
// ROUTING
// =============================================================================

// RedirectTarget returns where a freshly signed-in user lands: donors go
// to the home view, everyone else to the management console.
func RedirectTarget(role model.UserRole) string {
	if role == model.UserRoleDonor {
		return "/"
	}
	return "/management"
}

// Guard returns ErrNotAuthenticated when anonymous and ErrForbidden when
// the role is not in allowed. An empty allowed list admits any signed-in
// user. This is a client-side hint; the server enforces access.
func (m *Manager) Guard(allowed ...model.UserRole) error {
	s := m.State()
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, r := range allowed {
		if s.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w (role %q)", ErrForbidden, s.Role)
}

// Watch re-runs Initialize whenever the backing store reports an external
// change. Stores without change notification make this a no-op.
func (m *Manager) Watch(ctx context.Context) error {
	w, ok := m.store.(storage.Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, func() {
		if err := m.Initialize(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("session reload failed", zap.Error(err))
		}
	})
}
