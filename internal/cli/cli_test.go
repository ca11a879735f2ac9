// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bloodbridge-tui/internal/assistant"
	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/session"
	"github.com/jeranaias/bloodbridge-tui/internal/storage"
)

// =============================================================================
// HARNESS
// =============================================================================

func TestMain(m *testing.M) {
	os.Setenv("NO_COLOR", "1")
	color.NoColor = true
	os.Exit(m.Run())
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	store  *storage.MemoryStore
	config string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newHarness serves r and writes a config pointing at it.
func newHarness(t *testing.T, r chi.Router) *harness {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf(`
[api]
base_url = %q
rate_limit_rps = 0

[storage]
driver = "memory"

[log]
level = "debug"
file = %q
`, srv.URL, filepath.Join(dir, "bloodbridge.log"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))

	return &harness{t: t, srv: srv, store: storage.NewMemoryStore(), config: cfgPath}
}

// signIn seeds the store with a session for role.
func (h *harness) signIn(role model.UserRole, user model.User) {
	h.t.Helper()
	raw, err := json.Marshal(user)
	require.NoError(h.t, err)
	require.NoError(h.t, h.store.SetMany(context.Background(), map[string]string{
		session.KeyToken: "test-token",
		session.KeyRole:  string(role),
		session.KeyUser:  string(raw),
	}))
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), append([]string{"--config", h.config}, args...), Options{
		Stdin:   strings.NewReader(stdin),
		Stdout:  &stdout,
		Stderr:  &stderr,
		Version: "1.2.3",
		Store:   h.store,
	})
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// =============================================================================
// AUTH
// =============================================================================

func TestVersion(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	res := h.run("", "version")
	assert.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, "bloodbridge 1.2.3\n", res.stdout)
}

func TestLogin_PasswordFromStdinThenWhoami(t *testing.T) {
	r := chi.NewRouter()
	r.Post(session.LoginPath, func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "rao@city.org", body["email"])
		assert.Equal(t, "s3cret", body["password"])
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok",
			"role":  "hospital",
			"user":  map[string]any{"id": "u1", "name": "Dr. Rao", "hospitalId": "h1"},
		})
	})
	h := newHarness(t, r)

	res := h.run("s3cret\n", "login", "--email", "rao@city.org", "--password-stdin")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Signed in as Dr. Rao")
	assert.Contains(t, res.stdout, "/management")

	res = h.run("", "whoami")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Dr. Rao")
	assert.Contains(t, res.stdout, "hospital")
	assert.Contains(t, res.stdout, "h1")
}

func TestLogin_RejectedPrintsErrorBanner(t *testing.T) {
	r := chi.NewRouter()
	r.Post(session.LoginPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	})
	h := newHarness(t, r)

	res := h.run("wrong\n", "login", "--email", "a@b.c", "--password-stdin")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error:")
	assert.Contains(t, res.stderr, "Invalid credentials")

	token, ok, err := h.store.Get(context.Background(), session.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestLogin_JSONOutput(t *testing.T) {
	r := chi.NewRouter()
	r.Post(session.LoginPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"token": "tok", "role": "donor", "user": map[string]any{"_id": 42}})
	})
	h := newHarness(t, r)

	res := h.run("pw\n", "--json", "login", "--email", "d@x.org", "--password-stdin")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Role     string     `json:"role"`
			User     model.User `json:"user"`
			Redirect string     `json:"redirect"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "donor", out.Data.Role)
	assert.Equal(t, "42", out.Data.User.ID)
	assert.Equal(t, "/", out.Data.Redirect)
}

func TestLogout(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(model.UserRoleDonor, model.User{ID: "d1"})

	res := h.run("", "logout")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Signed out")

	res = h.run("", "whoami")
	assert.Contains(t, res.stdout, "Not signed in")
}

// =============================================================================
// GUARDS
// =============================================================================

func TestGuard_AnonymousIsToldToLogin(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	res := h.run("", "appointments", "list")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "bloodbridge login")
}

func TestGuard_DonorCannotUseStock(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/blood-stock", func(http.ResponseWriter, *http.Request) {
		t.Error("stock endpoint reached by a donor")
	})
	h := newHarness(t, r)
	h.signIn(model.UserRoleDonor, model.User{ID: "d1"})

	res := h.run("", "stock", "list")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "requires role hospital or admin")
}

func TestGuard_StaffCannotBook(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(model.UserRoleAdmin, model.User{ID: "a1"})

	res := h.run("", "appointments", "book", "--hospital", "h1", "--date", "2026-11-02 09:30")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "requires role donor")
}

// =============================================================================
// DOMAIN COMMANDS
// =============================================================================

func TestStockList_DefaultsToOwnHospital(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/blood-stock", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "h1", req.URL.Query().Get("hospitalId"))
		assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"bloodGroup": "O-", "units": 3},
			{"bloodGroup": "A+", "units": 12},
		})
	})
	h := newHarness(t, r)
	h.signIn(model.UserRoleHospital, model.User{ID: "u1", HospitalID: "h1"})

	res := h.run("", "stock", "list")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Less(t, strings.Index(res.stdout, "A+"), strings.Index(res.stdout, "O-"))
	assert.Contains(t, res.stdout, "15")
}

func TestHospitalsList_JSONWithFilters(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/hospitals", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "bloodGroup=AB-&city=Pune&limit=5", req.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]any{{"id": "h1", "name": "City General"}},
			"page":  1,
			"limit": 5,
			"total": 1,
		})
	})
	h := newHarness(t, r)

	res := h.run("", "--json", "hospitals", "list", "--city", "Pune", "--blood-group", "ab-", "--limit", "5")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var out struct {
		Success bool                       `json:"success"`
		Data    model.Page[model.Hospital] `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	require.Len(t, out.Data.Items, 1)
	assert.Equal(t, "City General", out.Data.Items[0].Name)
}

func TestRequestsApprove(t *testing.T) {
	r := chi.NewRouter()
	r.Patch("/api/requests/{id}/status", func(w http.ResponseWriter, req *http.Request) {
		var upd model.StatusUpdate
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&upd))
		assert.Equal(t, model.StatusApproved, upd.Status)
		assert.Equal(t, "stock ok", upd.Note)
		writeJSON(w, http.StatusOK, map[string]any{"id": chi.URLParam(req, "id"), "status": "approved"})
	})
	h := newHarness(t, r)
	h.signIn(model.UserRoleAdmin, model.User{ID: "a1"})

	res := h.run("", "requests", "approve", "r7", "--note", "stock ok")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "request r7 is now approved")
}

func TestDonorUpdate_OnlyChangedFields(t *testing.T) {
	r := chi.NewRouter()
	r.Put("/api/donors/{id}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "d9", chi.URLParam(req, "id"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, map[string]any{"city": "Nagpur", "available": false}, body)
		writeJSON(w, http.StatusOK, map[string]any{"id": "d9", "name": "Asha", "city": "Nagpur", "bloodGroup": "B+"})
	})
	h := newHarness(t, r)
	h.signIn(model.UserRoleDonor, model.User{ID: "u1", DonorID: "d9"})

	res := h.run("", "donor", "update", "--city", "Nagpur", "--available=false")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Nagpur")
}

func TestAPIErrorIsReported(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/campaigns/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Campaign not found"})
	})
	h := newHarness(t, r)

	res := h.run("", "campaigns", "show", "missing")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Campaign not found")
}

// =============================================================================
// CHAT
// =============================================================================

func TestPlainChat_StreamsReply(t *testing.T) {
	r := chi.NewRouter()
	r.Post(assistant.DefaultPath, func(w http.ResponseWriter, req *http.Request) {
		assert.Empty(t, req.Header.Get("Authorization"))
		fmt.Fprintln(w, `data: {"delta":"You can"}`)
		fmt.Fprintln(w, `data: {"delta":"You can donate every 90 days."}`)
		fmt.Fprintln(w, "data: [DONE]")
	})
	h := newHarness(t, r)
	h.signIn(model.UserRoleDonor, model.User{ID: "d1"})

	res := h.run("how often can I donate?\n/exit\n", "chat", "--plain")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "assistant> You can donate every 90 days.")
}

func TestPlainChat_SaveTranscript(t *testing.T) {
	r := chi.NewRouter()
	r.Post(assistant.DefaultPath, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(w, `data: {"delta":"O- is the universal donor."}`)
		fmt.Fprintln(w, "data: [DONE]")
	})
	h := newHarness(t, r)
	h.signIn(model.UserRoleDonor, model.User{ID: "d1", Name: "Ada"})

	dir := t.TempDir()
	mdPath := filepath.Join(dir, "turn.md")
	jsonPath := filepath.Join(dir, "final.json")
	res := h.run("which group gives to all?\n/save "+mdPath+"\n/exit\n", "chat", "--plain", "--save", jsonPath)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Transcript saved to "+mdPath)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "user: Ada")
	assert.Contains(t, string(md), "O- is the universal donor.")

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var got struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Messages, 2)
	assert.Equal(t, model.RoleAssistant, got.Messages[1].Role)
}

func TestPlainChat_SaveWithoutPath(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	res := h.run("/save\n/exit\n", "chat", "--plain", "--save", filepath.Join(t.TempDir(), "x.md"))
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "usage: /save PATH")
	assert.Contains(t, res.stderr, "Nothing to save")
}

func TestStreamPrinter_PrintsSuffixAndApology(t *testing.T) {
	var buf bytes.Buffer
	p := newStreamPrinter(&buf)
	user := model.NewUserMessage("hi")
	p.begin(1)

	p.update(assistant.Snapshot{Messages: []model.Message{user}, Streaming: true})
	p.update(assistant.Snapshot{Messages: []model.Message{user, model.NewAssistantMessage("Hel")}})
	p.update(assistant.Snapshot{Messages: []model.Message{user, model.NewAssistantMessage("Hello")}})
	p.update(assistant.Snapshot{Messages: []model.Message{
		user,
		model.NewAssistantMessage("Hello"),
		model.NewAssistantMessage(assistant.ApologyText),
	}})
	p.end()

	assert.Equal(t, "assistant> Hello\nassistant> "+assistant.ApologyText+"\n", buf.String())
}
