// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// loginServer answers /api/login with handler and counts calls.
func loginServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Post(LoginPath, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		handler(w, req)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &calls
}

// failingStore rejects every group write.
type failingStore struct {
	*storage.MemoryStore
}

func (f failingStore) SetMany(context.Context, map[string]string) error {
	return errors.New("disk full")
}

// groupReadStore only answers group reads.
type groupReadStore struct {
	*storage.MemoryStore
}

func (g groupReadStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("single-key read")
}

// undeletableStore rejects every group delete.
type undeletableStore struct {
	*storage.MemoryStore
}

func (u undeletableStore) DeleteMany(context.Context, ...string) error {
	return errors.New("disk full")
}

// =============================================================================
// INITIALIZE
// =============================================================================

func TestInitialize_EmptyStoreIsAnonymous(t *testing.T) {
	m := New("http://unused", storage.NewMemoryStore())
	require.NoError(t, m.Initialize(context.Background()))

	assert.False(t, m.Authenticated())
	assert.Empty(t, m.Role())
	assert.True(t, m.User().IsZero())
}

func TestInitialize_RestoresAllFields(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetMany(ctx, map[string]string{
		KeyToken: "opaque-token",
		KeyRole:  "hospital",
		KeyUser:  `{"id":"u7","hospitalId":"h3","email":"staff@h3.org"}`,
	}))

	m := New("http://unused", store)
	require.NoError(t, m.Initialize(ctx))

	s := m.State()
	assert.Equal(t, "opaque-token", s.Token)
	assert.Equal(t, model.UserRoleHospital, s.Role)
	assert.Equal(t, model.User{ID: "u7", HospitalID: "h3", Email: "staff@h3.org"}, s.User)
}

func TestInitialize_ReadsKeysAsOneGroup(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.SetMany(ctx, map[string]string{
		KeyToken: "t", KeyRole: "hospital", KeyUser: `{"id":"h1","hospitalId":"h1"}`,
	}))

	m := New("http://unused", groupReadStore{mem})
	require.NoError(t, m.Initialize(ctx))

	assert.Equal(t, "t", m.Token())
	assert.Equal(t, model.UserRoleHospital, m.Role())
	assert.Equal(t, "h1", m.User().HospitalID)
}

func TestInitialize_RoleFromTokenClaims(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	tok := signToken(t, jwt.MapClaims{"sub": "u1", "role": "admin"})
	require.NoError(t, store.SetMany(ctx, map[string]string{KeyToken: tok}))

	m := New("http://unused", store)
	require.NoError(t, m.Initialize(ctx))

	assert.True(t, m.Authenticated())
	assert.Equal(t, model.UserRoleAdmin, m.Role())
}

func TestInitialize_UndecodableTokenLeavesRoleEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetMany(ctx, map[string]string{
		KeyToken: "not-a-jwt",
		KeyUser:  "{broken",
	}))

	m := New("http://unused", store)
	require.NoError(t, m.Initialize(ctx))

	assert.True(t, m.Authenticated())
	assert.Empty(t, m.Role())
	assert.True(t, m.User().IsZero())
}

// =============================================================================
// LOGIN
// =============================================================================

func TestLogin_RoleFromBody(t *testing.T) {
	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.org", body.Email)
		assert.Equal(t, "hunter2", body.Password)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-1",
			"role":  "donor",
			"user":  map[string]any{"_id": "d9", "email": "ada@example.org", "name": "Ada"},
		})
	})

	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := New(srv.URL, store)

	res, err := m.Login(ctx, "ada@example.org", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleDonor, res.Role)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "d9", res.User.ID)
	assert.Equal(t, "/", RedirectTarget(res.Role))

	stored, err := store.GetMany(ctx, KeyToken, KeyRole, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", stored[KeyToken])
	assert.Equal(t, "donor", stored[KeyRole])
	assert.JSONEq(t, `{"id":"d9","email":"ada@example.org","name":"Ada"}`, stored[KeyUser])
}

func TestLogin_RoleAndUserFromClaims(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{
		"sub":        "u42",
		"role":       "hospital",
		"hospitalId": 17,
		"email":      "desk@general.org",
	})
	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"token": tok})
	})

	m := New(srv.URL, storage.NewMemoryStore())
	res, err := m.Login(context.Background(), "desk@general.org", "pw")
	require.NoError(t, err)

	assert.Equal(t, model.UserRoleHospital, res.Role)
	assert.Equal(t, model.User{ID: "u42", HospitalID: "17", Email: "desk@general.org"}, res.User)
	assert.Equal(t, "/management", RedirectTarget(res.Role))
	assert.Equal(t, model.UserRoleHospital, m.Role())
}

func TestLogin_ServerMessageBecomesAuthenticationError(t *testing.T) {
	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	})

	m := New(srv.URL, storage.NewMemoryStore())
	_, err := m.Login(context.Background(), "a@b.c", "wrong")

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestLogin_UnparsableErrorBody(t *testing.T) {
	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	m := New(srv.URL, storage.NewMemoryStore())
	_, err := m.Login(context.Background(), "a@b.c", "pw")

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Login failed", authErr.Error())
}

func TestLogin_MissingTokenKeepsPriorSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetMany(ctx, map[string]string{
		KeyToken: "previous",
		KeyRole:  "hospital",
		KeyUser:  `{"id":"h1"}`,
	}))

	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"role": "donor"})
	})

	m := New(srv.URL, store)
	require.NoError(t, m.Initialize(ctx))

	_, err := m.Login(ctx, "a@b.c", "pw")
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "No token returned", protoErr.Message)

	assert.Equal(t, "previous", m.Token())
	assert.Equal(t, model.UserRoleHospital, m.Role())
	stored, err := store.GetMany(ctx, KeyToken, KeyRole, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyToken: "previous", KeyRole: "hospital", KeyUser: `{"id":"h1"}`}, stored)
}

func TestLogin_NoRoleAnywhereKeepsPriorSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetMany(ctx, map[string]string{
		KeyToken: "previous",
		KeyRole:  "donor",
		KeyUser:  `{"id":"d1"}`,
	}))

	tok := signToken(t, jwt.MapClaims{"sub": "u1"})
	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": tok})
	})

	m := New(srv.URL, store)
	require.NoError(t, m.Initialize(ctx))

	_, err := m.Login(ctx, "a@b.c", "pw")
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "No role in token/response", protoErr.Message)

	assert.Equal(t, "previous", m.Token())
	stored, err := store.GetMany(ctx, KeyToken, KeyRole)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyToken: "previous", KeyRole: "donor"}, stored)
}

func TestLogin_StoreFailureKeepsMemoryState(t *testing.T) {
	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "t", "role": "admin"})
	})

	m := New(srv.URL, failingStore{storage.NewMemoryStore()})
	_, err := m.Login(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.False(t, m.Authenticated())
}

func TestLogin_NetworkError(t *testing.T) {
	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	m := New(srv.URL, storage.NewMemoryStore())
	_, err := m.Login(context.Background(), "a@b.c", "pw")
	require.Error(t, err)

	var authErr *AuthenticationError
	assert.False(t, errors.As(err, &authErr))
}

// =============================================================================
// LOGOUT
// =============================================================================

func TestLogout_ClearsMemoryAndStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetMany(ctx, map[string]string{
		KeyToken: "t", KeyRole: "admin", KeyUser: `{"id":"a1"}`, "unrelated": "kept",
	}))

	m := New("http://unused", store)
	require.NoError(t, m.Initialize(ctx))
	require.True(t, m.Authenticated())

	require.NoError(t, m.Logout(ctx))

	assert.Equal(t, State{}, m.State())
	stored, err := store.GetMany(ctx, KeyToken, KeyRole, KeyUser, "unrelated")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"unrelated": "kept"}, stored)
}

func TestLogout_StoreFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.SetMany(ctx, map[string]string{KeyToken: "t", KeyRole: "admin"}))

	m := New("http://unused", undeletableStore{mem})
	require.NoError(t, m.Initialize(ctx))

	var notified atomic.Int32
	m.OnChange(func(State) { notified.Add(1) })

	err := m.Logout(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear session")

	assert.True(t, m.Authenticated())
	assert.Equal(t, model.UserRoleAdmin, m.Role())
	assert.Equal(t, int32(0), notified.Load())
	stored, err := mem.GetMany(ctx, KeyToken, KeyRole)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyToken: "t", KeyRole: "admin"}, stored)
}

func TestOnChange_NotifiedOnLoginAndLogout(t *testing.T) {
	srv, _ := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "t", "role": "donor"})
	})

	m := New(srv.URL, storage.NewMemoryStore())
	var seen []bool
	m.OnChange(func(s State) { seen = append(seen, s.Authenticated()) })

	_, err := m.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	require.NoError(t, m.Logout(context.Background()))

	assert.Equal(t, []bool{true, false}, seen)
}

// =============================================================================
// AUTHENTICATED REQUESTS
// =============================================================================

func TestDo_AttachesBearerAndContentType(t *testing.T) {
	var gotAuth, gotType, gotID string
	r := chi.NewRouter()
	r.Get("/api/donors/{id}", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		gotType = req.Header.Get("Content-Type")
		gotID = req.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetMany(ctx, map[string]string{KeyToken: "abc", KeyRole: "donor"}))
	m := New(srv.URL, store)
	require.NoError(t, m.Initialize(ctx))

	req, err := m.NewRequest(ctx, http.MethodGet, "/api/donors/d1", nil)
	require.NoError(t, err)
	resp, err := m.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.NotEmpty(t, gotID)
}

func TestDo_AnonymousAndCallerContentType(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		gotType = req.Header.Get("Content-Type")
	}))
	defer srv.Close()

	m := New(srv.URL, storage.NewMemoryStore())
	req, err := m.NewRequest(context.Background(), http.MethodPost, "/upload", nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	resp, err := m.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, gotAuth)
	assert.Equal(t, "multipart/form-data; boundary=xyz", gotType)
}

func TestDo_UnauthorizedIsReturnedRaw(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetMany(ctx, map[string]string{KeyToken: "expired", KeyRole: "admin"}))
	m := New(srv.URL, store)
	require.NoError(t, m.Initialize(ctx))

	req, err := m.NewRequest(ctx, http.MethodGet, "/api/requests", nil)
	require.NoError(t, err)
	resp, err := m.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "no retry")
	assert.True(t, m.Authenticated(), "401 does not sign out")
}

// =============================================================================
// ROUTING AND GUARDS
// =============================================================================

func TestRedirectTarget(t *testing.T) {
	tests := []struct {
		role model.UserRole
		want string
	}{
		{model.UserRoleDonor, "/"},
		{model.UserRoleHospital, "/management"},
		{model.UserRoleAdmin, "/management"},
		{"", "/management"},
		{"auditor", "/management"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedirectTarget(tt.role), "role %q", tt.role)
	}
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := New("http://unused", store)

	assert.ErrorIs(t, m.Guard(), ErrNotAuthenticated)
	assert.ErrorIs(t, m.Guard(model.UserRoleDonor), ErrNotAuthenticated)

	require.NoError(t, store.SetMany(ctx, map[string]string{KeyToken: "t", KeyRole: "donor"}))
	require.NoError(t, m.Initialize(ctx))

	assert.NoError(t, m.Guard())
	assert.NoError(t, m.Guard(model.UserRoleDonor))
	assert.ErrorIs(t, m.Guard(model.UserRoleHospital, model.UserRoleAdmin), ErrForbidden)
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_SeesLogoutFromAnotherProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "session.json")
	watchedStore := storage.NewFileStore(path, 20*time.Millisecond, nil)
	otherStore := storage.NewFileStore(path, 0, nil)

	require.NoError(t, otherStore.SetMany(ctx, map[string]string{KeyToken: "t", KeyRole: "hospital"}))

	watched := New("http://unused", watchedStore)
	require.NoError(t, watched.Initialize(ctx))
	require.True(t, watched.Authenticated())
	require.NoError(t, watched.Watch(ctx))

	other := New("http://unused", otherStore)
	require.NoError(t, other.Initialize(ctx))
	require.NoError(t, other.Logout(ctx))

	assert.Eventually(t, func() bool { return !watched.Authenticated() }, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_NoopForMemoryStore(t *testing.T) {
	m := New("http://unused", storage.NewMemoryStore())
	assert.NoError(t, m.Watch(context.Background()))
}

// =============================================================================
// CLAIMS
// =============================================================================

func TestDecodeClaims(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"id": 5, "role": "donor", "donorId": "dn-1", "name": "Bo"})
	c, ok := DecodeClaims(tok)
	require.True(t, ok)
	assert.Equal(t, "5", c.UserID())
	assert.Equal(t, "donor", c.Role)
	assert.Equal(t, "dn-1", c.DonorID)
	assert.Equal(t, "Bo", c.Name)

	_, ok = DecodeClaims("garbage")
	assert.False(t, ok)
	_, ok = DecodeClaims("a.!!!.c")
	assert.False(t, ok)
}

func TestDecodeClaims_PayloadOnlyFallback(t *testing.T) {
	// Header segment is not valid base64 JSON; the payload still decodes.
	c, ok := DecodeClaims("bad-header.eyJyb2xlIjoiYWRtaW4ifQ.sig")
	require.True(t, ok)
	assert.Equal(t, "admin", c.Role)
}
