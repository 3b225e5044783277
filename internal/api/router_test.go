package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpvault/otpvault/internal/api"
	"github.com/otpvault/otpvault/internal/gate"
	"github.com/otpvault/otpvault/internal/vault"
)

const (
	testPassword = "correct horse"
	testSecret   = "JBSWY3DPEHPK3PXP"
)

type testEnv struct {
	router  http.Handler
	storage *vault.MemoryStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	storage := vault.NewMemoryStorage()
	svc := vault.NewService(storage, log)

	cfg := gate.Config{Password: testPassword, MaxAttempts: 5, LockoutDuration: 15 * time.Minute}
	store := gate.NewMemoryStore(gate.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	verifier, err := gate.NewVerifier(cfg)
	require.NoError(t, err)
	g := gate.New(cfg, store, verifier, log)

	return &testEnv{
		router:  api.NewRouter(svc, g, log),
		storage: storage,
	}
}

// do performs an authorized request from the given client IP.
func (e *testEnv) do(t *testing.T, method, path, ip string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.RemoteAddr = ip + ":1234"
	r.Header.Set(gate.PasswordHeader, testPassword)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

func (e *testEnv) addCredential(t *testing.T, label string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/vault", "10.1.0.1", map[string]string{
		"label":  label,
		"secret": testSecret,
		"note":   "a note",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	list := e.do(t, http.MethodGet, "/api/vault", "10.1.0.1", nil)
	require.Equal(t, http.StatusOK, list.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &items))
	for _, item := range items {
		if item["label"] == label {
			return item["id"].(string)
		}
	}
	t.Fatalf("credential %q not found in listing", label)
	return ""
}

func TestRouter_CreateAndList(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/vault", "10.0.0.1", map[string]string{
		"uri":  "otpauth://totp/GitHub:alice?secret=" + testSecret + "&issuer=GitHub",
		"note": "work",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"label":"GitHub:alice"}`, rec.Body.String())

	list := env.do(t, http.MethodGet, "/api/vault", "10.0.0.1", nil)
	require.Equal(t, http.StatusOK, list.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "GitHub:alice", items[0]["label"])
	assert.Equal(t, "GitHub", items[0]["issuer"])
	assert.Equal(t, true, items[0]["has_note"])

	// The listing must never carry the secret or the note body.
	assert.NotContains(t, list.Body.String(), testSecret)
	assert.NotContains(t, list.Body.String(), "work")
}

func TestRouter_CreateValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	t.Run("neither uri nor manual pair", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/vault", "10.0.0.2", map[string]string{"note": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad scheme", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/vault", "10.0.0.2", map[string]string{"uri": "https://nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid manual secret", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/vault", "10.0.0.2", map[string]string{"label": "A:b", "secret": "!!"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store untouched after rejections", func(t *testing.T) {
		list := env.do(t, http.MethodGet, "/api/vault", "10.0.0.2", nil)
		assert.JSONEq(t, `[]`, list.Body.String())
	})
}

func TestRouter_GenerateCode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.addCredential(t, "Acme:bob")

	rec := env.do(t, http.MethodPost, "/api/vault/"+id+"/code", "10.0.0.3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Code             string `json:"code"`
		SecondsRemaining int    `json:"seconds_remaining"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Code, 6)
	assert.Greater(t, resp.SecondsRemaining, 0)
	assert.LessOrEqual(t, resp.SecondsRemaining, 30)

	// The secret itself never appears in the response.
	assert.NotContains(t, rec.Body.String(), testSecret)

	missing := env.do(t, http.MethodPost, "/api/vault/ffffffffffffffffffffffff/code", "10.0.0.3", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	badID := env.do(t, http.MethodPost, "/api/vault/not-hex/code", "10.0.0.3", nil)
	assert.Equal(t, http.StatusBadRequest, badID.Code)
}

func TestRouter_Preview(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/vault/preview", "10.0.0.4", map[string]string{"secret": testSecret})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seconds_remaining")

	bad := env.do(t, http.MethodPost, "/api/vault/preview", "10.0.0.4", map[string]string{"secret": "!!"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	// Nothing persisted.
	list := env.do(t, http.MethodGet, "/api/vault", "10.0.0.4", nil)
	assert.JSONEq(t, `[]`, list.Body.String())
}

func TestRouter_NoteRevealAndUpdate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.addCredential(t, "Acme:carol")

	rec := env.do(t, http.MethodGet, "/api/vault/"+id+"/note", "10.0.0.5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"note":"a note"}`, rec.Body.String())

	update := env.do(t, http.MethodPut, "/api/vault/"+id+"/note", "10.0.0.5", map[string]string{"note": "replaced"})
	assert.Equal(t, http.StatusNoContent, update.Code)

	rec = env.do(t, http.MethodGet, "/api/vault/"+id+"/note", "10.0.0.5", nil)
	assert.JSONEq(t, `{"note":"replaced"}`, rec.Body.String())

	missing := env.do(t, http.MethodPut, "/api/vault/ffffffffffffffffffffffff/note", "10.0.0.5", map[string]string{"note": "x"})
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestRouter_DeleteConfirmation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.addCredential(t, "Acme:dave")

	mismatch := env.do(t, http.MethodDelete, "/api/vault/"+id, "10.0.0.6", map[string]string{"label": "Acme:wrong"})
	assert.Equal(t, http.StatusConflict, mismatch.Code)

	list := env.do(t, http.MethodGet, "/api/vault", "10.0.0.6", nil)
	assert.Contains(t, list.Body.String(), "Acme:dave")

	ok := env.do(t, http.MethodDelete, "/api/vault/"+id, "10.0.0.6", map[string]string{"label": "Acme:dave"})
	assert.Equal(t, http.StatusNoContent, ok.Code)

	gone := env.do(t, http.MethodDelete, "/api/vault/"+id, "10.0.0.6", map[string]string{"label": "Acme:dave"})
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestRouter_ExportQR(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.addCredential(t, "Acme:eve")

	rec := env.do(t, http.MethodGet, "/api/vault/"+id+"/qr", "10.0.0.7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}))
}

func TestRouter_GateEnforcement(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	t.Run("missing password is unauthorized on every vault route", func(t *testing.T) {
		// One identity per route so the failures here never trip the lockout.
		for i, route := range []struct{ method, path string }{
			{http.MethodGet, "/api/vault"},
			{http.MethodPost, "/api/vault"},
			{http.MethodPost, "/api/vault/preview"},
			{http.MethodPost, "/api/vault/ffffffffffffffffffffffff/code"},
			{http.MethodGet, "/api/vault/ffffffffffffffffffffffff/note"},
			{http.MethodPut, "/api/vault/ffffffffffffffffffffffff/note"},
			{http.MethodGet, "/api/vault/ffffffffffffffffffffffff/qr"},
			{http.MethodDelete, "/api/vault/ffffffffffffffffffffffff"},
		} {
			r := httptest.NewRequest(route.method, route.path, strings.NewReader("{}"))
			r.RemoteAddr = fmt.Sprintf("10.0.2.%d:1234", i+1)
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, r)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
		}
	})

	t.Run("lockout after repeated failures includes retry hint", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			r := httptest.NewRequest(http.MethodGet, "/api/vault", nil)
			r.RemoteAddr = "10.0.1.2:1234"
			r.Header.Set(gate.PasswordHeader, "wrong")
			env.router.ServeHTTP(httptest.NewRecorder(), r)
		}

		// Correct password is still rejected while locked.
		r := httptest.NewRequest(http.MethodGet, "/api/vault", nil)
		r.RemoteAddr = "10.0.1.2:1234"
		r.Header.Set(gate.PasswordHeader, testPassword)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "retry_after_seconds")

		// Another identity is unaffected.
		other := env.do(t, http.MethodGet, "/api/vault", "10.0.1.3", nil)
		assert.Equal(t, http.StatusOK, other.Code)
	})
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	storage := vault.NewMemoryStorage()
	svc := vault.NewService(storage, log)
	cfg := gate.Config{Password: testPassword, MaxAttempts: 5, LockoutDuration: time.Minute}
	store := gate.NewMemoryStore(gate.WithCleanupInterval(0))
	t.Cleanup(store.Close)
	verifier, err := gate.NewVerifier(cfg)
	require.NoError(t, err)
	g := gate.New(cfg, store, verifier, log)

	t.Run("ready", func(t *testing.T) {
		router := api.NewRouter(svc, g, log, func(context.Context) error { return nil })
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("not ready when a dependency fails", func(t *testing.T) {
		router := api.NewRouter(svc, g, log, func(context.Context) error { return errors.New("down") })
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
	})
}
