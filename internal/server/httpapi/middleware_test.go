package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/ratelimit"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthGate(t *testing.T) {
	env := newTestEnv(t, nil)
	_, id := env.signup(t, "Ann", "ann", "ann@x.io", "pw1")

	expired, _, err := env.tokens.Issue(id, "ann@x.io", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"no header", "", "Access Denied. No token provided."},
		{"garbage token", "Bearer abc.def.ghi", "Invalid Token"},
		{"expired token", "Bearer " + expired, "Invalid Token"},
		{"wrong scheme", "Basic dXNlcjpwdw==", "Invalid Token"},
		{"empty bearer", "Bearer ", "Access Denied. No token provided."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestAuthGate_UnknownUser(t *testing.T) {
	env := newTestEnv(t, nil)
	other := newTestEnv(t, nil)
	token, _ := env.signup(t, "Ann", "ann", "ann@x.io", "pw1")

	// same secret, but the user only exists in env's store
	res := other.do(t, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "User not found", res.Body["message"])
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	env := newTestEnv(t, nil)

	res := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "ok", res.Body["status"])
	assert.Len(t, res.Header.Get("X-Request-ID"), 16)
	assert.Contains(t, env.logs.String(), `"path":"/healthz"`)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get("X-Request-ID"))
}

type fakeLimiter struct {
	decision ratelimit.Decision
	err      error
	keys     []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

func TestRateLimit(t *testing.T) {
	t.Run("denied", func(t *testing.T) {
		lim := &fakeLimiter{decision: ratelimit.Decision{Allowed: false, Limit: 20, ResetAt: time.Now().Add(30 * time.Second)}}
		env := newTestEnv(t, func(d *Deps) { d.Limiter = lim })

		res := env.do(t, http.MethodPost, "/login", "", map[string]any{"email": "a@x.io", "password": "p"})
		assert.Equal(t, http.StatusTooManyRequests, res.Status)
		assert.Equal(t, "20", res.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", res.Header.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, res.Header.Get("Retry-After"))
		require.Len(t, lim.keys, 1)
		assert.Equal(t, "login:192.0.2.1", lim.keys[0])
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		lim := &fakeLimiter{
			decision: ratelimit.Decision{Allowed: true, Limit: 20, Remaining: 20, ResetAt: time.Now().Add(time.Minute)},
			err:      errors.New("redis down"),
		}
		env := newTestEnv(t, func(d *Deps) { d.Limiter = lim })

		res := env.do(t, http.MethodPost, "/signup", "", map[string]any{
			"name": "Ann", "username": "ann", "email": "ann@x.io", "password": "pw1",
		})
		assert.Equal(t, http.StatusCreated, res.Status)
		assert.Contains(t, env.logs.String(), "rate limiter unavailable")
	})

	t.Run("only auth routes are limited", func(t *testing.T) {
		lim := &fakeLimiter{decision: ratelimit.Decision{Allowed: false, Limit: 1}}
		env := newTestEnv(t, func(d *Deps) { d.Limiter = lim })

		res := env.do(t, http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Empty(t, lim.keys)
	})
}

type brokenLedger struct{ Ledger }

func (brokenLedger) ListEntries(context.Context, models.Kind, string) ([]*models.Entry, error) {
	return nil, errors.New("db error: connection refused")
}

func TestStoreErrorIsOpaque(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Ledger = brokenLedger{d.Ledger} })
	token, _ := env.signup(t, "Ann", "ann", "ann@x.io", "pw1")

	res := env.do(t, http.MethodGet, "/incomes", token, nil)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, "Internal server error", res.Body["message"])
	assert.NotContains(t, res.Raw, "connection refused")
	assert.Contains(t, env.logs.String(), "connection refused")
}

func TestDecodeBody(t *testing.T) {
	env := newTestEnv(t, nil)

	res := env.do(t, http.MethodPost, "/signup", "", `{"name":"Ann","username":"ann","email":"a@x.io","password":"p","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, []string{"body"}, fieldsOf(t, res))

	res = env.do(t, http.MethodPost, "/signup", "", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = env.do(t, http.MethodPost, "/signup", "", `{"name":42}`)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, []string{"name"}, fieldsOf(t, res))

	res = env.do(t, http.MethodPost, "/signup", "", "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, []string{"name", "username", "email", "password"}, fieldsOf(t, res))
	assert.Zero(t, env.store.UserCount())
}

type fakeExporter struct {
	year *int
	err  error
}

func (f *fakeExporter) Export(_ context.Context, kind models.Kind, ownerID string, year *int) (*services.ExportResult, error) {
	f.year = year
	if f.err != nil {
		return nil, f.err
	}
	return &services.ExportResult{Key: "exports/" + ownerID + "/" + kind.Plural() + "/x.csv", URL: "http://s3/x.csv", Rows: 2}, nil
}

func TestExport(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, nil)
		token, _ := env.signup(t, "Ann", "ann", "ann@x.io", "pw1")

		res := env.do(t, http.MethodGet, "/export/incomes", token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, res.Status)
		assert.Equal(t, "Export is not configured", res.Body["message"])
	})

	t.Run("ok", func(t *testing.T) {
		exp := &fakeExporter{}
		env := newTestEnv(t, func(d *Deps) { d.Exporter = exp })
		token, id := env.signup(t, "Ann", "ann", "ann@x.io", "pw1")

		res := env.do(t, http.MethodGet, "/export/expenses?year=2024", token, nil)
		require.Equal(t, http.StatusOK, res.Status, res.Raw)
		assert.Equal(t, "exports/"+id+"/expenses/x.csv", res.Body["key"])
		assert.Equal(t, "http://s3/x.csv", res.Body["url"])
		require.NotNil(t, exp.year)
		assert.Equal(t, 2024, *exp.year)
	})

	t.Run("bad kind", func(t *testing.T) {
		env := newTestEnv(t, func(d *Deps) { d.Exporter = &fakeExporter{} })
		token, _ := env.signup(t, "Ann", "ann", "ann@x.io", "pw1")

		res := env.do(t, http.MethodGet, "/export/transfers", token, nil)
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, []string{"kind"}, fieldsOf(t, res))
	})
}

func TestDeleteMalformedID(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.signup(t, "Ann", "ann", "ann@x.io", "pw1")

	res := env.do(t, http.MethodDelete, "/expenses/not-an-id", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, []string{"id"}, fieldsOf(t, res))
}
