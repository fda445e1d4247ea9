package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
	"github.com/dmitrijs2005/fintrack/internal/server/config"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/memory"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	tokens *auth.TokenManager
	logs   *bytes.Buffer
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost

	store := memory.NewStore()
	tokens := auth.NewTokenManager(testSecret)
	logs := &bytes.Buffer{}
	logger := logging.NewJSON(logs, "debug")

	d := Deps{
		Accounts: services.NewAccountService(nil, store, store, auth.NewHasher(cfg.BcryptCost), tokens, cfg),
		Ledger:   services.NewLedgerService(nil, store, nil, logger),
		Exporter: services.NewExportService(nil, store, cfg),
		Tokens:   tokens,
		Logger:   logger,
	}
	if mutate != nil {
		mutate(&d)
	}

	return &testEnv{router: NewRouter(d), store: store, tokens: tokens, logs: logs}
}

type result struct {
	Status int
	Header http.Header
	Body   map[string]any
	Raw    string
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) result {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	res := result{Status: w.Code, Header: w.Header(), Raw: w.Body.String()}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.Body), w.Body.String())
	}
	return res
}

func (e *testEnv) signup(t *testing.T, name, username, email, password string) (token, id string) {
	t.Helper()
	res := e.do(t, http.MethodPost, "/signup", "", map[string]any{
		"name": name, "username": username, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, res.Status, res.Raw)
	user := res.Body["user"].(map[string]any)
	return res.Body["token"].(string), user["id"].(string)
}

func fieldsOf(t *testing.T, res result) []string {
	t.Helper()
	raw, ok := res.Body["errors"].([]any)
	require.True(t, ok, res.Raw)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		out = append(out, f.(map[string]any)["field"].(string))
	}
	return out
}
