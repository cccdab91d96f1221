package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kevinaaaquil/bookmemory/logging"
	"github.com/kevinaaaquil/bookmemory/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeAndHealth(t *testing.T) {
	ts := newTestServer(t)

	var msg messageBody
	require.Equal(t, http.StatusOK, ts.doJSON(http.MethodGet, "/", "", nil, &msg))
	assert.Equal(t, "welcome to book memory.", msg.Message)

	var health map[string]string
	require.Equal(t, http.StatusOK, ts.doJSON(http.MethodGet, "/health", "", nil, &health))
	assert.Equal(t, "ok", health["status"])
}

func TestHealthReportsClosedStore(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.db.Close(context.Background()))

	status, _ := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.signup("alice")

	status, raw := ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `bookmemory_http_requests_total{method="POST",route="/api/auth/signup",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.srv.URL+"/api/books", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)

	req.Header.Set("Origin", "http://evil.example")
	resp, err = ts.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAuthRateLimit(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "limit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(context.Background()) })
	srv := httptest.NewServer(NewRouter(Deps{
		DB:             db,
		JWTSecret:      "test-secret",
		AuthRateLimit:  2,
		AuthRateWindow: time.Hour,
		Logger:         logging.Nop(),
	}))
	t.Cleanup(srv.Close)

	login := func() int {
		resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
			strings.NewReader(`{"username":"nobody","password":"whatever"}`))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusUnauthorized, login())
	assert.Equal(t, http.StatusUnauthorized, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}
