package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/kevinaaaquil/bookmemory/logging"
	"github.com/kevinaaaquil/bookmemory/middleware"
	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/service"
	"github.com/kevinaaaquil/bookmemory/store/sqlite"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	db     *sqlite.Store
	covers *memCovers
	lookup *fakeLookup
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(context.Background()) })

	ts := &testServer{t: t, db: db, covers: newMemCovers(), lookup: &fakeLookup{}}
	ts.srv = httptest.NewServer(NewRouter(Deps{
		DB:             db,
		JWTSecret:      "test-secret",
		Covers:         ts.covers,
		Metadata:       ts.lookup,
		MaxUploadBytes: 1 << 20,
		CORSOrigins:    []string{"http://localhost:5173"},
		AuthRateLimit:  1000,
		Logger:         logging.Nop(),
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

// do sends a request with an optional JSON body and bearer token and returns
// the status and raw response body.
func (ts *testServer) do(method, path, token string, body any) (int, []byte) {
	ts.t.Helper()
	var rdr io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rdr = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(ts.t, err)
			rdr = bytes.NewReader(b)
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rdr)
	require.NoError(ts.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp.StatusCode, out
}

// doJSON is do plus decoding the response into dst.
func (ts *testServer) doJSON(method, path, token string, body, dst any) int {
	ts.t.Helper()
	status, raw := ts.do(method, path, token, body)
	if dst != nil && len(raw) > 0 {
		require.NoError(ts.t, json.Unmarshal(raw, dst), string(raw))
	}
	return status
}

// signup registers username with a fixed password and returns the token.
func (ts *testServer) signup(username string) string {
	ts.t.Helper()
	var tok TokenOut
	status := ts.doJSON(http.MethodPost, "/api/auth/signup", "",
		map[string]string{"username": username, "password": "secret123"}, &tok)
	require.Equal(ts.t, http.StatusOK, status)
	require.Equal(ts.t, "bearer", tok.TokenType)
	return tok.AccessToken
}

func (ts *testServer) me(token string) UserOut {
	ts.t.Helper()
	var u UserOut
	require.Equal(ts.t, http.StatusOK, ts.doJSON(http.MethodGet, "/api/users/me", token, nil, &u))
	return u
}

// newRequestAs builds a request for calling a handler directly, with user
// already authenticated and one chi URL parameter set.
func newRequestAs(t *testing.T, method, target string, body io.Reader, user *models.User, param string, value int64) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, strconv.FormatInt(value, 10))
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithUser(ctx, user))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func decodeError(t *testing.T, raw []byte) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(raw, &e), string(raw))
	return e
}

type memCovers struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	deleteErr error
}

func newMemCovers() *memCovers {
	return &memCovers{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memCovers) Upload(_ context.Context, key string, body io.Reader, contentType string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memCovers) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *memCovers) GetObject(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, "", io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(b)), m.types[key], nil
}

func (m *memCovers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeLookup struct {
	meta *service.BookMetadata
	err  error
}

func (f *fakeLookup) LookupISBN(_ context.Context, isbn string) (*service.BookMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}
