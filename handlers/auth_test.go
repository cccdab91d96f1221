package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup("alice")
	assert.Equal(t, "alice", ts.me(token).Username)

	var tok TokenOut
	status := ts.doJSON(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "alice", "password": "secret123"}, &tok)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", ts.me(tok.AccessToken).Username)
}

func TestLoginAcceptsForm(t *testing.T) {
	ts := newTestServer(t)
	ts.signup("alice")

	form := url.Values{"username": {"alice"}, "password": {"secret123"}}
	resp, err := ts.srv.Client().Post(ts.srv.URL+"/api/auth/login",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginFailures(t *testing.T) {
	ts := newTestServer(t)
	ts.signup("alice")

	for name, body := range map[string]map[string]string{
		"wrong password": {"username": "alice", "password": "nope-nope"},
		"unknown user":   {"username": "mallory", "password": "secret123"},
	} {
		t.Run(name, func(t *testing.T) {
			status, raw := ts.do(http.MethodPost, "/api/auth/login", "", body)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "Invalid username or password", decodeError(t, raw).Error)
		})
	}
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.signup("alice")

	tests := []struct {
		name      string
		body      any
		wantError string
		wantField string
	}{
		{"duplicate username", map[string]string{"username": "alice", "password": "secret123"}, "Username already exists", ""},
		{"short username", map[string]string{"username": "al", "password": "secret123"}, "validation failed", "username"},
		{"long username", map[string]string{"username": strings.Repeat("a", 51), "password": "secret123"}, "validation failed", "username"},
		{"short password", map[string]string{"username": "bob", "password": "12345"}, "validation failed", "password"},
		{"missing password", map[string]string{"username": "bob"}, "validation failed", "password"},
		{"password over 72 bytes", map[string]string{"username": "carol", "password": strings.Repeat("é", 40)}, "validation failed", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := ts.do(http.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			e := decodeError(t, raw)
			assert.Equal(t, tt.wantError, e.Error)
			if tt.wantField != "" {
				assert.Contains(t, e.Fields, tt.wantField)
			}
		})
	}

	status, _ := ts.do(http.MethodPost, "/api/auth/signup", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUsernamesAreCaseSensitive(t *testing.T) {
	ts := newTestServer(t)
	ts.signup("alice")
	ts.signup("Alice")
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup("alice")

	var body messageBody
	require.Equal(t, http.StatusOK, ts.doJSON(http.MethodPost, "/api/auth/logout", token, nil, &body))
	assert.Equal(t, "Logged out", body.Message)

	// Logout is a client-side no-op, so a missing or stale token is fine.
	status, _ := ts.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = ts.do(http.MethodPost, "/api/auth/logout", "expired-or-garbage", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSignupAcceptsMultibytePasswordWithinLimit(t *testing.T) {
	ts := newTestServer(t)
	pw := strings.Repeat("é", 36)

	status, raw := ts.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"username": "carol", "password": pw})
	require.Equal(t, http.StatusOK, status, string(raw))

	var tok TokenOut
	require.Equal(t, http.StatusOK, ts.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "carol", "password": pw}, &tok))
	assert.NotEmpty(t, tok.AccessToken)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	ts := newTestServer(t)
	ts.signup("alice")

	sign := func(secret string, claims jwt.Claims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	tests := map[string]string{
		"no token":      "",
		"garbage":       "not-a-jwt",
		"wrong secret":  sign("other-secret", valid, jwt.SigningMethodHS256),
		"wrong alg":     sign("test-secret", valid, jwt.SigningMethodHS512),
		"expired":       sign("test-secret", jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}, jwt.SigningMethodHS256),
		"no expiry":     sign("test-secret", jwt.RegisteredClaims{Subject: "alice"}, jwt.SigningMethodHS256),
		"vanished user": sign("test-secret", jwt.RegisteredClaims{Subject: "ghost", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}, jwt.SigningMethodHS256),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			status, _ := ts.do(http.MethodGet, "/api/books", token, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}

	status, _ := ts.do(http.MethodGet, "/api/books", sign("test-secret", valid, jwt.SigningMethodHS256), nil)
	assert.Equal(t, http.StatusOK, status)
}
