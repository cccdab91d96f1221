package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type users map[string]*models.User

func (u users) UserByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := u[username]; ok {
		return user, nil
	}
	if username == "broken" {
		return nil, errors.New("db down")
	}
	return nil, store.ErrNotFound
}

func sign(t *testing.T, method jwt.SigningMethod, key string, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func valid(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestParseToken(t *testing.T) {
	claims, err := ParseToken(sign(t, jwt.SigningMethodHS256, secret, valid("alice")), secret)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	expired := valid("alice")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := valid("alice")
	noExpiry.ExpiresAt = nil

	bad := map[string]string{
		"wrong secret": sign(t, jwt.SigningMethodHS256, "other", valid("alice")),
		"wrong alg":    sign(t, jwt.SigningMethodHS384, secret, valid("alice")),
		"expired":      sign(t, jwt.SigningMethodHS256, secret, expired),
		"no expiry":    sign(t, jwt.SigningMethodHS256, secret, noExpiry),
		"no subject":   sign(t, jwt.SigningMethodHS256, secret, valid("")),
		"garbage":      "not.a.token",
	}
	for name, tok := range bad {
		_, err := ParseToken(tok, secret)
		assert.Error(t, err, name)
	}
}

func TestAuth(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice"}
	h := Auth(secret, users{"alice": alice})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		require.True(t, ok)
		assert.Same(t, alice, u)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"ok", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, valid("alice")), http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + sign(t, jwt.SigningMethodHS256, secret, valid("alice")), http.StatusNoContent, ""},
		{"missing", "", http.StatusUnauthorized, `{"error":"Not authenticated"}`},
		{"basic", "Basic YWxpY2U6c2VjcmV0", http.StatusUnauthorized, `{"error":"Invalid authorization header"}`},
		{"no token", "Bearer", http.StatusUnauthorized, `{"error":"Invalid authorization header"}`},
		{"bad token", "Bearer nope", http.StatusUnauthorized, `{"error":"Could not validate credentials"}`},
		{"unknown user", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, valid("ghost")), http.StatusUnauthorized, `{"error":"Could not validate credentials"}`},
		{"lookup error", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, valid("broken")), http.StatusUnauthorized, `{"error":"Could not validate credentials"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserFromContext(WithUser(context.Background(), nil))
	assert.False(t, ok)

	u := &models.User{ID: 7, Username: "bob"}
	got, ok := UserFromContext(WithUser(context.Background(), u))
	require.True(t, ok)
	assert.Equal(t, u, got)
}
