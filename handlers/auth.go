package handlers

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/bookmemory/middleware"
	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/store"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	DB        store.Store
	JWTSecret string
	TokenTTL  time.Duration
	Now       Clock
}

const maxPasswordBytes = 72

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	// bcrypt only looks at the first 72 bytes and refuses anything longer.
	if len(req.Password) > maxPasswordBytes {
		writeValidation(w, map[string]string{"password": "must not exceed 72 bytes"})
		return
	}

	if _, err := h.DB.UserByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		serverError(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(w, r, err)
		return
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		CreatedAt:    h.Now.now(),
	}
	if err := h.DB.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		serverError(w, r, err)
		return
	}
	h.respondToken(w, r, user.Username)
}

// Login accepts either a JSON body or an OAuth2 password-style form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}

	user, err := h.DB.UserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		serverError(w, r, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	h.respondToken(w, r, user.Username)
}

// Logout is stateless; clients drop the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageBody{Message: "Logged out"})
}

func (h *AuthHandler) respondToken(w http.ResponseWriter, r *http.Request, username string) {
	token, err := h.createToken(username)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenOut{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) createToken(username string) (string, error) {
	now := h.Now.now()
	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	claims := &middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
