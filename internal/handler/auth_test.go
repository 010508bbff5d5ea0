package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluia/eluia-api/internal/middleware"
	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/internal/service"
	"github.com/eluia/eluia-api/pkg/logger"
)

const testJWTSecret = "test-secret"

func newAuthRouter(t *testing.T) *chi.Mux {
	t.Helper()
	log := logger.NewNop()
	tenants := service.NewTenantService(log)
	h := NewAuthHandler(tenants, testJWTSecret, time.Hour, log)

	r := chi.NewRouter()
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(testJWTSecret))
		r.Get("/api/auth/me", h.Me)
	})
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginMe(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(t, r, "/api/auth/register", model.RegisterRequest{
		Email: "marie@example.com", Password: "motdepasse", Name: "Marie Dupont",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/api/auth/login", model.LoginRequest{
		Email: "marie@example.com", Password: "motdepasse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var token model.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	require.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var tenant model.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tenant))
	assert.Equal(t, "marie@example.com", tenant.Email)
	assert.Equal(t, "marie-dupont", tenant.Slug)
	// The password hash never leaves the server.
	assert.NotContains(t, rec.Body.String(), "motdepasse")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterValidation(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(t, r, "/api/auth/register", model.RegisterRequest{
		Email: "pas-un-email", Password: "motdepasse", Name: "Marie Dupont",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, r, "/api/auth/register", model.RegisterRequest{
		Email: "marie@example.com", Password: "court", Name: "Marie Dupont",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(t, r, "/api/auth/register", model.RegisterRequest{
		Email: "marie@example.com", Password: "motdepasse", Name: "Marie Dupont",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/api/auth/register", model.RegisterRequest{
		Email: "marie@example.com", Password: "motdepasse", Name: "Autre Nom",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	r := newAuthRouter(t)

	postJSON(t, r, "/api/auth/register", model.RegisterRequest{
		Email: "marie@example.com", Password: "motdepasse", Name: "Marie Dupont",
	})

	w := postJSON(t, r, "/api/auth/login", model.LoginRequest{
		Email: "marie@example.com", Password: "mauvais",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRequiresToken(t *testing.T) {
	r := newAuthRouter(t)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer pas.un.jeton")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
