package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medical-messenger/config"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/service"
	"medical-messenger/internal/testutil"
	"medical-messenger/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGate() *service.AccessGate {
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "middleware-test-secret-32-characters",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
	})
	return service.NewAccessGate(jwtService, testutil.NewTokenStore(), testutil.NewLogger())
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(identity.Role))
}

func TestAuthenticate(t *testing.T) {
	gate := newGate()
	pair, err := gate.IssueTokens(context.Background(), uuid.New(), "p@example.com", entity.RolePatient)
	require.NoError(t, err)

	handler := NewAuthMiddleware(gate, testutil.NewLogger()).Authenticate(http.HandlerFunc(echoIdentity))

	cases := map[string]struct {
		header string
		status int
	}{
		"missing":       {"", http.StatusUnauthorized},
		"wrong scheme":  {"Basic " + pair.AccessToken, http.StatusUnauthorized},
		"extra parts":   {"Bearer a b", http.StatusUnauthorized},
		"refresh token": {"Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		"valid":         {"Bearer " + pair.AccessToken, http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, entity.RolePatient, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(echoIdentity))

	serve := func(identity *entity.Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if identity != nil {
			req = req.WithContext(context.WithValue(req.Context(), IdentityKey, *identity))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&entity.Identity{Role: entity.RoleDoctor}))
	assert.Equal(t, http.StatusOK, serve(&entity.Identity{Role: entity.RoleAdmin}))
}

func TestCORS(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://app.example.com"}).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	wildcard := NewCORSMiddleware([]string{"*"}).Handle(http.NotFoundHandler())
	req = httptest.NewRequest(http.MethodOptions, "/anything", nil)
	req.Header.Set("Origin", "https://other.example.com")
	rec = httptest.NewRecorder()
	wildcard.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://other.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	handler := NewLoggingMiddleware(log).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, isFlusher := w.(http.Flusher)
		assert.True(t, isFlusher)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, buf.String(), `"status":503`)
	assert.Contains(t, buf.String(), `"level":"warning"`)
	assert.Contains(t, buf.String(), `"path":"/api/v1/health"`)
}
