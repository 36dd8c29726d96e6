package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dtran/focus-rival/internal/api/middleware"
	"github.com/dtran/focus-rival/internal/config"
	"github.com/dtran/focus-rival/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-key-for-testing-only"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestAuth_RejectionsAreLogged(t *testing.T) {
	authService := service.NewAuthService(nil, nil, &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 1,
	})

	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name    string
		header  string
		wantLog string
	}{
		{"missing header", "", "missing authorization header"},
		{"not bearer", "Basic dXNlcjpwYXNz", "invalid authorization header format"},
		{"garbage token", "Bearer not-a-jwt", "token validation failed"},
		{"missing sub claim", "Bearer " + signToken(t, jwt.MapClaims{"exp": exp}), "missing sub claim"},
		{"malformed user id", "Bearer " + signToken(t, jwt.MapClaims{"sub": "not-a-uuid", "exp": exp}), "malformed user id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			handler := middleware.Auth(authService, zerolog.New(&logs))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("handler must not run for rejected requests")
				}),
			)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/focus/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, logs.String(), tt.wantLog)
			assert.Contains(t, logs.String(), "/api/v1/focus/status")
		})
	}
}

func TestAuth_ValidTokenPassesThrough(t *testing.T) {
	authService := service.NewAuthService(nil, nil, &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 1,
	})
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	var logs bytes.Buffer
	handler := middleware.Auth(authService, zerolog.New(&logs))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := middleware.GetUserID(r.Context())
			assert.True(t, ok)
			assert.Equal(t, userID, got)
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/focus/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, logs.String())
}
