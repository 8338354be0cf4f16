package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-for-hmac"

func signedToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func okHandler(called *bool, gotUserID *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*gotUserID = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())

	token := signedToken(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "user@example.com",
	})

	var called bool
	var userID string
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called, &userID))(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, "user-1", userID)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())

	var called bool
	var userID string
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called, &userID))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestRequireAuth_NotBearer(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())

	var called bool
	var userID string
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called, &userID))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())

	token := signedToken(t, "a-different-secret", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	var called bool
	var userID string
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called, &userID))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())

	token := signedToken(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	var called bool
	var userID string
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called, &userID))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_MissingSubject(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())

	token := signedToken(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	var called bool
	var userID string
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called, &userID))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_VerificationDisabled(t *testing.T) {
	m := NewMiddleware("", false, zap.NewNop())

	// Signed with a secret nobody knows; accepted anyway without verification.
	token := signedToken(t, "whatever", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2"},
	})

	var called bool
	var userID string
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called, &userID))(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, "user-2", userID)
}

func TestGetUserIDFromContext_NoClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetUserIDFromContext(req.Context()))

	_, err := RequireUserIDFromContext(req.Context())
	require.Error(t, err)
}
