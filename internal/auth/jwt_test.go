package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestSecret(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-for-unit-tests")
	require.NoError(t, Init())
}

func TestInitRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Error(t, Init())
}

func TestTokenRoundTrip(t *testing.T) {
	initTestSecret(t)

	token, err := GenerateToken("user-1", "admin@example.com", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	initTestSecret(t)

	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}

// A server that came up without JWT_SECRET must reject every admin request.
// HMAC verifies fine against an empty key, so an uninitialized secret cannot
// be allowed to reach signature verification at all.
func TestMiddlewareFailsClosedWithoutSecret(t *testing.T) {
	jwtSecret = nil
	t.Cleanup(func() { jwtSecret = nil })

	var reached bool
	handler := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	// Token signed with the empty key, the exact value a verifier with a
	// nil secret would accept
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "attacker",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/sheets", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached, "admin handler must not run without a configured secret")

	// Issuing tokens is equally off without a secret
	_, err = GenerateToken("user-1", "admin@example.com", "admin")
	assert.Error(t, err)
}

func TestMiddlewarePublicPathsPassThrough(t *testing.T) {
	initTestSecret(t)

	var reached bool
	handler := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	for _, path := range []string{"/api/sheets/analyze", "/api/reference", "/health", "/api/admin/login"} {
		reached = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.True(t, reached, "expected %s to bypass auth", path)
	}
}

func TestMiddlewareProtectsAdminRoutes(t *testing.T) {
	initTestSecret(t)

	handler := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := GetClaimsFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	}))

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/sheets", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/sheets", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken("user-1", "admin@example.com", "admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/sheets", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
