package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okValidator(t *testing.T, wantToken string) TokenValidator {
	return func(token string) (*Claims, error) {
		assert.Equal(t, wantToken, token)
		return &Claims{UserID: "user-1", Email: "a@b.com", Role: "customer"}, nil
	}
}

func claimsEchoHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user-1", UserIDFromContext(r.Context()))
		assert.Equal(t, "customer", RoleFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_BearerHeader(t *testing.T) {
	handler := Auth(okValidator(t, "tok-123"))(claimsEchoHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_CookieFallback(t *testing.T) {
	handler := Auth(okValidator(t, "cookie-tok"))(claimsEchoHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-tok"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_HeaderTakesPrecedenceOverCookie(t *testing.T) {
	handler := Auth(okValidator(t, "header-tok"))(claimsEchoHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-tok")
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-tok"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_MissingCredentials(t *testing.T) {
	handler := Auth(func(string) (*Claims, error) {
		t.Fatal("validator should not be called")
		return nil, nil
	})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuth_MalformedHeader(t *testing.T) {
	handler := Auth(func(string) (*Claims, error) {
		t.Fatal("validator should not be called")
		return nil, nil
	})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "tok-without-scheme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	handler := Auth(func(string) (*Claims, error) {
		return nil, fmt.Errorf("expired")
	})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	validate := func(string) (*Claims, error) {
		return &Claims{UserID: "u-1", Role: "customer"}, nil
	}

	adminOnly := Auth(validate)(RequireRole("admin")(next))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	customerAllowed := Auth(validate)(RequireRole("admin", "customer")(next))
	rec = httptest.NewRecorder()
	customerAllowed.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth_ValidToken_PopulatesContext(t *testing.T) {
	handler := OptionalAuth(okValidator(t, "tok-123"))(claimsEchoHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth_NoCredentials_PassesThrough(t *testing.T) {
	handler := OptionalAuth(func(string) (*Claims, error) {
		t.Fatal("validator should not be called")
		return nil, nil
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth_InvalidToken_PassesThroughAnonymous(t *testing.T) {
	handler := OptionalAuth(func(string) (*Claims, error) {
		return nil, fmt.Errorf("expired")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, UserIDFromContext(r.Context()))
		assert.Empty(t, RoleFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContextHelpers_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, UserIDFromContext(req.Context()))
	assert.Empty(t, RoleFromContext(req.Context()))
}
