package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/Likith-Yadav/PayCoreX/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

func runMiddleware(t *testing.T, path, authorization string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	mw := JWTMiddleware(JWTConfig{
		Secret:    testSecret,
		Logger:    zap.NewNop(),
		SkipPaths: []string{"/health", "/gateway/callback"},
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, mw(next)(c))
	return rec
}

func ok(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func TestJWTMiddleware_MerchantClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"merchant_id": "m_123",
		"sub":         "user-1",
		"email":       "ops@shop.test",
		"role":        "admin",
	}, testSecret)

	rec := runMiddleware(t, "/v1/payments", "Bearer "+token, func(c echo.Context) error {
		merchant, err := GetMerchantFromContext(c)
		require.NoError(t, err)
		assert.Equal(t, "m_123", merchant.ID)
		assert.Equal(t, "ops@shop.test", merchant.Email)
		assert.Equal(t, "admin", merchant.Role)
		assert.Equal(t, "m_123", c.Get(MerchantIDKey))
		return ok(c)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_FallsBackToSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "m_sub"}, testSecret)

	rec := runMiddleware(t, "/v1/payments", "Bearer "+token, func(c echo.Context) error {
		id, err := RequireMerchant(c)
		require.NoError(t, err)
		assert.Equal(t, "m_sub", id)
		return ok(c)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		code          string
	}{
		{
			name: "missing header",
			code: "MISSING_AUTH_HEADER",
		},
		{
			name:          "not a bearer token",
			authorization: "Token abc",
			code:          "INVALID_AUTH_FORMAT",
		},
		{
			name:          "wrong secret",
			authorization: "Bearer " + signToken(t, jwt.MapClaims{"merchant_id": "m_1"}, "other-secret"),
			code:          "INVALID_TOKEN",
		},
		{
			name: "expired",
			authorization: "Bearer " + signToken(t, jwt.MapClaims{
				"merchant_id": "m_1",
				"exp":         time.Now().Add(-time.Minute).Unix(),
			}, testSecret),
			code: "INVALID_TOKEN",
		},
		{
			name:          "no merchant identity",
			authorization: "Bearer " + signToken(t, jwt.MapClaims{"email": "a@b.c"}, testSecret),
			code:          "MISSING_MERCHANT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			rec := runMiddleware(t, "/v1/payments", tt.authorization, func(c echo.Context) error {
				called = true
				return ok(c)
			})

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	rec := runMiddleware(t, "/gateway/callback", "", ok)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireMerchant_Unauthenticated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	id, err := RequireMerchant(c)
	assert.Empty(t, id)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthenticated))

	c.SetRequest(c.Request().WithContext(WithMerchant(c.Request().Context(), "m_ctx")))
	merchant, err := GetMerchantFromContext(c)
	require.NoError(t, err)
	assert.Equal(t, "m_ctx", merchant.ID)
}
