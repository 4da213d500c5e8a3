package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestGenerateTokenClaims(t *testing.T) {
	t.Parallel()

	tok, expiresAt, err := GenerateToken("tenant-1", "company-9", testSecret, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	parsed, err := jwt.Parse(tok, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "tenant-1", claims["sub"])
	assert.Equal(t, "tenant-1", claims["user_id"])
	assert.Equal(t, "company-9", claims["company_id"])
}

func TestGenerateTokenValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		user   string
		secret string
		ttl    time.Duration
	}{
		{"empty user", " ", testSecret, time.Hour},
		{"empty secret", "u", "", time.Hour},
		{"zero ttl", "u", testSecret, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := GenerateToken(tt.user, "", tt.secret, tt.ttl)
			assert.Error(t, err)
		})
	}
}

func TestMiddlewareRoundTrip(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(JWTMiddleware(testSecret, func(c echo.Context) bool { return c.Request().URL.Path == "/ping" }))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/whoami", func(c echo.Context) error {
		userID, err := UserIDFromContext(c)
		if err != nil {
			return err
		}
		companyID, err := CompanyIDFromContext(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, userID+"/"+companyID)
	})

	tok, _, err := GenerateToken("tenant-1", "company-9", testSecret, time.Hour)
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tenant-1/company-9", rec.Body.String())
	})

	t.Run("query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami?token="+tok, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _, err := GenerateToken("tenant-1", "company-9", "other-secret", time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+other)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("skipped route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCompanyIDMissing(t *testing.T) {
	t.Parallel()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": "tenant-1"}})

	id, err := UserIDFromContext(c)
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", id)

	_, err = CompanyIDFromContext(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
}
