// Package auth issues and verifies the tenant JWTs that scope every WhatsApp route.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	contextKey     = "user"
	claimUserID    = "user_id"
	claimCompanyID = "company_id"
)

// TokenLookup accepts the Authorization header and, for EventSource clients, ?token=.
const TokenLookup = "header:Authorization:Bearer ,query:token"

// JWTMiddleware validates HS256 bearer tokens; skipper exempts public routes.
func JWTMiddleware(secret string, skipper func(c echo.Context) bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    contextKey,
		TokenLookup:   TokenLookup,
		Skipper:       skipper,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	})
}

// GenerateToken signs a token carrying the tenant user and its company.
func GenerateToken(userID, companyID, secret string, expiresIn time.Duration) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, errors.New("jwt secret is required")
	}
	if expiresIn <= 0 {
		return "", time.Time{}, errors.New("jwt expiry must be positive")
	}
	now := time.Now()
	expiresAt := now.Add(expiresIn)
	claims := jwt.MapClaims{
		"sub":       userID,
		claimUserID: userID,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}
	if companyID = strings.TrimSpace(companyID); companyID != "" {
		claims[claimCompanyID] = companyID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// UserIDFromContext returns the tenant id of the authenticated caller.
func UserIDFromContext(c echo.Context) (string, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return "", err
	}
	if id := stringClaim(claims, claimUserID); id != "" {
		return id, nil
	}
	if id := stringClaim(claims, "sub"); id != "" {
		return id, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "user id missing from token")
}

// CompanyIDFromContext returns the company whose contacts the caller may message.
func CompanyIDFromContext(c echo.Context) (string, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return "", err
	}
	if id := stringClaim(claims, claimCompanyID); id != "" {
		return id, nil
	}
	return "", echo.NewHTTPError(http.StatusForbidden, "company id missing from token")
}

func claimsFromContext(c echo.Context) (jwt.MapClaims, error) {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}
