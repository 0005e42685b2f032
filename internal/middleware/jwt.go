// Package middleware provides the reusable HTTP middleware of the
// service: bearer-token authentication, role enforcement and redis-backed
// rate limiting.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and role claims into the request
// context. Handlers downstream read the caller identity via
// c.Get("user_id") and c.Get("role").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set("user_id", stringClaim(claims, "sub"))
			c.Set("role", stringClaim(claims, "role"))
			return next(c)
		}
	}
}

// stringClaim normalizes a claim to a string; numeric subjects from other
// issuers are formatted rather than dropped.
func stringClaim(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// UserID extracts the authenticated user identifier set by JWTAuth.
func UserID(c echo.Context) (string, bool) {
	s, ok := c.Get("user_id").(string)
	return s, ok && s != ""
}

// Role extracts the authenticated role set by JWTAuth; empty when absent.
func Role(c echo.Context) string {
	s, _ := c.Get("role").(string)
	return s
}
