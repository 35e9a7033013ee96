package middleware // reusable HTTP middleware for protected routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tourly/tourly-api/internal/utils"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxEmail = "email"
	CtxRole  = "role"
)

// JWTAuth validates a Bearer access token and stores the subject email
// and role claims in the request context. Refresh tokens are rejected
// here: they are only accepted by the refresh endpoint, which checks
// them against the ledger.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.VerifyToken(secret, raw)
			if err != nil || claims.Subject == "" || claims.IsRefresh() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxEmail, claims.Subject)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
