// Package handler exposes the REST endpoints. Handlers bind DTOs,
// delegate to the service layer and map error kinds to status codes;
// no business rule lives here.
package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/middleware"
)

// dbTimeout bounds every request-scoped database interaction.
const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// callerEmail returns the authenticated email claim set by JWTAuth.
func callerEmail(c echo.Context) string {
	v, _ := c.Get(middleware.CtxEmail).(string)
	return v
}

// fail maps a service error to an HTTP response. Typed errors carry
// their message across; anything else is logged and surfaced as an
// opaque 500 so internal detail never leaks.
func fail(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		log.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(statusFor(kind), echo.Map{"error": apperr.MessageOf(err)})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.InvalidState:
		return http.StatusUnprocessableEntity
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	case apperr.DeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
