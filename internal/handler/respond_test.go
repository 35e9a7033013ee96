package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tourly/tourly-api/internal/apperr"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.NotFound, http.StatusNotFound},
		{apperr.Forbidden, http.StatusForbidden},
		{apperr.Unauthorized, http.StatusUnauthorized},
		{apperr.Conflict, http.StatusConflict},
		{apperr.InvalidInput, http.StatusBadRequest},
		{apperr.InvalidState, http.StatusUnprocessableEntity},
		{apperr.RateLimited, http.StatusTooManyRequests},
		{apperr.DeliveryFailed, http.StatusBadGateway},
		{apperr.Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.kind), "kind %s", tc.kind)
	}
}
