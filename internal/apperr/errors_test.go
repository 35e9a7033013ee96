package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(New(NotFound, "tour not found")))
	assert.Equal(t, Conflict, KindOf(fmt.Errorf("outer: %w", New(Conflict, "duplicate"))))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "tour not found", MessageOf(New(NotFound, "tour not found")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("sql: connection refused")))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("smtp: timeout")
	err := Wrap(DeliveryFailed, "could not deliver verification code", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, DeliveryFailed, KindOf(err))
	assert.Contains(t, err.Error(), "delivery_failed")
	assert.Contains(t, err.Error(), "smtp: timeout")
}
