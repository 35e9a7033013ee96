// Package repository implements persistence over database/sql for the
// tour marketplace. Sentinel errors defined here let the service layer
// distinguish failure scenarios without inspecting driver errors;
// callers translate them into the typed errors of internal/apperr.
package repository

import "errors"

// ErrEmailExists is returned when a user insert violates the unique
// email constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate is returned when an insert violates any other unique
// constraint (refresh token value, verification code, review per
// booking, follow pair).
var ErrDuplicate = errors.New("duplicate row")

// ErrTokenNotFound is returned when a refresh token is absent from the
// ledger: never issued, already rotated, or revoked.
var ErrTokenNotFound = errors.New("refresh token not found")
