package model

import "time"

// RefreshToken models a row in the `refresh_tokens` ledger.  A token
// value is single-use: the refresh operation deletes the row in the
// same transaction that inserts its replacement, so a replayed token
// can never coexist with its successor.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// VerificationCode models a row in the `verification_tokens` table.
// At most one active code exists per user; issuing a new code deletes
// any outstanding ones first.
type VerificationCode struct {
	ID        uint64
	UserID    uint64
	Code      string
	ExpiresAt time.Time
}
