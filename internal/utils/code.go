package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Bounds for email verification codes: uniform six-digit numbers.
const (
	verificationCodeMin = 100000
	verificationCodeMax = 999999
)

// NewVerificationCode returns a uniformly random 6-digit numeric code
// drawn from a cryptographically secure source.
func NewVerificationCode() (string, error) {
	span := big.NewInt(verificationCodeMax - verificationCodeMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+verificationCodeMin), nil
}
