package utils // helpers for issuing and verifying signed tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names embedded in issued tokens.
const (
	ClaimRole        = "role"
	ClaimTokenType   = "tokenType"
	TokenTypeRefresh = "refresh"
)

// SignedToken pairs a serialized JWT with its expiry so callers can
// persist or return both without re-parsing the token.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// TokenClaims is what verification yields: the subject (the user's
// email) plus the role and token-type claims, if present.
type TokenClaims struct {
	Subject   string
	Role      string
	TokenType string
}

// NewAccessToken signs an HS256 access token for a user. Claims: sub
// (email), role, exp and iat. Access tokens are short-lived; the TTL
// comes from configuration (15 minutes by default).
func NewAccessToken(secret, email, role string, ttlMin int) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":     email,
		ClaimRole: role,
		"exp":     exp.Unix(),
		"iat":     now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken signs a long-lived HS256 token marked with
// tokenType=refresh. The token value itself is what gets persisted in
// the refresh-token ledger; verification alone is not enough to accept
// it, the ledger row must still exist.
func NewRefreshToken(secret, email string, ttlDays int) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":          email,
		ClaimTokenType: TokenTypeRefresh,
		"exp":          exp.Unix(),
		"iat":          now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyToken checks signature and expiry and returns the embedded
// claims. Expired, malformed and badly signed tokens all fail with the
// same error shape; callers must not distinguish beyond
// "unauthenticated".
func VerifyToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = jwt.ErrTokenUnverifiable
		}
		return TokenClaims{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, jwt.ErrTokenInvalidClaims
	}
	var out TokenClaims
	if sub, ok := claims["sub"].(string); ok {
		out.Subject = sub
	}
	if role, ok := claims[ClaimRole].(string); ok {
		out.Role = role
	}
	if tt, ok := claims[ClaimTokenType].(string); ok {
		out.TokenType = tt
	}
	return out, nil
}

// IsRefresh reports whether verified claims carry the refresh marker.
func (c TokenClaims) IsRefresh() bool { return c.TokenType == TokenTypeRefresh }
