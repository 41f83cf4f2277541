package auth

import (
	"errors"
	"time"
)

var (
	ErrMalformed        = errors.New("malformed token")
	ErrExpired          = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claim names shared by every token kind on the wire
const (
	ClaimSubject  = "sub"
	ClaimPassword = "password"
	ClaimIssuedAt = "iat"
	ClaimExpiry   = "exp"
)

// Claims is the flattened claim set carried by a token
type Claims map[string]any

// Subject returns the sub claim, or false if it is absent or not a non-empty string
func (c Claims) Subject() (string, bool) {
	return c.stringClaim(ClaimSubject)
}

// Password returns the embedded password hash claim
func (c Claims) Password() (string, bool) {
	return c.stringClaim(ClaimPassword)
}

func (c Claims) stringClaim(name string) (string, bool) {
	v, ok := c[name].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Codec signs and verifies expiring tokens. Decode fails with ErrMalformed,
// ErrExpired or ErrInvalidSignature.
// Implementations include JWTCodec (HS256) and PasetoCodec (PASETO v4.local).
type Codec interface {
	Encode(claims Claims, ttl time.Duration) (string, error)
	Decode(token string) (Claims, error)
}

// NewCodec builds the codec selected by format ("jwt" or "paseto")
func NewCodec(format string, secret []byte) (Codec, error) {
	switch format {
	case "", "jwt":
		return NewJWTCodec(secret)
	case "paseto":
		return NewPasetoCodec(secret)
	default:
		return nil, errors.New("unknown token format: " + format)
	}
}

// expiresAt is now+ttl rounded up to a whole second, the precision both wire
// formats keep, so a token never expires before its ttl has elapsed
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if whole := exp.Truncate(time.Second); whole.Before(exp) {
		return whole.Add(time.Second)
	}
	return exp
}
