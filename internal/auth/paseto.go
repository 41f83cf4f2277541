package auth

import (
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
)

const pasetoKeyLen = 32

// PasetoCodec encodes claims as PASETO v4.local tokens
// (symmetric encryption with XChaCha20-Poly1305)
type PasetoCodec struct {
	symmetricKey paseto.V4SymmetricKey
	now          func() time.Time
}

// NewPasetoCodec derives the v4.local key from the first 32 bytes of secret
func NewPasetoCodec(secret []byte) (*PasetoCodec, error) {
	if len(secret) < pasetoKeyLen {
		return nil, fmt.Errorf("symmetric key must be at least %d bytes, got %d", pasetoKeyLen, len(secret))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(secret[:pasetoKeyLen])
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoCodec{
		symmetricKey: key,
		now:          time.Now,
	}, nil
}

// Encode encrypts claims with an exp of now+ttl, rounded up to the second
func (c *PasetoCodec) Encode(claims Claims, ttl time.Duration) (string, error) {
	now := c.now()

	token := paseto.NewToken()
	for k, v := range claims {
		if err := token.Set(k, v); err != nil {
			return "", fmt.Errorf("failed to set claim %q: %w", k, err)
		}
	}
	token.SetIssuedAt(now)
	token.SetExpiration(expiresAt(now, ttl))

	return token.V4Encrypt(c.symmetricKey, nil), nil
}

// Decode authenticates the token, then checks its expiry against the codec clock
func (c *PasetoCodec) Decode(tokenStr string) (Claims, error) {
	if !strings.HasPrefix(tokenStr, "v4.local.") {
		return nil, ErrMalformed
	}

	// Expiry is checked below so that it can be told apart from a failed authentication tag
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(c.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	exp, err := token.GetExpiration()
	if err != nil {
		return nil, ErrMalformed
	}
	if !c.now().Before(exp) {
		return nil, ErrExpired
	}

	claims := Claims{}
	for k, raw := range token.Claims() {
		claims[k] = raw
	}
	if issuedAt, err := token.GetIssuedAt(); err == nil {
		claims[ClaimIssuedAt] = issuedAt.Unix()
	}
	claims[ClaimExpiry] = exp.Unix()

	return claims, nil
}

var (
	_ Codec = (*PasetoCodec)(nil)
	_ Codec = (*JWTCodec)(nil)
)
