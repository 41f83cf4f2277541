package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTCodec encodes claims as HS256-signed JWTs
type JWTCodec struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

func NewJWTCodec(secret []byte) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	c := &JWTCodec{secret: key, now: time.Now}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	return c, nil
}

// Encode signs claims with an exp of now+ttl, rounded up to the second
func (c *JWTCodec) Encode(claims Claims, ttl time.Duration) (string, error) {
	now := c.now()

	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	mc[ClaimIssuedAt] = now.Unix()
	mc[ClaimExpiry] = expiresAt(now, ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature first, then the expiry
func (c *JWTCodec) Decode(tokenStr string) (Claims, error) {
	mc := jwt.MapClaims{}
	_, err := c.parser.ParseWithClaims(tokenStr, mc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed) && c.signatureSegmentOnly(tokenStr):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}

	claims := make(Claims, len(mc))
	for k, v := range mc {
		claims[k] = v
	}
	return claims, nil
}

// signatureSegmentOnly reports whether header and claims parse, which leaves the
// signature encoding as the malformed part
func (c *JWTCodec) signatureSegmentOnly(tokenStr string) bool {
	_, _, err := c.parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	return err == nil
}
