package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redmonkez12/contacts-api/internal/user"
)

var (
	ErrUnauthorized = errors.New("could not validate credentials")
	ErrForbidden    = errors.New("operation not permitted")
)

// UserFinder looks up the subject of an access token
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*user.User, error)
}

// Resolver turns tokens back into identities
type Resolver struct {
	codec Codec
	users UserFinder
}

func NewResolver(codec Codec, users UserFinder) *Resolver {
	return &Resolver{codec: codec, users: users}
}

// CurrentUser resolves a bearer token to its user. Every token failure and an
// unknown subject collapse to ErrUnauthorized; storage errors are returned as is.
// Only the access token shape is accepted: a password claim marks a reset token
// and an email subject marks a reset or verification token.
func (r *Resolver) CurrentUser(ctx context.Context, bearer string) (*user.User, error) {
	claims, err := r.codec.Decode(bearer)
	if err != nil {
		return nil, ErrUnauthorized
	}

	if _, isReset := claims[ClaimPassword]; isReset {
		return nil, ErrUnauthorized
	}

	username, ok := claims.Subject()
	if !ok || !user.ValidUsername(username) {
		return nil, ErrUnauthorized
	}

	u, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}

	return u, nil
}

// RequireAdmin passes u through unchanged when it holds the admin role
func (r *Resolver) RequireAdmin(u *user.User) (*user.User, error) {
	if u == nil || !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return u, nil
}

// ResolveEmailVerification returns the email a verification token was issued for
func (r *Resolver) ResolveEmailVerification(token string) (string, error) {
	claims, err := r.codec.Decode(token)
	if err != nil {
		return "", err
	}

	email, ok := claims.Subject()
	if !ok {
		return "", ErrMalformed
	}
	return email, nil
}

// ResolvePasswordReset returns the email and new password hash carried by a
// reset token. Tokens of another kind fail with ErrMalformed.
func (r *Resolver) ResolvePasswordReset(token string) (PasswordResetClaims, error) {
	claims, err := r.codec.Decode(token)
	if err != nil {
		return PasswordResetClaims{}, err
	}

	email, ok := claims.Subject()
	if !ok {
		return PasswordResetClaims{}, ErrMalformed
	}
	hash, ok := claims.Password()
	if !ok {
		return PasswordResetClaims{}, ErrMalformed
	}

	return PasswordResetClaims{Email: email, PasswordHash: hash}, nil
}
