package auth

import (
	"fmt"
	"time"
)

// TokenClaims is one of AccessClaims, EmailVerifyClaims or PasswordResetClaims
type TokenClaims interface {
	wireClaims() Claims
	lifetime(i *Issuer) time.Duration
}

// AccessClaims identify a session by username
type AccessClaims struct {
	Username string
}

// EmailVerifyClaims carry the address awaiting confirmation
type EmailVerifyClaims struct {
	Email string
}

// PasswordResetClaims carry the address and the already-hashed new password
type PasswordResetClaims struct {
	Email        string
	PasswordHash string
}

func (c AccessClaims) wireClaims() Claims      { return Claims{ClaimSubject: c.Username} }
func (c EmailVerifyClaims) wireClaims() Claims { return Claims{ClaimSubject: c.Email} }
func (c PasswordResetClaims) wireClaims() Claims {
	return Claims{ClaimSubject: c.Email, ClaimPassword: c.PasswordHash}
}

func (AccessClaims) lifetime(i *Issuer) time.Duration        { return i.accessTTL }
func (EmailVerifyClaims) lifetime(i *Issuer) time.Duration   { return i.emailTTL }
func (PasswordResetClaims) lifetime(i *Issuer) time.Duration { return i.resetTTL }

// IssuerConfig holds the lifetime of each token kind
type IssuerConfig struct {
	AccessTTL time.Duration
	EmailTTL  time.Duration
	ResetTTL  time.Duration
}

// Issuer builds the three token kinds on top of a Codec. It never touches storage.
type Issuer struct {
	codec     Codec
	accessTTL time.Duration
	emailTTL  time.Duration
	resetTTL  time.Duration
}

func NewIssuer(codec Codec, cfg IssuerConfig) *Issuer {
	return &Issuer{
		codec:     codec,
		accessTTL: cfg.AccessTTL,
		emailTTL:  cfg.EmailTTL,
		resetTTL:  cfg.ResetTTL,
	}
}

// Issue encodes any token kind with its configured lifetime
func (i *Issuer) Issue(tc TokenClaims) (string, error) {
	token, err := i.codec.Encode(tc.wireClaims(), tc.lifetime(i))
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

func (i *Issuer) IssueAccessToken(username string) (string, error) {
	return i.Issue(AccessClaims{Username: username})
}

func (i *Issuer) IssueEmailVerificationToken(email string) (string, error) {
	return i.Issue(EmailVerifyClaims{Email: email})
}

// IssuePasswordResetToken embeds passwordHash, which must come from HashPassword
func (i *Issuer) IssuePasswordResetToken(email, passwordHash string) (string, error) {
	return i.Issue(PasswordResetClaims{Email: email, PasswordHash: passwordHash})
}

// AccessTokenTTL reports the session window, for the expires_in field of login responses
func (i *Issuer) AccessTokenTTL() time.Duration {
	return i.accessTTL
}
