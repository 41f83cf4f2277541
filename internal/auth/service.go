package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/user"
)

var (
	ErrInvalidCredentials       = errors.New("wrong email or password")
	ErrEmailNotVerified         = errors.New("email not verified")
	ErrEmailAlreadyVerified     = errors.New("email already verified")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrVerificationFailed       = errors.New("verification error")
	ErrInvalidResetToken        = errors.New("invalid or expired token")
	ErrAdminSignupDisabled      = errors.New("admin self-registration is disabled")
)

// UserRepository is the subset of user storage the auth flows need
type UserRepository interface {
	UserFinder
	Create(ctx context.Context, u *user.User) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	MarkConfirmed(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, username, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, username, token string) error
}

// AuthTokens is returned by a successful login
type AuthTokens struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// RegisterInput carries a validated registration request
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     user.Role
}

// Service handles authentication business logic
type Service struct {
	users        UserRepository
	issuer       *Issuer
	resolver     *Resolver
	emailService EmailService
	logger       *logging.Logger
	adminSignup  bool
}

func NewService(
	users UserRepository,
	issuer *Issuer,
	resolver *Resolver,
	emailService EmailService,
	logger *logging.Logger,
) *Service {
	return &Service{
		users:        users,
		issuer:       issuer,
		resolver:     resolver,
		emailService: emailService,
		logger:       logger,
		adminSignup:  true,
	}
}

// WithAdminSignup controls whether a registration may request the admin role
func (s *Service) WithAdminSignup(allowed bool) *Service {
	s.adminSignup = allowed
	return s
}

// Register creates a new user account and sends verification email
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if in.Role == user.RoleAdmin && !s.adminSignup {
		return nil, ErrAdminSignupDisabled
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, user.ErrDuplicateUsername
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = user.RoleUser
	}

	newUser, err := s.users.Create(ctx, &user.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Avatar:       user.GravatarURL(in.Email),
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) || errors.Is(err, user.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendVerification(newUser)

	return newUser, nil
}

// Login checks the password first and the confirmed flag second, then issues an access token
func (s *Service) Login(ctx context.Context, username, password string) (*AuthTokens, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(password, existingUser.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.Confirmed {
		return nil, ErrEmailNotVerified
	}

	accessToken, err := s.issuer.IssueAccessToken(existingUser.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthTokens{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.issuer.AccessTokenTTL().Seconds()),
	}, nil
}

// ConfirmEmail marks the owner of a verification token as confirmed.
// ErrEmailAlreadyVerified is returned when there is nothing to do.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	email, err := s.resolver.ResolveEmailVerification(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVerificationToken, err)
	}

	existingUser, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrVerificationFailed
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.Confirmed {
		return ErrEmailAlreadyVerified
	}

	if err := s.users.MarkConfirmed(ctx, email); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}

	return nil
}

// RequestEmail resends the verification email when the account exists and is unconfirmed.
// Unknown addresses are not reported.
func (s *Service) RequestEmail(ctx context.Context, email string) error {
	existingUser, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.Confirmed {
		return ErrEmailAlreadyVerified
	}

	s.sendVerification(existingUser)

	return nil
}

// RequestPasswordReset hashes newPassword and mails a reset token carrying the hash.
// Nothing is written to storage until the token is confirmed. The returned bool
// reports whether an account exists for email.
func (s *Service) RequestPasswordReset(ctx context.Context, email, newPassword string) (bool, error) {
	existingUser, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get user: %w", err)
	}

	if !existingUser.Confirmed {
		return true, ErrEmailNotVerified
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return true, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := s.issuer.IssuePasswordResetToken(existingUser.Email, passwordHash)
	if err != nil {
		return true, fmt.Errorf("failed to create reset token: %w", err)
	}

	// Send password reset email in goroutine (non-blocking)
	go func(toEmail, username string) {
		if err := s.emailService.SendPasswordResetEmail(context.Background(), toEmail, username, token); err != nil {
			s.logger.Warn("failed to send password reset email", "email", toEmail, "error", err)
		}
	}(existingUser.Email, existingUser.Username)

	return true, nil
}

// ConfirmPasswordReset stores the hash carried by a reset token
func (s *Service) ConfirmPasswordReset(ctx context.Context, token string) error {
	reset, err := s.resolver.ResolvePasswordReset(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResetToken, err)
	}

	existingUser, err := s.users.FindByEmail(ctx, reset.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, existingUser.ID, reset.PasswordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// sendVerification mails a fresh verification token without blocking the request
func (s *Service) sendVerification(u *user.User) {
	token, err := s.issuer.IssueEmailVerificationToken(u.Email)
	if err != nil {
		s.logger.Error("failed to create verification token", "email", u.Email, "error", err)
		return
	}

	go func(toEmail, username string) {
		// The request context is cancelled once the response is written
		if err := s.emailService.SendVerificationEmail(context.Background(), toEmail, username, token); err != nil {
			s.logger.Warn("failed to send verification email", "email", toEmail, "error", err)
		}
	}(u.Email, u.Username)
}
