package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/redmonkez12/contacts-api/internal/config"
	"github.com/redmonkez12/contacts-api/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Sender delivers a composed message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Service struct {
	sender    Sender
	from      string
	fromName  string
	publicURL string
	emailTTL  time.Duration
	resetTTL  time.Duration
	logger    *logging.Logger
}

// NewService builds a mailer that dials the configured SMTP server for every message
func NewService(cfg config.EmailConfig, publicURL string, auth config.AuthConfig, logger *logging.Logger) *Service {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return NewServiceWithSender(dialer, cfg, publicURL, auth, logger)
}

func NewServiceWithSender(sender Sender, cfg config.EmailConfig, publicURL string, auth config.AuthConfig, logger *logging.Logger) *Service {
	return &Service{
		sender:    sender,
		from:      cfg.FromAddress,
		fromName:  cfg.FromName,
		publicURL: publicURL,
		emailTTL:  auth.EmailTokenDuration,
		resetTTL:  auth.ResetTokenDuration,
		logger:    logger,
	}
}

type templateData struct {
	AppName   string
	Username  string
	Link      string
	ExpiresIn string
}

// SendVerificationEmail sends an email confirmation link to the user
// This method is designed to be called in a goroutine
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, username, token string) error {
	link := s.publicURL + "/api/auth/confirmed_email/" + url.PathEscape(token)
	return s.send(ctx, toEmail, "Confirm your email", "verify_email.html", templateData{
		AppName:   s.fromName,
		Username:  username,
		Link:      link,
		ExpiresIn: humanDuration(s.emailTTL),
	})
}

// SendPasswordResetEmail sends the link that applies a requested password change
// This method is designed to be called in a goroutine
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, username, token string) error {
	link := s.publicURL + "/api/auth/confirm_reset_password/" + url.PathEscape(token)
	return s.send(ctx, toEmail, "Password change request", "reset_password.html", templateData{
		AppName:   s.fromName,
		Username:  username,
		Link:      link,
		ExpiresIn: humanDuration(s.resetTTL),
	})
}

func (s *Service) send(ctx context.Context, toEmail, subject, tmpl string, data templateData) error {
	logger := s.logger.WithFields(map[string]any{"email": toEmail, "template": tmpl})

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.from, s.fromName)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())
	msg.AddAlternative("text/plain", "Open this link to continue: "+data.Link)

	if err := s.sender.DialAndSend(msg); err != nil {
		logger.Error("failed to send email", "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("email sent")
	return nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute && d%time.Minute == 0:
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("%d minutes", m)
		}
		return "1 minute"
	default:
		return d.String()
	}
}
