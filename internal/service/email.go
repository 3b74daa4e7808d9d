package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

// send delivers a plain-text email. In development the email is only logged.
func (s *EmailService) send(ctx context.Context, kind, to, subject, body string, attrs ...any) error {
	if s.isDev {
		args := append([]any{"type", kind, "to", to, "subject", subject}, attrs...)
		slog.Info("email sent (dev mode)", args...)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, email, token, name string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	subject, body := passwordResetEmailTemplate(name, resetURL, s.appName)
	return s.send(ctx, "password_reset", email, subject, body, "url", resetURL)
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	subject, body := welcomeEmailTemplate(name, s.appURL, s.appName)
	return s.send(ctx, "welcome", email, subject, body)
}

func (s *EmailService) SendAccountDeletedEmail(ctx context.Context, email, name string) error {
	subject, body := accountDeletedEmailTemplate(name, s.appName)
	return s.send(ctx, "account_deleted", email, subject, body)
}

func (s *EmailService) SendFriendRequestEmail(ctx context.Context, email, name, fromUsername string) error {
	subject, body := friendRequestEmailTemplate(name, fromUsername, s.appURL, s.appName)
	return s.send(ctx, "friend_request", email, subject, body, "from", fromUsername)
}
