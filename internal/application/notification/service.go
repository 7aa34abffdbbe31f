package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spendsmart-api/internal/domain"
)

// Recipient is who an outbound message is addressed to. Phone is optional.
type Recipient struct {
	Email       string
	Phone       string
	DisplayName string
}

type Service interface {
	SendCode(ctx context.Context, to Recipient, code string, purpose domain.Purpose) error
	SendRegistrationSuccess(ctx context.Context, to Recipient) error
	SendPasswordResetSuccess(ctx context.Context, to Recipient) error
	SendLoginNotification(ctx context.Context, to Recipient, at time.Time) error
}

type emailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type service struct {
	mailer  emailSender
	sms     smsSender
	codeTTL time.Duration
}

type ServiceDeps struct {
	Mailer    emailSender
	SMSSender smsSender // optional
	CodeTTL   time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{mailer: deps.Mailer, sms: deps.SMSSender, codeTTL: deps.CodeTTL}
}

// SendCode emails the code and, when SMS is configured and the recipient has a phone
// number, texts a copy. Only the email is required to succeed.
func (s *service) SendCode(ctx context.Context, to Recipient, code string, purpose domain.Purpose) error {
	subject, intro := codeCopy(purpose)
	body := fmt.Sprintf("Hello %s,\n\n%s\n\n    %s\n\nThis code is valid for %s.\nIf you didn't request it, you can ignore this email.\n\nThe SpendSmart Team\n",
		to.DisplayName, intro, code, humanDuration(s.codeTTL))
	if err := s.mailer.SendEmail(ctx, to.Email, subject, body); err != nil {
		return fmt.Errorf("send %s code email: %w", purpose, err)
	}
	slog.Info("verification code sent", "purpose", purpose, "email", to.Email)

	if s.sms != nil && to.Phone != "" {
		msg := fmt.Sprintf("SpendSmart code: %s (valid %s)", code, humanDuration(s.codeTTL))
		if err := s.sms.SendSMS(ctx, to.Phone, msg); err != nil {
			slog.Warn("failed to send verification code sms", "purpose", purpose, "email", to.Email, "err", err)
		}
	}
	return nil
}

func (s *service) SendRegistrationSuccess(ctx context.Context, to Recipient) error {
	body := fmt.Sprintf("Welcome to SpendSmart, %s!\n\nYour registration is complete. You can now sign in, "+
		"record your income and expenses, organize them by category and follow your dashboard.\n\nThe SpendSmart Team\n",
		to.DisplayName)
	if err := s.mailer.SendEmail(ctx, to.Email, "SpendSmart - Registration Successful", body); err != nil {
		return fmt.Errorf("send registration success email: %w", err)
	}
	return nil
}

func (s *service) SendPasswordResetSuccess(ctx context.Context, to Recipient) error {
	body := fmt.Sprintf("Hello %s,\n\nYour SpendSmart password was changed successfully.\n"+
		"If you did not make this change, reset your password immediately.\n\nThe SpendSmart Team\n", to.DisplayName)
	if err := s.mailer.SendEmail(ctx, to.Email, "SpendSmart - Password Reset Successful", body); err != nil {
		return fmt.Errorf("send password reset success email: %w", err)
	}
	return nil
}

func (s *service) SendLoginNotification(ctx context.Context, to Recipient, at time.Time) error {
	body := fmt.Sprintf("Hello %s,\n\nA new sign-in to your SpendSmart account happened at %s.\n"+
		"If this wasn't you, reset your password.\n\nThe SpendSmart Team\n", to.DisplayName, at.UTC().Format("2006-01-02 15:04:05 MST"))
	if err := s.mailer.SendEmail(ctx, to.Email, "SpendSmart - Login Notification", body); err != nil {
		return fmt.Errorf("send login notification email: %w", err)
	}
	return nil
}

func codeCopy(purpose domain.Purpose) (subject, intro string) {
	if purpose == domain.PurposePasswordReset {
		return "SpendSmart - Password Reset OTP",
			"We received a request to reset your password. Use the code below to continue:"
	}
	return "SpendSmart - Email Verification OTP",
		"Thank you for registering with SpendSmart! Use the code below to verify your email address:"
}

// humanDuration renders whole minutes as "10 minutes", anything else as Go prints it.
func humanDuration(d time.Duration) string {
	if d > 0 && d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return strings.TrimSpace(d.String())
}
