package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spendsmart-api/internal/application/notification"
	"github.com/spendsmart-api/internal/domain"
	"github.com/spendsmart-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute name used in partial update maps.
const fieldPasswordHash = "password_hash"

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresIn time.Duration
	User      *domain.User
}

type Service interface {
	RequestRegistration(ctx context.Context, req domain.RegisterRequest) error
	VerifyRegistration(ctx context.Context, email, code string) (*domain.User, error)
	ResendRegistrationCode(ctx context.Context, email string) error

	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) (*domain.User, error)
	ResendPasswordResetCode(ctx context.Context, email string) error

	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
}

type codeStore interface {
	IssueCode(purpose domain.Purpose, email string) (string, error)
	ResendCode(purpose domain.Purpose, email string) (string, error)
	VerifyCode(purpose domain.Purpose, email, code string) bool
	ConfirmCode(purpose domain.Purpose, email, code string) bool
	IsConfirmed(purpose domain.Purpose, email string) bool
	HasCode(purpose domain.Purpose, email string) bool
	Code(purpose domain.Purpose, email string) (domain.VerificationCode, bool)
	RemoveCode(purpose domain.Purpose, email string)
	StagePendingRegistration(email string, p domain.PendingRegistration)
	FetchPendingRegistration(email string) (domain.PendingRegistration, bool)
	TakePendingRegistration(email string) (domain.PendingRegistration, bool)
	RestorePendingRegistration(email string, p domain.PendingRegistration) bool
	DiscardPendingRegistration(email string)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type codeNotifier interface {
	SendCode(ctx context.Context, to notification.Recipient, code string, purpose domain.Purpose) error
	SendRegistrationSuccess(ctx context.Context, to notification.Recipient) error
	SendPasswordResetSuccess(ctx context.Context, to notification.Recipient) error
	SendLoginNotification(ctx context.Context, to notification.Recipient, at time.Time) error
}

type tokenSigner interface {
	Sign(userID, username string) (string, error)
	Expiry() time.Duration
}

type service struct {
	codes          codeStore
	users          userStore
	notifier       codeNotifier
	signer         tokenSigner
	resendCooldown time.Duration
	bcryptCost     int
	now            func() time.Time
}

type ServiceDeps struct {
	Codes          codeStore
	UserRepo       userStore
	Notifier       codeNotifier
	JWTProvider    tokenSigner
	ResendCooldown time.Duration // 0 disables
	BcryptCost     int           // 0 means bcrypt.DefaultCost
	Now            func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		codes:          deps.Codes,
		users:          deps.UserRepo,
		notifier:       deps.Notifier,
		signer:         deps.JWTProvider,
		resendCooldown: deps.ResendCooldown,
		bcryptCost:     deps.BcryptCost,
		now:            deps.Now,
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkCooldown rejects a new code while the current one is younger than the cooldown.
func (s *service) checkCooldown(purpose domain.Purpose, email string) error {
	if s.resendCooldown <= 0 {
		return nil
	}
	c, ok := s.codes.Code(purpose, email)
	if !ok {
		return nil
	}
	if wait := s.resendCooldown - s.now().Sub(c.IssuedAt); wait > 0 {
		return fmt.Errorf("a code was sent recently, retry in %s: %w", wait.Round(time.Second), domain.ErrDuplicateRequest)
	}
	return nil
}

func (s *service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ensureAvailable fails with ErrConflict when username or email already belong to an account.
func (s *service) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("username is already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email is already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// --- registration ---

func (s *service) RequestRegistration(ctx context.Context, req domain.RegisterRequest) error {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return err
	}
	if err := s.checkCooldown(domain.PurposeRegistration, email); err != nil {
		return err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}

	code, err := s.codes.IssueCode(domain.PurposeRegistration, email)
	if err != nil {
		return err
	}
	pending := domain.PendingRegistration{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Street:       req.Street,
		City:         req.City,
		State:        req.State,
		Country:      req.Country,
		StagedAt:     s.now().UTC(),
	}
	s.codes.StagePendingRegistration(email, pending)

	to := notification.Recipient{Email: email, Phone: req.PhoneNumber, DisplayName: pending.DisplayName()}
	if err := s.notifier.SendCode(ctx, to, code, domain.PurposeRegistration); err != nil {
		s.codes.RemoveCode(domain.PurposeRegistration, email)
		s.codes.DiscardPendingRegistration(email)
		return err
	}
	slog.Info("registration requested", "email", email, "username", username)
	return nil
}

func (s *service) VerifyRegistration(ctx context.Context, email, code string) (*domain.User, error) {
	email = normalizeEmail(email)
	if !s.codes.VerifyCode(domain.PurposeRegistration, email, code) {
		return nil, fmt.Errorf("registration code: %w", domain.ErrInvalidOrExpiredCode)
	}
	// Taking the profile claims the registration: a concurrent verify of the same
	// code finds nothing left to create.
	pending, ok := s.codes.TakePendingRegistration(email)
	if !ok {
		return nil, fmt.Errorf("no registration in progress for this email: %w", domain.ErrNoPendingWorkflow)
	}
	// Someone may have taken the username or email while the code was in flight.
	if err := s.ensureAvailable(ctx, pending.Username, email); err != nil {
		s.releaseRegistration(email, pending, err)
		return nil, err
	}

	now := s.now().UTC()
	u := &domain.User{
		UserID:        id.New(),
		Username:      pending.Username,
		Email:         email,
		PasswordHash:  pending.PasswordHash,
		FirstName:     pending.FirstName,
		MiddleName:    pending.MiddleName,
		LastName:      pending.LastName,
		PhoneNumber:   pending.PhoneNumber,
		Street:        pending.Street,
		City:          pending.City,
		State:         pending.State,
		Country:       pending.Country,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		s.releaseRegistration(email, pending, err)
		return nil, err
	}
	s.codes.RemoveCode(domain.PurposeRegistration, email)
	slog.Info("registration completed", "user_id", u.UserID, "email", email)

	if err := s.notifier.SendRegistrationSuccess(ctx, recipientOf(u)); err != nil {
		slog.Warn("failed to send registration success email", "user_id", u.UserID, "err", err)
	}
	return u, nil
}

// releaseRegistration undoes a claim that did not produce a user. A conflict ends the
// workflow for good; any other failure puts the profile back so the same code can be retried.
func (s *service) releaseRegistration(email string, pending domain.PendingRegistration, cause error) {
	if errors.Is(cause, domain.ErrConflict) {
		s.codes.RemoveCode(domain.PurposeRegistration, email)
		return
	}
	if !s.codes.RestorePendingRegistration(email, pending) {
		slog.Info("pending registration superseded during verify", "email", email)
	}
}

func (s *service) ResendRegistrationCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	pending, ok := s.codes.FetchPendingRegistration(email)
	if !ok {
		return fmt.Errorf("no registration in progress for this email: %w", domain.ErrNoPendingWorkflow)
	}
	if err := s.checkCooldown(domain.PurposeRegistration, email); err != nil {
		return err
	}
	code, err := s.codes.ResendCode(domain.PurposeRegistration, email)
	if err != nil {
		return err
	}
	to := notification.Recipient{Email: email, Phone: pending.PhoneNumber, DisplayName: pending.DisplayName()}
	return s.notifier.SendCode(ctx, to, code, domain.PurposeRegistration)
}

// --- password reset ---

func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("no account found with this email address: %w", err)
	}
	if err := s.checkCooldown(domain.PurposePasswordReset, email); err != nil {
		return err
	}
	code, err := s.codes.IssueCode(domain.PurposePasswordReset, email)
	if err != nil {
		return err
	}
	if err := s.notifier.SendCode(ctx, recipientOf(u), code, domain.PurposePasswordReset); err != nil {
		s.codes.RemoveCode(domain.PurposePasswordReset, email)
		return err
	}
	slog.Info("password reset requested", "user_id", u.UserID)
	return nil
}

func (s *service) VerifyPasswordResetCode(_ context.Context, email, code string) error {
	if !s.codes.ConfirmCode(domain.PurposePasswordReset, normalizeEmail(email), code) {
		return fmt.Errorf("password reset code: %w", domain.ErrInvalidOrExpiredCode)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) (*domain.User, error) {
	if req.NewPassword != req.ConfirmPassword {
		return nil, fmt.Errorf("new password and confirm password do not match: %w", domain.ErrBadRequest)
	}
	email := normalizeEmail(req.Email)
	if !s.codes.IsConfirmed(domain.PurposePasswordReset, email) {
		return nil, fmt.Errorf("verify the reset code before resetting the password: %w", domain.ErrNoPendingWorkflow)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: hash}); err != nil {
		return nil, err
	}
	s.codes.RemoveCode(domain.PurposePasswordReset, email)
	slog.Info("password reset completed", "user_id", u.UserID)

	if err := s.notifier.SendPasswordResetSuccess(ctx, recipientOf(u)); err != nil {
		slog.Warn("failed to send password reset success email", "user_id", u.UserID, "err", err)
	}
	return u, nil
}

func (s *service) ResendPasswordResetCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("no account found with this email address: %w", err)
	}
	if !s.codes.HasCode(domain.PurposePasswordReset, email) {
		return fmt.Errorf("no active password reset request, start with forgot password: %w", domain.ErrNoPendingWorkflow)
	}
	if err := s.checkCooldown(domain.PurposePasswordReset, email); err != nil {
		return err
	}
	code, err := s.codes.ResendCode(domain.PurposePasswordReset, email)
	if err != nil {
		return err
	}
	return s.notifier.SendCode(ctx, recipientOf(u), code, domain.PurposePasswordReset)
}

// --- login ---

// Login accepts either the username or the email address as the login name.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	name := strings.TrimSpace(req.Username)
	var u *domain.User
	var err error
	if strings.Contains(name, "@") {
		u, err = s.users.GetByEmail(ctx, normalizeEmail(name))
	} else {
		u, err = s.users.GetByUsername(ctx, name)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid username or password: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid username or password: %w", domain.ErrUnauthorized)
	}
	token, err := s.signer.Sign(u.UserID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if err := s.notifier.SendLoginNotification(ctx, recipientOf(u), s.now()); err != nil {
		slog.Warn("failed to send login notification", "user_id", u.UserID, "err", err)
	}
	return &LoginResult{Token: token, TokenType: "Bearer", ExpiresIn: s.signer.Expiry(), User: u}, nil
}

func recipientOf(u *domain.User) notification.Recipient {
	return notification.Recipient{Email: u.Email, Phone: u.PhoneNumber, DisplayName: u.DisplayName()}
}
