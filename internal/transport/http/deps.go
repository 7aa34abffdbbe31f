package http

import (
	"context"
	"io"
	"time"

	"github.com/spendsmart-api/internal/domain"
	jwtinfra "github.com/spendsmart-api/internal/infrastructure/jwt"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// CategoryRepository is the minimal interface the router requires from a category store.
type CategoryRepository interface {
	Put(ctx context.Context, c *domain.Category) error
	Replace(ctx context.Context, c *domain.Category) error
	Get(ctx context.Context, categoryID string) (*domain.Category, error)
	List(ctx context.Context, t domain.CategoryType) ([]domain.Category, error)
	FindByName(ctx context.Context, name string, t domain.CategoryType) (*domain.Category, error)
	Delete(ctx context.Context, categoryID string) error
}

// TransactionRepository is the minimal interface the router requires from a transaction store.
type TransactionRepository interface {
	Put(ctx context.Context, t *domain.Transaction) error
	Replace(ctx context.Context, t *domain.Transaction) error
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, transactionID string) error
	List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	HasCategory(ctx context.Context, categoryID string) (bool, error)
}

// CodeStore holds one-time codes and staged registrations in memory.
type CodeStore interface {
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
	TTL() time.Duration
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Mailer delivers outbound email, either directly over SMTP or through the AMQP queue.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is optional; a nil sender disables SMS copies of codes.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// TokenProvider signs and verifies access tokens.
type TokenProvider interface {
	Sign(userID, username string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
	Expiry() time.Duration
}
