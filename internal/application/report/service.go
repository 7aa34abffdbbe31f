package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spendsmart-api/internal/domain"
	"github.com/spendsmart-api/internal/pkg/id"
)

const contentTypePDF = "application/pdf"

// Statement points at a rendered statement in object storage.
type Statement struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

type Service interface {
	// Statement renders the user's statement for the range and returns a time-limited download link.
	Statement(ctx context.Context, userID string, start, end *time.Time) (*Statement, error)
}

type summarizer interface {
	Summary(ctx context.Context, userID string, start, end *time.Time) (domain.DashboardSummary, error)
}

type transactionLister interface {
	List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
}

type userGetter interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	dashboard    summarizer
	transactions transactionLister
	users        userGetter
	store        objectStore
	urlTTL       time.Duration
	now          func() time.Time
}

type ServiceDeps struct {
	Dashboard    summarizer
	Transactions transactionLister
	UserRepo     userGetter
	Store        objectStore
	URLTTL       time.Duration
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		dashboard:    deps.Dashboard,
		transactions: deps.Transactions,
		users:        deps.UserRepo,
		store:        deps.Store,
		urlTTL:       deps.URLTTL,
		now:          deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Statement(ctx context.Context, userID string, start, end *time.Time) (*Statement, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.dashboard.Summary(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	// Reuse the resolved range so the table and the totals cover the same days.
	txs, err := s.transactions.List(ctx, userID, domain.TransactionFilter{Start: &sum.StartDate, End: &sum.EndDate})
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc, err := renderStatement(fmt.Sprintf("%s (%s)", u.Username, u.Email), sum, txs, now)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("reports/%s/%s.pdf", userID, id.New())
	if _, err := s.store.Upload(ctx, key, bytes.NewReader(doc), contentTypePDF); err != nil {
		return nil, fmt.Errorf("upload statement: %w", err)
	}
	url, err := s.store.PresignedURL(ctx, key, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("presign statement: %w", err)
	}
	slog.Info("statement generated", "user_id", userID, "key", key, "transactions", len(txs), "bytes", len(doc))
	return &Statement{Key: key, URL: url, ExpiresAt: now.Add(s.urlTTL).UTC()}, nil
}
