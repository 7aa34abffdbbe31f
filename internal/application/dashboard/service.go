package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/spendsmart-api/internal/application/analytics"
	"github.com/spendsmart-api/internal/domain"
)

type Service interface {
	// Summary aggregates the user's transactions between start and end, both inclusive.
	// A nil end means today; a nil start means a trailing 30 day window ending at end.
	Summary(ctx context.Context, userID string, start, end *time.Time) (domain.DashboardSummary, error)
}

// transactionLister returns a user's transactions with category name and type filled in.
type transactionLister interface {
	List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
}

type service struct {
	transactions transactionLister
	now          func() time.Time
}

type ServiceDeps struct {
	Transactions transactionLister
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{transactions: deps.Transactions, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Summary(ctx context.Context, userID string, start, end *time.Time) (domain.DashboardSummary, error) {
	r := analytics.ResolveRange(start, end, s.now())
	if r.End.Before(r.Start) {
		return domain.DashboardSummary{}, fmt.Errorf("end date is before start date: %w", domain.ErrBadRequest)
	}
	txs, err := s.transactions.List(ctx, userID, domain.TransactionFilter{Start: &r.Start, End: &r.End})
	if err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.Summarize(txs, r), nil
}
