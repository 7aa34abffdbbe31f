package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spendsmart-api/internal/domain"
	"github.com/spendsmart-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, userID string, input domain.TransactionInput) (*domain.Transaction, error)
	Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	Update(ctx context.Context, userID, transactionID string, input domain.TransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, transactionID string) error
}

type transactionStore interface {
	Put(ctx context.Context, t *domain.Transaction) error
	Replace(ctx context.Context, t *domain.Transaction) error
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, transactionID string) error
	List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
}

type categoryStore interface {
	Get(ctx context.Context, categoryID string) (*domain.Category, error)
	List(ctx context.Context, t domain.CategoryType) ([]domain.Category, error)
}

type service struct {
	repo       transactionStore
	categories categoryStore
	now        func() time.Time
}

type ServiceDeps struct {
	TransactionRepo transactionStore
	CategoryRepo    categoryStore
	Now             func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.TransactionRepo, categories: deps.CategoryRepo, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Create(ctx context.Context, userID string, input domain.TransactionInput) (*domain.Transaction, error) {
	date, cat, err := s.checkInput(ctx, input)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &domain.Transaction{
		TransactionID: id.New(),
		UserID:        userID,
		CategoryID:    cat.CategoryID,
		Type:          input.Type,
		Amount:        input.Amount,
		Date:          date,
		Description:   strings.TrimSpace(input.Description),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	withCategory(t, cat)
	return t, nil
}

// Get returns a transaction owned by userID. Another user's transaction is reported as not found.
func (s *service) Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("transaction not found: %w", domain.ErrNotFound)
	}
	if err := s.joinCategories(ctx, []*domain.Transaction{t}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return nil, fmt.Errorf("end date is before start date: %w", domain.ErrBadRequest)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("unknown transaction type %q: %w", f.Type, domain.ErrBadRequest)
	}
	txs, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*domain.Transaction, len(txs))
	for i := range txs {
		ptrs[i] = &txs[i]
	}
	if err := s.joinCategories(ctx, ptrs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *service) Update(ctx context.Context, userID, transactionID string, input domain.TransactionInput) (*domain.Transaction, error) {
	existing, err := s.owned(ctx, userID, transactionID, "modify")
	if err != nil {
		return nil, err
	}
	date, cat, err := s.checkInput(ctx, input)
	if err != nil {
		return nil, err
	}
	existing.CategoryID = cat.CategoryID
	existing.Type = input.Type
	existing.Amount = input.Amount
	existing.Date = date
	existing.Description = strings.TrimSpace(input.Description)
	existing.UpdatedAt = s.now().UTC()
	if err := s.repo.Replace(ctx, existing); err != nil {
		return nil, err
	}
	withCategory(existing, cat)
	return existing, nil
}

func (s *service) Delete(ctx context.Context, userID, transactionID string) error {
	if _, err := s.owned(ctx, userID, transactionID, "delete"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, transactionID)
}

func (s *service) owned(ctx context.Context, userID, transactionID, verb string) (*domain.Transaction, error) {
	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("you cannot %s this transaction: %w", verb, domain.ErrForbidden)
	}
	return t, nil
}

// checkInput enforces the money and date rules tags cannot express and resolves the category.
func (s *service) checkInput(ctx context.Context, input domain.TransactionInput) (time.Time, *domain.Category, error) {
	if !input.Amount.IsPositive() {
		return time.Time{}, nil, fmt.Errorf("amount must be greater than zero: %w", domain.ErrBadRequest)
	}
	if !input.Amount.Equal(input.Amount.Truncate(2)) {
		return time.Time{}, nil, fmt.Errorf("amount cannot have more than 2 decimal places: %w", domain.ErrBadRequest)
	}
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("date must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
	}
	cat, err := s.categories.Get(ctx, input.CategoryID)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("category %s: %w", input.CategoryID, err)
	}
	return date, cat, nil
}

// joinCategories fills in category name and type from a single category listing.
func (s *service) joinCategories(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	cats, err := s.categories.List(ctx, "")
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	byID := make(map[string]*domain.Category, len(cats))
	for i := range cats {
		byID[cats[i].CategoryID] = &cats[i]
	}
	for _, t := range txs {
		if c, ok := byID[t.CategoryID]; ok {
			withCategory(t, c)
		}
	}
	return nil
}

func withCategory(t *domain.Transaction, c *domain.Category) {
	t.CategoryName = c.Name
	t.CategoryType = c.Type
}
