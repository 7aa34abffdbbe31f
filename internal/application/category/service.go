package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spendsmart-api/internal/domain"
	"github.com/spendsmart-api/internal/pkg/id"
)

type Service interface {
	List(ctx context.Context, t domain.CategoryType) ([]domain.Category, error)
	Get(ctx context.Context, categoryID string) (*domain.Category, error)
	Create(ctx context.Context, input domain.CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, categoryID string, input domain.CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, categoryID string) error // refuses categories still referenced by transactions
	Seed(ctx context.Context) (int, error)
}

type categoryStore interface {
	List(ctx context.Context, t domain.CategoryType) ([]domain.Category, error)
	Get(ctx context.Context, categoryID string) (*domain.Category, error)
	FindByName(ctx context.Context, name string, t domain.CategoryType) (*domain.Category, error)
	Put(ctx context.Context, c *domain.Category) error
	Replace(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, categoryID string) error
}

type usageChecker interface {
	HasCategory(ctx context.Context, categoryID string) (bool, error)
}

type service struct {
	repo  categoryStore
	usage usageChecker
	now   func() time.Time
}

type ServiceDeps struct {
	CategoryRepo    categoryStore
	TransactionRepo usageChecker
	Now             func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.CategoryRepo, usage: deps.TransactionRepo, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) List(ctx context.Context, t domain.CategoryType) ([]domain.Category, error) {
	if t != "" && !t.Valid() {
		return nil, fmt.Errorf("unknown category type %q: %w", t, domain.ErrBadRequest)
	}
	return s.repo.List(ctx, t)
}

func (s *service) Get(ctx context.Context, categoryID string) (*domain.Category, error) {
	return s.repo.Get(ctx, categoryID)
}

func (s *service) Create(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if err := s.ensureNameFree(ctx, name, input.Type, ""); err != nil {
		return nil, err
	}
	c := s.newCategory(name, input)
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) newCategory(name string, input domain.CategoryInput) *domain.Category {
	now := s.now().UTC()
	return &domain.Category{
		CategoryID:  id.New(),
		Name:        name,
		Type:        input.Type,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *service) Update(ctx context.Context, categoryID string, input domain.CategoryInput) (*domain.Category, error) {
	c, err := s.repo.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if !strings.EqualFold(c.Name, name) || c.Type != input.Type {
		if err := s.ensureNameFree(ctx, name, input.Type, categoryID); err != nil {
			return nil, err
		}
	}
	c.Name = name
	c.Type = input.Type
	c.Description = input.Description
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Replace(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, categoryID string) error {
	if _, err := s.repo.Get(ctx, categoryID); err != nil {
		return err
	}
	used, err := s.usage.HasCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("category is used by existing transactions: %w", domain.ErrConflict)
	}
	return s.repo.Delete(ctx, categoryID)
}

// Seed inserts every default category that is not present yet and returns how many were created.
func (s *service) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, d := range defaults {
		_, err := s.repo.FindByName(ctx, d.Name, d.Type)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, fmt.Errorf("seed %s: %w", d.Name, err)
		}
		if err := s.repo.Put(ctx, s.newCategory(d.Name, d)); err != nil {
			return created, fmt.Errorf("seed %s: %w", d.Name, err)
		}
		created++
	}
	if created > 0 {
		slog.Info("seeded default categories", "count", created)
	} else {
		slog.Info("default categories already present, skipping seeding")
	}
	return created, nil
}

// ensureNameFree rejects a name already used by another category of the same type.
func (s *service) ensureNameFree(ctx context.Context, name string, t domain.CategoryType, selfID string) error {
	existing, err := s.repo.FindByName(ctx, name, t)
	switch {
	case err == nil && existing.CategoryID != selfID:
		return fmt.Errorf("category %q already exists for type %s: %w", name, t, domain.ErrConflict)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return err
	}
	return nil
}
