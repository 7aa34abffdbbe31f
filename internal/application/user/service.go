package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spendsmart-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail       = "email"
	fieldPhoneNumber = "phone_number"
	fieldFirstName   = "first_name"
	fieldMiddleName  = "middle_name"
	fieldLastName    = "last_name"
	fieldStreet      = "street"
	fieldCity        = "city"
	fieldState       = "state"
	fieldCountry     = "country"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateProfile replaces the editable profile fields. Names and email keep
// their current value when blank; contact and address fields are cleared.
func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		fieldMiddleName:  strings.TrimSpace(req.MiddleName),
		fieldPhoneNumber: strings.TrimSpace(req.PhoneNumber),
		fieldStreet:      strings.TrimSpace(req.Street),
		fieldCity:        strings.TrimSpace(req.City),
		fieldState:       strings.TrimSpace(req.State),
		fieldCountry:     strings.TrimSpace(req.Country),
	}
	if v := strings.TrimSpace(req.FirstName); v != "" {
		updates[fieldFirstName] = v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		updates[fieldLastName] = v
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != current.Email {
		other, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil && other.UserID != userID:
			return nil, fmt.Errorf("another account already uses this email: %w", domain.ErrConflict)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		updates[fieldEmail] = email
	}

	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}
