package user

import (
	"context"
	"errors"
	"testing"

	"github.com/spendsmart-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

// --- helpers ---

func alice() *domain.User {
	return &domain.User{
		UserID:      "u1",
		Username:    "alice",
		Email:       "alice@example.com",
		FirstName:   "Alice",
		LastName:    "Smith",
		PhoneNumber: "+1 555 0100",
		City:        "Austin",
	}
}

func baseReq() domain.UpdateProfileRequest {
	return domain.UpdateProfileRequest{
		FirstName: "Alicia",
		LastName:  "Smith",
		Email:     "alice@example.com",
	}
}

// --- Get tests ---

func TestGet_NotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	_, err := NewService(us).Get(context.Background(), "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- UpdateProfile tests ---

func TestUpdateProfile_SameEmail_SkipsUniquenessCheck(t *testing.T) {
	us := &mockUserStore{}
	var updates map[string]interface{}
	us.On("Get", mock.Anything, "u1").Return(alice(), nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)

	_, err := NewService(us).UpdateProfile(context.Background(), "u1", baseReq())

	require.NoError(t, err)
	us.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	assert.Equal(t, "Alicia", updates[fieldFirstName])
	assert.NotContains(t, updates, fieldEmail)
	assert.Equal(t, "", updates[fieldPhoneNumber], "omitted contact fields are cleared")
	assert.Equal(t, "", updates[fieldCity])
}

func TestUpdateProfile_BlankNamesAreKept(t *testing.T) {
	us := &mockUserStore{}
	var updates map[string]interface{}
	us.On("Get", mock.Anything, "u1").Return(alice(), nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)

	req := baseReq()
	req.FirstName = "  "
	_, err := NewService(us).UpdateProfile(context.Background(), "u1", req)

	require.NoError(t, err)
	assert.NotContains(t, updates, fieldFirstName)
	assert.Equal(t, "Smith", updates[fieldLastName])
}

func TestUpdateProfile_EmailTakenByAnotherUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(alice(), nil)
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(&domain.User{UserID: "u2"}, nil)

	req := baseReq()
	req.Email = "Bob@Example.com"
	_, err := NewService(us).UpdateProfile(context.Background(), "u1", req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_NewEmail(t *testing.T) {
	us := &mockUserStore{}
	var updates map[string]interface{}
	updated := alice()
	updated.Email = "new@example.com"
	us.On("Get", mock.Anything, "u1").Return(alice(), nil).Once()
	us.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, domain.ErrNotFound)
	us.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)
	us.On("Get", mock.Anything, "u1").Return(updated, nil).Once()

	req := baseReq()
	req.Email = "new@example.com"
	u, err := NewService(us).UpdateProfile(context.Background(), "u1", req)

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "new@example.com", updates[fieldEmail])
	us.AssertExpectations(t)
}

func TestUpdateProfile_LookupErrorPropagates(t *testing.T) {
	us := &mockUserStore{}
	storeErr := errors.New("dynamo error")
	us.On("Get", mock.Anything, "u1").Return(alice(), nil)
	us.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, storeErr)

	req := baseReq()
	req.Email = "new@example.com"
	_, err := NewService(us).UpdateProfile(context.Background(), "u1", req)

	assert.Equal(t, storeErr, err)
}
