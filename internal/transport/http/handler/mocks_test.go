package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spendsmart-api/internal/application/auth"
	"github.com/spendsmart-api/internal/application/report"
	"github.com/spendsmart-api/internal/domain"
	jwtinfra "github.com/spendsmart-api/internal/infrastructure/jwt"
	"github.com/spendsmart-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) RequestRegistration(ctx context.Context, req domain.RegisterRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) VerifyRegistration(ctx context.Context, email, code string) (*domain.User, error) {
	args := m.Called(ctx, email, code)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) ResendRegistrationCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) VerifyPasswordResetCode(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *mockAuthSvc) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) ResendPasswordResetCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*auth.LoginResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*auth.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCategorySvc struct{ mock.Mock }

func (m *mockCategorySvc) List(ctx context.Context, t domain.CategoryType) ([]domain.Category, error) {
	args := m.Called(ctx, t)
	cats, _ := args.Get(0).([]domain.Category)
	return cats, args.Error(1)
}

func (m *mockCategorySvc) Get(ctx context.Context, categoryID string) (*domain.Category, error) {
	args := m.Called(ctx, categoryID)
	if c, _ := args.Get(0).(*domain.Category); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCategorySvc) Create(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, input)
	if c, _ := args.Get(0).(*domain.Category); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCategorySvc) Update(ctx context.Context, categoryID string, input domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, categoryID, input)
	if c, _ := args.Get(0).(*domain.Category); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCategorySvc) Delete(ctx context.Context, categoryID string) error {
	return m.Called(ctx, categoryID).Error(0)
}

func (m *mockCategorySvc) Seed(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockTransactionSvc struct{ mock.Mock }

func (m *mockTransactionSvc) Create(ctx context.Context, userID string, input domain.TransactionInput) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, input)
	if t, _ := args.Get(0).(*domain.Transaction); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionSvc) Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, transactionID)
	if t, _ := args.Get(0).(*domain.Transaction); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionSvc) List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, f)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}

func (m *mockTransactionSvc) Update(ctx context.Context, userID, transactionID string, input domain.TransactionInput) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, transactionID, input)
	if t, _ := args.Get(0).(*domain.Transaction); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionSvc) Delete(ctx context.Context, userID, transactionID string) error {
	return m.Called(ctx, userID, transactionID).Error(0)
}

type mockDashboardSvc struct{ mock.Mock }

func (m *mockDashboardSvc) Summary(ctx context.Context, userID string, start, end *time.Time) (domain.DashboardSummary, error) {
	args := m.Called(ctx, userID, start, end)
	return args.Get(0).(domain.DashboardSummary), args.Error(1)
}

type mockReportSvc struct{ mock.Mock }

func (m *mockReportSvc) Statement(ctx context.Context, userID string, start, end *time.Time) (*report.Statement, error) {
	args := m.Called(ctx, userID, start, end)
	if s, _ := args.Get(0).(*report.Statement); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

// jsonReq builds a request with a raw JSON body.
func jsonReq(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// asUser attaches claims for userID, as middleware.Auth would after a valid token.
func asUser(r *http.Request, userID string) *http.Request {
	claims := &jwtinfra.Claims{UserID: userID, Username: "alice"}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
