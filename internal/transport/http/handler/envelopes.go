package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/spendsmart-api/internal/application/auth"
	"github.com/spendsmart-api/internal/application/report"
	"github.com/spendsmart-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login responses.
type AuthEnvelope struct {
	Token     string        `json:"token"`
	TokenType string        `json:"token_type"`
	ExpiresIn int64         `json:"expires_in"` // seconds
	User      *UserResponse `json:"user"`
}

// UserResponse is the public view of a user; the password hash never leaves the service.
type UserResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	MiddleName    string    `json:"middle_name"`
	LastName      string    `json:"last_name"`
	PhoneNumber   string    `json:"phone_number"`
	Street        string    `json:"street"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TransactionResponse struct {
	ID           string                 `json:"id"`
	Type         domain.TransactionType `json:"type"`
	Amount       string                 `json:"amount"`
	Date         string                 `json:"date"`
	Description  string                 `json:"description"`
	CategoryID   string                 `json:"category_id"`
	CategoryName string                 `json:"category_name"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type DashboardResponse struct {
	StartDate           string              `json:"start_date"`
	EndDate             string              `json:"end_date"`
	TotalIncome         string              `json:"total_income"`
	TotalExpense        string              `json:"total_expense"`
	Balance             string              `json:"balance"`
	AverageDailyExpense string              `json:"average_daily_expense"`
	TotalTransactions   int                 `json:"total_transactions"`
	CategoryBreakdown   []BreakdownResponse `json:"category_breakdown"`
	MonthlyTrend        []TrendResponse     `json:"monthly_trend"`
}

type BreakdownResponse struct {
	CategoryID   string              `json:"category_id"`
	CategoryName string              `json:"category_name"`
	Type         domain.CategoryType `json:"type"`
	Amount       string              `json:"amount"`
	Percentage   string              `json:"percentage"`
}

type TrendResponse struct {
	Month   string `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type StatementResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:            u.UserID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		MiddleName:    u.MiddleName,
		LastName:      u.LastName,
		PhoneNumber:   u.PhoneNumber,
		Street:        u.Street,
		City:          u.City,
		State:         u.State,
		Country:       u.Country,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toAuthEnvelope(res *auth.LoginResult) AuthEnvelope {
	return AuthEnvelope{
		Token:     res.Token,
		TokenType: res.TokenType,
		ExpiresIn: int64(res.ExpiresIn / time.Second),
		User:      toUserResponse(res.User),
	}
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.TransactionID,
		Type:         t.Type,
		Amount:       t.Amount.StringFixed(2),
		Date:         t.Date.Format(domain.DateLayout),
		Description:  t.Description,
		CategoryID:   t.CategoryID,
		CategoryName: t.CategoryName,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toDashboardResponse(s domain.DashboardSummary) DashboardResponse {
	resp := DashboardResponse{
		StartDate:           s.StartDate.Format(domain.DateLayout),
		EndDate:             s.EndDate.Format(domain.DateLayout),
		TotalIncome:         s.TotalIncome.StringFixed(2),
		TotalExpense:        s.TotalExpense.StringFixed(2),
		Balance:             s.Balance.StringFixed(2),
		AverageDailyExpense: s.AverageDailyExpense.StringFixed(2),
		TotalTransactions:   s.TotalTransactionCount,
		CategoryBreakdown:   make([]BreakdownResponse, len(s.CategoryBreakdown)),
		MonthlyTrend:        make([]TrendResponse, len(s.MonthlyTrend)),
	}
	for i, b := range s.CategoryBreakdown {
		resp.CategoryBreakdown[i] = BreakdownResponse{
			CategoryID:   b.CategoryID,
			CategoryName: b.CategoryName,
			Type:         b.CategoryType,
			Amount:       b.ExpenseAmount.StringFixed(2),
			Percentage:   b.PercentageOfTotalExpense.StringFixed(2),
		}
	}
	for i, m := range s.MonthlyTrend {
		resp.MonthlyTrend[i] = TrendResponse{
			Month:   m.YearMonth,
			Income:  m.Income.StringFixed(2),
			Expense: m.Expense.StringFixed(2),
		}
	}
	return resp
}

func toStatementResponse(s *report.Statement) StatementResponse {
	return StatementResponse{URL: s.URL, Key: s.Key, ExpiresAt: s.ExpiresAt}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
