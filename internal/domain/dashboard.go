package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary aggregates a user's transactions over an inclusive date range.
type DashboardSummary struct {
	StartDate             time.Time
	EndDate               time.Time
	TotalIncome           decimal.Decimal
	TotalExpense          decimal.Decimal
	Balance               decimal.Decimal
	AverageDailyExpense   decimal.Decimal
	TotalTransactionCount int
	CategoryBreakdown     []CategoryBreakdown
	MonthlyTrend          []MonthlyTrend
}

type CategoryBreakdown struct {
	CategoryID               string
	CategoryName             string
	CategoryType             CategoryType
	ExpenseAmount            decimal.Decimal
	PercentageOfTotalExpense decimal.Decimal
}

type MonthlyTrend struct {
	YearMonth string // YYYY-MM
	Income    decimal.Decimal
	Expense   decimal.Decimal
}
