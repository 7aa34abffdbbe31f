// Package analytics turns a user's transactions into dashboard figures. Everything here is
// pure: no I/O, no shared state, inputs are never modified.
package analytics

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendsmart-api/internal/domain"
)

// DefaultWindowDays is the length of the trailing window used when no start date is given.
const DefaultWindowDays = 30

const secondsPerDay = 24 * 60 * 60

var hundred = decimal.NewFromInt(100)

// Range is an inclusive span of calendar dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// Days is the inclusive number of calendar days in r, never less than 1.
func (r Range) Days() int64 {
	days := (r.End.Unix()-r.Start.Unix())/secondsPerDay + 1
	return max(days, 1)
}

// ResolveRange fills in missing bounds: end defaults to today, start to a trailing
// DefaultWindowDays window ending at end. All bounds are truncated to calendar dates.
func ResolveRange(start, end *time.Time, today time.Time) Range {
	r := Range{End: domain.DateOf(today)}
	if end != nil {
		r.End = domain.DateOf(*end)
	}
	r.Start = r.End.AddDate(0, 0, -(DefaultWindowDays - 1))
	if start != nil {
		r.Start = domain.DateOf(*start)
	}
	return r
}

// Summarize aggregates txs over r. The caller is expected to have already restricted
// txs to r; every transaction passed in is counted.
func Summarize(txs []domain.Transaction, r Range) domain.DashboardSummary {
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionIncome:
			income = income.Add(tx.Amount)
		case domain.TransactionExpense:
			expense = expense.Add(tx.Amount)
		}
	}

	return domain.DashboardSummary{
		StartDate:             r.Start,
		EndDate:               r.End,
		TotalIncome:           income,
		TotalExpense:          expense,
		Balance:               income.Sub(expense),
		AverageDailyExpense:   expense.DivRound(decimal.NewFromInt(r.Days()), 2),
		TotalTransactionCount: len(txs),
		CategoryBreakdown:     categoryBreakdown(txs, expense),
		MonthlyTrend:          monthlyTrend(txs),
	}
}

// categoryBreakdown emits one entry per category in first-seen order, then orders them by
// expense, largest first. Income-only categories stay in with a zero amount.
func categoryBreakdown(txs []domain.Transaction, totalExpense decimal.Decimal) []domain.CategoryBreakdown {
	out := make([]domain.CategoryBreakdown, 0)
	index := make(map[string]int)
	for _, tx := range txs {
		i, ok := index[tx.CategoryID]
		if !ok {
			i = len(out)
			index[tx.CategoryID] = i
			ct := tx.CategoryType
			if ct == "" {
				// Category no longer resolvable.
				ct = domain.CategoryExpense
			}
			out = append(out, domain.CategoryBreakdown{
				CategoryID:    tx.CategoryID,
				CategoryName:  tx.CategoryName,
				CategoryType:  ct,
				ExpenseAmount: decimal.Zero,
			})
		}
		if tx.Type == domain.TransactionExpense {
			out[i].ExpenseAmount = out[i].ExpenseAmount.Add(tx.Amount)
		}
	}

	for i := range out {
		out[i].PercentageOfTotalExpense = percentage(out[i].ExpenseAmount, totalExpense)
	}
	slices.SortStableFunc(out, func(a, b domain.CategoryBreakdown) int {
		return b.ExpenseAmount.Cmp(a.ExpenseAmount)
	})
	return out
}

func percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(total, 2)
}

func monthlyTrend(txs []domain.Transaction) []domain.MonthlyTrend {
	out := make([]domain.MonthlyTrend, 0)
	index := make(map[string]int)
	for _, tx := range txs {
		key := tx.Date.Format(domain.MonthLayout)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, domain.MonthlyTrend{YearMonth: key, Income: decimal.Zero, Expense: decimal.Zero})
		}
		switch tx.Type {
		case domain.TransactionIncome:
			out[i].Income = out[i].Income.Add(tx.Amount)
		case domain.TransactionExpense:
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	slices.SortFunc(out, func(a, b domain.MonthlyTrend) int {
		return strings.Compare(a.YearMonth, b.YearMonth)
	})
	return out
}
