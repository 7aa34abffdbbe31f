package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionExpense TransactionType = "EXPENSE"
	TransactionIncome  TransactionType = "INCOME"
)

func (t TransactionType) Valid() bool {
	return t == TransactionExpense || t == TransactionIncome
}

// Transaction is a single income or expense entry. Date carries no time-of-day
// component (UTC midnight). CategoryName and CategoryType are resolved from the
// category at read time and are not persisted with the transaction.
type Transaction struct {
	TransactionID string
	UserID        string
	CategoryID    string
	CategoryName  string
	CategoryType  CategoryType
	Type          TransactionType
	Amount        decimal.Decimal
	Date          time.Time
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TransactionInput struct {
	CategoryID  string          `json:"category_id" validate:"required"`
	Type        TransactionType `json:"type" validate:"required,oneof=EXPENSE INCOME"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	Description string          `json:"description" validate:"max=1000"`
}

// TransactionFilter narrows a user's transaction list. Zero values mean "no filter".
type TransactionFilter struct {
	Start      *time.Time
	End        *time.Time
	Type       TransactionType
	CategoryID string
}
