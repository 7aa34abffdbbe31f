package domain

import "time"

type CategoryType string

const (
	CategoryExpense CategoryType = "EXPENSE"
	CategoryIncome  CategoryType = "INCOME"
)

func (t CategoryType) Valid() bool {
	return t == CategoryExpense || t == CategoryIncome
}

type Category struct {
	CategoryID  string       `json:"id" dynamodbav:"category_id"`
	Name        string       `json:"name" dynamodbav:"name"`
	Type        CategoryType `json:"type" dynamodbav:"type"`
	Description string       `json:"description" dynamodbav:"description"`
	CreatedAt   time.Time    `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time    `json:"updated" dynamodbav:"updated_at"`
}

type CategoryInput struct {
	Name        string       `json:"name" validate:"required,max=50"`
	Type        CategoryType `json:"type" validate:"required,oneof=EXPENSE INCOME"`
	Description string       `json:"description" validate:"max=500"`
}
