package domain

import "time"

type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Username      string    `json:"username" dynamodbav:"username"`
	Email         string    `json:"email" dynamodbav:"email"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	FirstName     string    `json:"first_name" dynamodbav:"first_name"`
	MiddleName    string    `json:"middle_name" dynamodbav:"middle_name"`
	LastName      string    `json:"last_name" dynamodbav:"last_name"`
	PhoneNumber   string    `json:"phone_number" dynamodbav:"phone_number"`
	Street        string    `json:"street" dynamodbav:"street"`
	City          string    `json:"city" dynamodbav:"city"`
	State         string    `json:"state" dynamodbav:"state"`
	Country       string    `json:"country" dynamodbav:"country"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

// DisplayName is the name used when addressing the user in outbound messages.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Email       string `json:"email" validate:"required,email,max=100"`
	FirstName   string `json:"first_name" validate:"required,max=50"`
	MiddleName  string `json:"middle_name" validate:"max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Street      string `json:"street" validate:"required,max=100"`
	City        string `json:"city" validate:"required,max=50"`
	State       string `json:"state" validate:"required,max=50"`
	Country     string `json:"country" validate:"required,max=50"`
}

type UpdateProfileRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=50"`
	MiddleName  string `json:"middle_name" validate:"max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email,max=100"`
	PhoneNumber string `json:"phone_number" validate:"phone"`
	Street      string `json:"street" validate:"max=100"`
	City        string `json:"city" validate:"max=50"`
	State       string `json:"state" validate:"max=50"`
	Country     string `json:"country" validate:"max=50"`
}
