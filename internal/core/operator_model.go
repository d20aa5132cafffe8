package core

import (
	"context"
	"time"
)

// Operator roles.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Operator is a person allowed to run a terminal.
type Operator struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// OperatorService provides operator lookup and authentication.
type OperatorService interface {
	// Authenticate returns the active operator whose bcrypt hash matches password,
	// or ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*Operator, error)

	// GetByID returns an operator by primary key.
	GetByID(ctx context.Context, id int) (*Operator, error)

	// CreateOperator registers an operator with a freshly hashed password.
	CreateOperator(ctx context.Context, username, password, role string) (*Operator, error)
}
