package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerService manages the customer master.
type CustomerService interface {
	SearchCustomers(ctx context.Context, text string) ([]Customer, error)
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	// CreateCustomer registers a customer. A duplicate tax id is refused with ErrConflict.
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
}

type customerService struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

const customerColumns = `id, first_name, last_name, COALESCE(tax_id, ''), email, phone, address, credit_limit, outstanding_balance, created_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.TaxID, &c.Email, &c.Phone, &c.Address,
		&c.CreditLimit, &c.OutstandingBalance, &c.CreatedAt)
	return c, err
}

func (s *customerService) SearchCustomers(ctx context.Context, text string) ([]Customer, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE lower(first_name || ' ' || last_name) LIKE $1
		   OR lower(COALESCE(tax_id, '')) LIKE $1
		   OR lower(phone) LIKE $1
		ORDER BY first_name, last_name
		LIMIT 100
	`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *customerService) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "customer %d not found", id)
		}
		return nil, fmt.Errorf("failed to get customer %d: %w", id, err)
	}
	return &c, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.TaxID = strings.ToUpper(strings.TrimSpace(in.TaxID))
	if in.FirstName == "" {
		return nil, refuse(ErrInvalidInput, "first name is required")
	}
	if in.CreditLimit.IsNegative() {
		return nil, refuse(ErrInvalidInput, "credit limit cannot be negative")
	}

	c, err := scanCustomer(s.pool.QueryRow(ctx, `
		INSERT INTO customers (first_name, last_name, tax_id, email, phone, address, credit_limit)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING `+customerColumns,
		in.FirstName, in.LastName, in.TaxID, strings.TrimSpace(in.Email), strings.TrimSpace(in.Phone),
		strings.TrimSpace(in.Address), in.CreditLimit))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, refuse(ErrConflict, "a customer with tax id %s already exists", in.TaxID)
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}
