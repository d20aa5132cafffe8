package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentMethodService lists the active tender types.
type PaymentMethodService interface {
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, id int) (*PaymentMethod, error)
}

type paymentMethodService struct {
	pool *pgxpool.Pool
}

func NewPaymentMethodService(pool *pgxpool.Pool) PaymentMethodService {
	return &paymentMethodService{pool: pool}
}

func (s *paymentMethodService) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, is_foreign_currency, requires_reference
		FROM payment_methods
		WHERE is_active = true
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	var methods []PaymentMethod
	for rows.Next() {
		var m PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.IsForeignCurrency, &m.RequiresReference); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (s *paymentMethodService) GetPaymentMethod(ctx context.Context, id int) (*PaymentMethod, error) {
	return getPaymentMethod(ctx, s.pool, id)
}

func getPaymentMethod(ctx context.Context, q pgxQuerier, id int) (*PaymentMethod, error) {
	var m PaymentMethod
	err := q.QueryRow(ctx, `
		SELECT id, name, is_foreign_currency, requires_reference
		FROM payment_methods
		WHERE id = $1 AND is_active = true
	`, id).Scan(&m.ID, &m.Name, &m.IsForeignCurrency, &m.RequiresReference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "payment method %d not found", id)
		}
		return nil, fmt.Errorf("failed to get payment method %d: %w", id, err)
	}
	return &m, nil
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
