package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pos-terminal/internal/pos"
)

// DraftService parks and restores in-progress orders.
type DraftService interface {
	// SaveDraft stores lines for customerID. With a nil orderID a new draft is
	// created; otherwise the existing draft is overwritten. Returns the draft id.
	SaveDraft(ctx context.Context, orderID *int, customerID int, lines []pos.LineItem) (int, error)
	LoadDraft(ctx context.Context, id int) (*Draft, error)
	DeleteDraft(ctx context.Context, id int) error
	ListDrafts(ctx context.Context) ([]DraftSummary, error)
}

type draftService struct {
	pool *pgxpool.Pool
}

func NewDraftService(pool *pgxpool.Pool) DraftService {
	return &draftService{pool: pool}
}

func (s *draftService) SaveDraft(ctx context.Context, orderID *int, customerID int, lines []pos.LineItem) (int, error) {
	if customerID <= 0 {
		return 0, refuse(ErrInvalidInput, "Please select a customer before saving an order.")
	}
	if len(lines) == 0 {
		return 0, refuse(ErrInvalidInput, "Cannot save an empty order.")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := customerExists(ctx, tx, customerID); err != nil {
		return 0, err
	}

	var id int
	if orderID != nil {
		err = tx.QueryRow(ctx, `
			UPDATE orders SET customer_id = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id
		`, *orderID, customerID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, refuse(ErrNotFound, "order %d not found", *orderID)
			}
			return 0, fmt.Errorf("failed to update order %d: %w", *orderID, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, id); err != nil {
			return 0, fmt.Errorf("failed to clear lines of order %d: %w", id, err)
		}
	} else {
		err = tx.QueryRow(ctx, `INSERT INTO orders (customer_id) VALUES ($1) RETURNING id`, customerID).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert order: %w", err)
		}
	}

	for i, l := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, product_id, quantity, unit_price, original_unit_price, discount_percent)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, l.ProductID, l.Quantity, l.UnitPrice, l.OriginalUnitPrice, l.DiscountPercent)
		if err != nil {
			if isForeignKeyViolation(err) {
				return 0, refuse(ErrNotFound, "line %d: product %d not found", i+1, l.ProductID)
			}
			return 0, fmt.Errorf("failed to insert order line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit order: %w", err)
	}
	return id, nil
}

func (s *draftService) LoadDraft(ctx context.Context, id int) (*Draft, error) {
	var d Draft
	var c Customer
	err := s.pool.QueryRow(ctx, `
		SELECT o.id, o.customer_id, c.first_name, c.last_name, COALESCE(c.tax_id, ''), o.created_at, o.updated_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1
	`, id).Scan(&d.ID, &d.CustomerID, &c.FirstName, &c.LastName, &c.TaxID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "order %d not found", id)
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	d.CustomerName = c.DisplayText()

	rows, err := s.pool.Query(ctx, `
		SELECT l.product_id, p.name, COALESCE(cat.name, ''), l.quantity, l.unit_price, l.original_unit_price, l.discount_percent
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		LEFT JOIN categories cat ON cat.id = p.category_id
		WHERE l.order_id = $1
		ORDER BY l.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of order %d: %w", id, err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var l pos.LineItem
		if err := rows.Scan(&l.ProductID, &l.Name, &l.CategoryName, &l.Quantity, &l.UnitPrice,
			&l.OriginalUnitPrice, &l.DiscountPercent); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		sum = sum.Add(l.Quantity.Mul(l.UnitPrice))
		d.Lines = append(d.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines of order %d: %w", id, err)
	}
	d.Total = pos.Round2(sum)
	return &d, nil
}

func (s *draftService) DeleteDraft(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return refuse(ErrNotFound, "order %d not found", id)
	}
	return nil
}

func (s *draftService) ListDrafts(ctx context.Context) ([]DraftSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.customer_id, c.first_name, c.last_name, COALESCE(c.tax_id, ''),
		       COUNT(l.id), COALESCE(SUM(l.quantity * l.unit_price), 0), o.updated_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		LEFT JOIN order_lines l ON l.order_id = o.id
		GROUP BY o.id, c.id
		ORDER BY o.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var drafts []DraftSummary
	for rows.Next() {
		var d DraftSummary
		var c Customer
		if err := rows.Scan(&d.ID, &d.CustomerID, &c.FirstName, &c.LastName, &c.TaxID,
			&d.LineCount, &d.Total, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		d.CustomerName = c.DisplayText()
		d.Total = pos.Round2(d.Total)
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

func customerExists(ctx context.Context, q pgxQuerier, id int) error {
	var found int
	err := q.QueryRow(ctx, `SELECT id FROM customers WHERE id = $1`, id).Scan(&found)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return refuse(ErrNotFound, "customer %d not found", id)
		}
		return fmt.Errorf("failed to resolve customer %d: %w", id, err)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
