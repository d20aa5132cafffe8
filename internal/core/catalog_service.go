package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogService is the read side of the product catalog.
type CatalogService interface {
	// SearchProducts matches text against name and SKU (case-insensitive).
	// categoryID narrows the result when non-nil. Only active products are returned.
	SearchProducts(ctx context.Context, text string, categoryID *int) ([]Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

const productColumns = `p.id, p.sku, p.name, p.category_id, COALESCE(c.name, ''), p.price, p.image_url, p.is_active`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.CategoryName, &p.Price, &p.ImageURL, &p.IsActive)
	return p, err
}

func (s *catalogService) SearchProducts(ctx context.Context, text string, categoryID *int) ([]Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_active = true
		  AND (lower(p.name) LIKE $1 OR lower(p.sku) LIKE $1)
		  AND ($2::int IS NULL OR p.category_id = $2)
		ORDER BY p.name
		LIMIT 200
	`, pattern, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *catalogService) GetProduct(ctx context.Context, id int) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "product %d not found", id)
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
