package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"pos-terminal/migrations"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// setupTestDB migrates the test database, wipes it and seeds a small store:
// categories Food(1) and Hygiene(2), products 1..3, customers 1 (no credit
// limit) and 2 (limit 50), payment methods 1 Cash USD, 2 Cash VES, 3 Pago Movil.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE credit_payments, sale_payments, sale_lines, sales, order_lines, orders,
			products, categories, customers, payment_methods, exchange_rates, store_settings, operators
			RESTART IDENTITY CASCADE;

		INSERT INTO store_settings (name, tax_percent, igtf_percent) VALUES ('Test Store', 16, 3);

		INSERT INTO categories (name) VALUES ('Food'), ('Hygiene');

		INSERT INTO products (sku, name, category_id, price) VALUES
		('P-001', 'Harina PAN',  1, 10.00),
		('P-002', 'Jabon Azul',  2,  2.50),
		('P-003', 'Bolsa',    NULL,  0.00);

		INSERT INTO customers (first_name, last_name, tax_id, credit_limit) VALUES
		('Ana',  'Perez', 'V-123', 0),
		('Luis', 'Rojas', 'V-987', 50);

		INSERT INTO payment_methods (name, is_foreign_currency, requires_reference) VALUES
		('Cash USD',   true,  false),
		('Cash VES',   false, false),
		('Pago Movil', false, true);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}
	return pool
}
