package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pos-terminal/internal/pos"
)

// SaleService closes orders as sales and settles credit sales afterwards.
type SaleService interface {
	// FinalizeSale persists a sale in one transaction: header, lines, payments,
	// the customer's outstanding balance for credit sales, and removal of the
	// draft it was loaded from. Totals and payments are re-validated against the lines.
	FinalizeSale(ctx context.Context, operatorID int, req pos.FinalizeRequest) (*Sale, error)
	GetSale(ctx context.Context, id int) (*Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error)
	ListPendingCredit(ctx context.Context) ([]Sale, error)
	// RecordCreditPayment applies a payment to a pending credit sale. Amounts in
	// local currency are converted with rate. Overpayment is refused.
	RecordCreditPayment(ctx context.Context, in CreditPaymentInput, rate decimal.Decimal) (*CreditPayment, error)
}

type saleService struct {
	pool *pgxpool.Pool
}

func NewSaleService(pool *pgxpool.Pool) SaleService {
	return &saleService{pool: pool}
}

// ── Finalize ─────────────────────────────────────────────────────────────────

func (s *saleService) FinalizeSale(ctx context.Context, operatorID int, req pos.FinalizeRequest) (*Sale, error) {
	if req.CustomerID <= 0 {
		return nil, refuse(ErrInvalidInput, "Please select a customer.")
	}
	if len(req.Lines) == 0 {
		return nil, refuse(ErrInvalidInput, "The cart is empty.")
	}
	t := req.Totals
	if t.ExchangeRate.IsNegative() {
		return nil, refuse(ErrInvalidInput, "exchange rate cannot be negative")
	}

	sum := decimal.Zero
	for _, l := range req.Lines {
		sum = sum.Add(l.Quantity.Mul(l.UnitPrice))
	}
	subtotal := pos.Round2(sum)
	if !subtotal.Equal(t.SubtotalBase) {
		return nil, refuse(ErrInvalidInput, "order total %s does not match its lines (%s)",
			pos.FormatMoney(t.SubtotalBase), pos.FormatMoney(subtotal))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var creditLimit, outstanding decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT credit_limit, outstanding_balance FROM customers WHERE id = $1 FOR UPDATE
	`, req.CustomerID).Scan(&creditLimit, &outstanding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "customer %d not found", req.CustomerID)
		}
		return nil, fmt.Errorf("failed to lock customer %d: %w", req.CustomerID, err)
	}

	// Rebuild the tender from the stored methods so amounts and the surcharge
	// are computed from authoritative flags.
	var tender pos.Tender
	for i, p := range req.Payments {
		m, err := getPaymentMethod(ctx, tx, p.MethodID)
		if err != nil {
			return nil, err
		}
		if _, err := tender.Add(m.POS(), p.EnteredAmount, p.Reference, t.ExchangeRate); err != nil {
			return nil, refuse(ErrInvalidInput, "payment %d: %s", i+1, err.Error())
		}
	}
	totals := tender.Totals(subtotal, t.IGTFPercent)
	if !req.IsCredit && !tender.CanFinalize(subtotal, t.IGTFPercent, false) {
		return nil, refuse(ErrInvalidInput, "The paid amount is less than the total.")
	}

	status := SaleCompleted
	balanceDue := decimal.Zero
	if req.IsCredit && totals.BalanceDueBase.IsPositive() {
		balanceDue = totals.BalanceDueBase
		status = SalePendingCredit
		if creditLimit.IsPositive() && outstanding.Add(balanceDue).GreaterThan(creditLimit) {
			return nil, refuse(ErrInvalidInput, "credit limit exceeded: outstanding %s plus %s is over the limit of %s",
				pos.FormatMoney(outstanding), pos.FormatMoney(balanceDue), pos.FormatMoney(creditLimit))
		}
		if _, err := tx.Exec(ctx, `
			UPDATE customers SET outstanding_balance = outstanding_balance + $2 WHERE id = $1
		`, req.CustomerID, balanceDue); err != nil {
			return nil, fmt.Errorf("failed to update customer balance: %w", err)
		}
	}

	var opID *int
	if operatorID > 0 {
		opID = &operatorID
	}
	var saleID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (customer_id, operator_id, status, is_credit, sub_total, total_ves, exchange_rate,
		                   tax_percentage, tax_amount, igtf_percentage, igtf_amount,
		                   amount_paid, amount_change, balance_due)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, req.CustomerID, opID, status, req.IsCredit, subtotal, pos.ToLocal(subtotal, t.ExchangeRate), t.ExchangeRate,
		t.TaxPercent, pos.Round2(subtotal.Mul(t.TaxPercent).Div(decimal.NewFromInt(100))),
		t.IGTFPercent, totals.SurchargeBase, totals.PaidBase, totals.ChangeBase, balanceDue).Scan(&saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}

	for i, l := range req.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO sale_lines (sale_id, product_id, product_name, quantity, unit_price, original_unit_price, discount_percent, line_total)
			VALUES ($1, $2, COALESCE(NULLIF($3, ''), (SELECT name FROM products WHERE id = $2), ''), $4, $5, $6, $7, $8)
		`, saleID, l.ProductID, l.Name, l.Quantity, l.UnitPrice, l.OriginalUnitPrice, l.DiscountPercent, l.Total())
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, refuse(ErrNotFound, "line %d: product %d not found", i+1, l.ProductID)
			}
			return nil, fmt.Errorf("failed to insert sale line %d: %w", i+1, err)
		}
	}

	for i, p := range tender.Payments() {
		_, err = tx.Exec(ctx, `
			INSERT INTO sale_payments (sale_id, payment_method_id, amount_base, entered_amount, reference)
			VALUES ($1, $2, $3, $4, $5)
		`, saleID, p.MethodID, p.AmountBase, p.EnteredAmount, p.Reference)
		if err != nil {
			return nil, fmt.Errorf("failed to insert payment %d: %w", i+1, err)
		}
	}

	if req.LoadedOrderID != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, *req.LoadedOrderID); err != nil {
			return nil, fmt.Errorf("failed to delete draft order %d: %w", *req.LoadedOrderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

const saleColumns = `s.id, s.customer_id, c.first_name, c.last_name, COALESCE(c.tax_id, ''), s.operator_id,
	s.status, s.is_credit, s.sub_total, s.total_ves, s.exchange_rate, s.tax_percentage, s.tax_amount,
	s.igtf_percentage, s.igtf_amount, s.amount_paid, s.amount_change, s.balance_due, s.created_at`

func scanSale(row pgx.Row) (Sale, error) {
	var sl Sale
	var c Customer
	err := row.Scan(&sl.ID, &sl.CustomerID, &c.FirstName, &c.LastName, &c.TaxID, &sl.OperatorID,
		&sl.Status, &sl.IsCredit, &sl.SubtotalBase, &sl.SubtotalLocal, &sl.ExchangeRate, &sl.TaxPercent, &sl.TaxBase,
		&sl.IGTFPercent, &sl.IGTFBase, &sl.PaidBase, &sl.ChangeBase, &sl.BalanceDue, &sl.CreatedAt)
	sl.CustomerName = c.DisplayText()
	return sl, err
}

func (s *saleService) GetSale(ctx context.Context, id int) (*Sale, error) {
	sl, err := scanSale(s.pool.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "sale %d not found", id)
		}
		return nil, fmt.Errorf("failed to get sale %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT product_id, product_name, quantity, unit_price, original_unit_price, discount_percent, line_total
		FROM sale_lines WHERE sale_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale lines: %w", err)
	}
	if sl.Lines, err = collectSaleLines(rows); err != nil {
		return nil, fmt.Errorf("failed to read sale lines: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT sp.payment_method_id, pm.name, sp.amount_base, sp.entered_amount, sp.reference
		FROM sale_payments sp
		JOIN payment_methods pm ON pm.id = sp.payment_method_id
		WHERE sp.sale_id = $1 ORDER BY sp.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale payments: %w", err)
	}
	if sl.Payments, err = collectSalePayments(rows); err != nil {
		return nil, fmt.Errorf("failed to read sale payments: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT cp.id, cp.sale_id, cp.payment_method_id, pm.name, cp.amount_usd, cp.amount_ves, cp.rate, cp.reference, cp.created_at
		FROM credit_payments cp
		JOIN payment_methods pm ON pm.id = cp.payment_method_id
		WHERE cp.sale_id = $1 ORDER BY cp.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit payments: %w", err)
	}
	if sl.CreditPayments, err = collectCreditPayments(rows); err != nil {
		return nil, fmt.Errorf("failed to read credit payments: %w", err)
	}
	return &sl, nil
}

// collectSaleLines drains rows and closes them. A read error that ends the
// iteration early is returned rather than yielding a truncated sale.
func collectSaleLines(rows pgx.Rows) ([]SaleLine, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SaleLine, error) {
		var l SaleLine
		err := row.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.OriginalUnitPrice,
			&l.DiscountPercent, &l.LineTotal)
		return l, err
	})
}

func collectSalePayments(rows pgx.Rows) ([]SalePayment, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SalePayment, error) {
		var p SalePayment
		err := row.Scan(&p.MethodID, &p.MethodName, &p.AmountBase, &p.EnteredAmount, &p.Reference)
		return p, err
	})
}

func collectCreditPayments(rows pgx.Rows) ([]CreditPayment, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CreditPayment, error) {
		var cp CreditPayment
		err := row.Scan(&cp.ID, &cp.SaleID, &cp.MethodID, &cp.MethodName, &cp.AmountBase, &cp.AmountLocal,
			&cp.Rate, &cp.Reference, &cp.CreatedAt)
		return cp, err
	})
}

func (s *saleService) ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	var day *time.Time
	if !filter.Day.IsZero() {
		d := dateOnly(filter.Day)
		day = &d
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+saleColumns+`
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE ($1 = '' OR s.status = $1)
		  AND ($2::date IS NULL OR s.created_at::date = $2::date)
		  AND ($4::int = 0 OR s.customer_id = $4::int)
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $3
	`, filter.Status, day, limit, filter.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		sl, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sl)
	}
	return sales, rows.Err()
}

func (s *saleService) ListPendingCredit(ctx context.Context) ([]Sale, error) {
	return s.ListSales(ctx, SaleFilter{Status: SalePendingCredit, Limit: 500})
}

// ── Credit payments ──────────────────────────────────────────────────────────

func (s *saleService) RecordCreditPayment(ctx context.Context, in CreditPaymentInput, rate decimal.Decimal) (*CreditPayment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var balanceDue decimal.Decimal
	var customerID int
	err = tx.QueryRow(ctx, `
		SELECT status, balance_due, customer_id FROM sales WHERE id = $1 FOR UPDATE
	`, in.SaleID).Scan(&status, &balanceDue, &customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "sale %d not found", in.SaleID)
		}
		return nil, fmt.Errorf("failed to lock sale %d: %w", in.SaleID, err)
	}
	if status != SalePendingCredit {
		return nil, refuse(ErrInvalidInput, "sale %d has no balance due", in.SaleID)
	}

	m, err := getPaymentMethod(ctx, tx, in.MethodID)
	if err != nil {
		return nil, err
	}
	var tender pos.Tender
	p, err := tender.Add(m.POS(), in.Amount, in.Reference, rate)
	if err != nil {
		return nil, refuse(ErrInvalidInput, "%s", err.Error())
	}
	if p.AmountBase.GreaterThan(balanceDue) {
		return nil, refuse(ErrInvalidInput, "payment of %s exceeds the balance due of %s",
			pos.FormatMoney(p.AmountBase), pos.FormatMoney(balanceDue))
	}
	amountLocal := p.EnteredAmount
	if m.IsForeignCurrency {
		amountLocal = pos.ToLocal(p.EnteredAmount, rate)
	}

	cp := CreditPayment{
		SaleID:      in.SaleID,
		MethodID:    m.ID,
		MethodName:  m.Name,
		AmountBase:  p.AmountBase,
		AmountLocal: amountLocal,
		Rate:        rate,
		Reference:   p.Reference,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO credit_payments (sale_id, payment_method_id, amount_usd, amount_ves, rate, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, cp.SaleID, cp.MethodID, cp.AmountBase, cp.AmountLocal, cp.Rate, cp.Reference).Scan(&cp.ID, &cp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert credit payment: %w", err)
	}

	remaining := pos.Round2(balanceDue.Sub(p.AmountBase))
	newStatus := SalePendingCredit
	if remaining.IsZero() {
		newStatus = SalePaid
	}
	if _, err := tx.Exec(ctx, `
		UPDATE sales SET balance_due = $2, status = $3, amount_paid = amount_paid + $4 WHERE id = $1
	`, in.SaleID, remaining, newStatus, p.AmountBase); err != nil {
		return nil, fmt.Errorf("failed to update sale %d: %w", in.SaleID, err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE customers SET outstanding_balance = GREATEST(outstanding_balance - $2, 0) WHERE id = $1
	`, customerID, p.AmountBase); err != nil {
		return nil, fmt.Errorf("failed to update customer balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit credit payment: %w", err)
	}
	return &cp, nil
}
