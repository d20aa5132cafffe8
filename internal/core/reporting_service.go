package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pos-terminal/internal/pos"
)

// ── Report types ──────────────────────────────────────────────────────────────

// MethodTotal sums the money taken through one payment method.
// EnteredAmount is in the currency the method is tendered in.
type MethodTotal struct {
	MethodID          int             `json:"method_id"`
	MethodName        string          `json:"method_name"`
	IsForeignCurrency bool            `json:"is_foreign_currency"`
	Count             int             `json:"count"`
	AmountBase        decimal.Decimal `json:"amount_base"`
	EnteredAmount     decimal.Decimal `json:"entered_amount"`
}

// DailyClose is the end-of-day cash close for one calendar day.
type DailyClose struct {
	Day              time.Time       `json:"day"`
	SalesCount       int             `json:"sales_count"`
	CreditSalesCount int             `json:"credit_sales_count"`
	SubtotalBase     decimal.Decimal `json:"subtotal_base"`
	TaxBase          decimal.Decimal `json:"tax_base"`
	IGTFBase         decimal.Decimal `json:"igtf_base"`
	ChangeBase       decimal.Decimal `json:"change_base"`
	// OutstandingBase is what is still owed on the day's credit sales.
	OutstandingBase   decimal.Decimal `json:"outstanding_base"`
	Payments          []MethodTotal   `json:"payments"`
	CreditCollections []MethodTotal   `json:"credit_collections"`
	// CollectedBase is money in the drawer: counter payments plus credit
	// collections, less change handed back.
	CollectedBase decimal.Decimal `json:"collected_base"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only reporting queries over sales.
type ReportingService interface {
	DailyClose(ctx context.Context, day time.Time) (*DailyClose, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) DailyClose(ctx context.Context, day time.Time) (*DailyClose, error) {
	d := dateOnly(day)
	r := &DailyClose{Day: d}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_credit),
		       COALESCE(SUM(sub_total), 0),
		       COALESCE(SUM(tax_amount), 0),
		       COALESCE(SUM(igtf_amount), 0),
		       COALESCE(SUM(amount_change), 0),
		       COALESCE(SUM(balance_due), 0)
		FROM sales
		WHERE created_at::date = $1::date
	`, d).Scan(&r.SalesCount, &r.CreditSalesCount, &r.SubtotalBase, &r.TaxBase, &r.IGTFBase,
		&r.ChangeBase, &r.OutstandingBase)
	if err != nil {
		return nil, fmt.Errorf("failed to total sales for %s: %w", d.Format("2006-01-02"), err)
	}

	r.Payments, err = s.methodTotals(ctx, `
		SELECT pm.id, pm.name, pm.is_foreign_currency, COUNT(*), SUM(sp.amount_base), SUM(sp.entered_amount)
		FROM sale_payments sp
		JOIN sales s ON s.id = sp.sale_id
		JOIN payment_methods pm ON pm.id = sp.payment_method_id
		WHERE s.created_at::date = $1::date
		GROUP BY pm.id, pm.name, pm.is_foreign_currency
		ORDER BY pm.id
	`, d)
	if err != nil {
		return nil, err
	}

	r.CreditCollections, err = s.methodTotals(ctx, `
		SELECT pm.id, pm.name, pm.is_foreign_currency, COUNT(*), SUM(cp.amount_usd),
		       SUM(CASE WHEN pm.is_foreign_currency THEN cp.amount_usd ELSE cp.amount_ves END)
		FROM credit_payments cp
		JOIN payment_methods pm ON pm.id = cp.payment_method_id
		WHERE cp.created_at::date = $1::date
		GROUP BY pm.id, pm.name, pm.is_foreign_currency
		ORDER BY pm.id
	`, d)
	if err != nil {
		return nil, err
	}

	collected := decimal.Zero
	for _, m := range r.Payments {
		collected = collected.Add(m.AmountBase)
	}
	for _, m := range r.CreditCollections {
		collected = collected.Add(m.AmountBase)
	}
	r.CollectedBase = pos.Round2(collected.Sub(r.ChangeBase))
	return r, nil
}

func (s *reportingService) methodTotals(ctx context.Context, sql string, day time.Time) ([]MethodTotal, error) {
	rows, err := s.pool.Query(ctx, sql, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment totals: %w", err)
	}
	defer rows.Close()

	var totals []MethodTotal
	for rows.Next() {
		var m MethodTotal
		if err := rows.Scan(&m.MethodID, &m.MethodName, &m.IsForeignCurrency, &m.Count, &m.AmountBase, &m.EnteredAmount); err != nil {
			return nil, fmt.Errorf("failed to scan payment totals: %w", err)
		}
		totals = append(totals, m)
	}
	return totals, rows.Err()
}
