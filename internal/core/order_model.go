package core

import (
	"time"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/pos"
)

// Draft is a parked order. Lines carry names and categories joined from the
// catalog so they can be loaded straight back into a terminal.
type Draft struct {
	ID           int             `json:"id"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Lines        []pos.LineItem  `json:"lines"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// DraftSummary is one row of the draft order list.
type DraftSummary struct {
	ID           int             `json:"id"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	LineCount    int             `json:"line_count"`
	Total        decimal.Decimal `json:"total"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Sale statuses.
//
//	completed       cash sale, fully paid at the counter
//	pending_credit  credit sale with a balance due
//	paid            credit sale settled by later credit payments
const (
	SaleCompleted     = "completed"
	SalePendingCredit = "pending_credit"
	SalePaid          = "paid"
)

// Sale is a finalized order. Amounts are in base currency unless suffixed Local.
type Sale struct {
	ID             int             `json:"id"`
	CustomerID     int             `json:"customer_id"`
	CustomerName   string          `json:"customer_name"` // joined from customers
	OperatorID     *int            `json:"operator_id,omitempty"`
	Status         string          `json:"status"`
	IsCredit       bool            `json:"is_credit"`
	SubtotalBase   decimal.Decimal `json:"subtotal_base"`
	SubtotalLocal  decimal.Decimal `json:"subtotal_local"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	TaxPercent     decimal.Decimal `json:"tax_percent"`
	TaxBase        decimal.Decimal `json:"tax_base"`
	IGTFPercent    decimal.Decimal `json:"igtf_percent"`
	IGTFBase       decimal.Decimal `json:"igtf_base"`
	PaidBase       decimal.Decimal `json:"paid_base"`
	ChangeBase     decimal.Decimal `json:"change_base"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	CreatedAt      time.Time       `json:"created_at"`
	Lines          []SaleLine      `json:"lines,omitempty"`
	Payments       []SalePayment   `json:"payments,omitempty"`
	CreditPayments []CreditPayment `json:"credit_payments,omitempty"`
}

// SaleLine is a product line of a sale, frozen at finalize time.
type SaleLine struct {
	ProductID         int             `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	OriginalUnitPrice decimal.Decimal `json:"original_unit_price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	LineTotal         decimal.Decimal `json:"line_total"`
}

// SalePayment is a tender collected at the counter.
type SalePayment struct {
	MethodID      int             `json:"method_id"`
	MethodName    string          `json:"method_name"`
	AmountBase    decimal.Decimal `json:"amount_base"`
	EnteredAmount decimal.Decimal `json:"entered_amount"`
	Reference     string          `json:"reference,omitempty"`
}

// CreditPayment is a later payment against a credit sale, recorded in both currencies.
type CreditPayment struct {
	ID          int             `json:"id"`
	SaleID      int             `json:"sale_id"`
	MethodID    int             `json:"method_id"`
	MethodName  string          `json:"method_name"`
	AmountBase  decimal.Decimal `json:"amount_base"`
	AmountLocal decimal.Decimal `json:"amount_local"`
	Rate        decimal.Decimal `json:"rate"`
	Reference   string          `json:"reference,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreditPaymentInput records money received against a pending credit sale.
// Amount is in base currency for foreign-currency methods, local otherwise.
type CreditPaymentInput struct {
	SaleID    int             `json:"sale_id"`
	MethodID  int             `json:"method_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// SaleFilter narrows ListSales. Zero values mean no restriction.
type SaleFilter struct {
	Status     string
	Day        time.Time
	CustomerID int
	Limit      int
}
