package pos

import (
	"context"

	"github.com/shopspring/decimal"
)

// Backend is the persistence collaborator the terminal calls at the network
// boundary. A returned error is a transport failure; a result with
// Success == false is a refusal carrying a message for the operator.
type Backend interface {
	FinalizeSale(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error)
	SaveDraft(ctx context.Context, req SaveDraftRequest) (*SaveDraftResult, error)
	LoadDraft(ctx context.Context, orderID int) (*LoadDraftResult, error)
}

// Totals are the figures submitted with a finalized sale, all rounded.
type Totals struct {
	SubtotalBase  decimal.Decimal `json:"subtotal_base"`
	SubtotalLocal decimal.Decimal `json:"subtotal_local"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	TaxBase       decimal.Decimal `json:"tax_base"`
	IGTFPercent   decimal.Decimal `json:"igtf_percent"`
	SurchargeBase decimal.Decimal `json:"surcharge_base"`
	PaidBase      decimal.Decimal `json:"paid_base"`
	RemainingBase decimal.Decimal `json:"remaining_base"`
	ChangeBase    decimal.Decimal `json:"change_base"`
	// BalanceDue is what a credit sale leaves owed; zero for a cash sale.
	BalanceDue decimal.Decimal `json:"balance_due"`
}

// FinalizeRequest closes an order as a cash or credit sale.
type FinalizeRequest struct {
	CustomerID    int        `json:"customer_id"`
	Totals        Totals     `json:"totals"`
	Lines         []LineItem `json:"lines"`
	Payments      []Payment  `json:"payments"`
	IsCredit      bool       `json:"is_credit"`
	LoadedOrderID *int       `json:"loaded_order_id,omitempty"`
}

// FinalizeResult is the backend's answer to FinalizeRequest.
type FinalizeResult struct {
	Success bool   `json:"success"`
	SaleID  int    `json:"sale_id,omitempty"`
	Message string `json:"message"`
}

// SaveDraftRequest parks an order. OrderID is set when the order was loaded
// from an existing draft, which is then overwritten.
type SaveDraftRequest struct {
	OrderID    *int       `json:"order_id,omitempty"`
	CustomerID int        `json:"customer_id"`
	Lines      []LineItem `json:"lines"`
}

// SaveDraftResult is the backend's answer to SaveDraftRequest.
type SaveDraftResult struct {
	Success bool   `json:"success"`
	OrderID int    `json:"order_id,omitempty"`
	Message string `json:"message"`
}

// LoadDraftResult carries a parked order back into the terminal.
type LoadDraftResult struct {
	Success  bool       `json:"success"`
	Customer *Customer  `json:"customer,omitempty"`
	Lines    []LineItem `json:"lines"`
	Message  string     `json:"message,omitempty"`
}
