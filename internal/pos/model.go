package pos

import "github.com/shopspring/decimal"

// Status is the lifecycle state of the order held by a Terminal.
//
//	EMPTY → BUILDING → AWAITING_PAYMENT → FINALIZED (then reset to EMPTY)
//	AWAITING_PAYMENT → BUILDING on any cart or customer edit
type Status string

const (
	StatusEmpty           Status = "EMPTY"
	StatusBuilding        Status = "BUILDING"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusFinalized       Status = "FINALIZED"
)

// UncategorizedName is the summary bucket for lines without a category.
const UncategorizedName = "Uncategorized"

// LineItem is one product line of an order. Prices are in base currency.
// UnitPrice == OriginalUnitPrice * (1 - DiscountPercent/100) holds after every edit.
type LineItem struct {
	ProductID         int             `json:"product_id"`
	Name              string          `json:"name"`
	CategoryName      string          `json:"category_name"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	OriginalUnitPrice decimal.Decimal `json:"original_unit_price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
}

// Total is quantity × unit price rounded to cents. A zero quantity contributes nothing.
func (l LineItem) Total() decimal.Decimal {
	return Round2(l.Quantity.Mul(l.UnitPrice))
}

// PaymentMethod describes a tender type as published by the payment method catalog.
type PaymentMethod struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	RequiresReference bool   `json:"requires_reference"`
	IsForeignCurrency bool   `json:"is_foreign_currency"`
}

// Payment is one tender line. AmountBase is authoritative regardless of how
// the amount was entered; EnteredAmount keeps the operator's figure for receipts.
type Payment struct {
	MethodID          int             `json:"method_id"`
	MethodName        string          `json:"method_name"`
	AmountBase        decimal.Decimal `json:"amount_base"`
	EnteredAmount     decimal.Decimal `json:"entered_amount"`
	Reference         string          `json:"reference,omitempty"`
	IsForeignCurrency bool            `json:"is_foreign_currency"`
}

// Customer is the minimal customer reference the engine needs.
type Customer struct {
	ID          int    `json:"id"`
	DisplayText string `json:"display_text"`
}

// Settings are fixed for the lifetime of a terminal session.
type Settings struct {
	ExchangeRate decimal.Decimal // base → local
	TaxPercent   decimal.Decimal // flat, prices are tax-inclusive
	IGTFPercent  decimal.Decimal // surcharge on tenders made directly in base currency
}

// Order is the single in-memory order document owned by a Terminal.
type Order struct {
	Customer      *Customer
	Cart          Cart
	Tender        Tender
	LoadedOrderID *int
	Status        Status
}
