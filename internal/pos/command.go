package pos

import (
	"context"

	"github.com/shopspring/decimal"
)

// Command is one operator action. Commands are the only way adapters mutate a
// terminal; the set is closed.
type Command interface {
	Kind() string
	apply(ctx context.Context, t *Terminal) (Snapshot, error)
}

type AddLine struct {
	ProductID    int             `json:"product_id"`
	Name         string          `json:"name"`
	CategoryName string          `json:"category_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type SetQuantity struct {
	ProductID int    `json:"product_id"`
	Quantity  string `json:"quantity"` // lenient: unparsable text counts as 0
}

type SetUnitPrice struct {
	ProductID int    `json:"product_id"`
	Price     string `json:"price"`
}

type SetDiscount struct {
	ProductID int    `json:"product_id"`
	Percent   string `json:"percent"`
}

type RemoveLine struct {
	ProductID int `json:"product_id"`
}

type SelectCustomer struct {
	Customer Customer `json:"customer"`
}

type ClearCustomer struct{}

type EnterPayment struct{}

type LeavePayment struct{}

type AddPayment struct {
	Method    PaymentMethod `json:"method"`
	Amount    string        `json:"amount"`
	Reference string        `json:"reference"`
}

type RemovePayment struct {
	Index int `json:"index"`
}

type Finalize struct {
	IsCredit bool `json:"is_credit"`
}

type SaveDraft struct{}

type LoadDraft struct {
	OrderID int `json:"order_id"`
}

type Reset struct{}

func (AddLine) Kind() string        { return "add_line" }
func (SetQuantity) Kind() string    { return "set_quantity" }
func (SetUnitPrice) Kind() string   { return "set_unit_price" }
func (SetDiscount) Kind() string    { return "set_discount" }
func (RemoveLine) Kind() string     { return "remove_line" }
func (SelectCustomer) Kind() string { return "select_customer" }
func (ClearCustomer) Kind() string  { return "clear_customer" }
func (EnterPayment) Kind() string   { return "enter_payment" }
func (LeavePayment) Kind() string   { return "leave_payment" }
func (AddPayment) Kind() string     { return "add_payment" }
func (RemovePayment) Kind() string  { return "remove_payment" }
func (Finalize) Kind() string       { return "finalize" }
func (SaveDraft) Kind() string      { return "save_draft" }
func (LoadDraft) Kind() string      { return "load_draft" }
func (Reset) Kind() string          { return "reset" }

func (c AddLine) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.AddLine(c.ProductID, c.Name, c.CategoryName, c.UnitPrice)
}

func (c SetQuantity) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.SetQuantity(c.ProductID, ParseQuantity(c.Quantity))
}

func (c SetUnitPrice) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	price, err := ParseAmount("price", c.Price)
	if err != nil {
		return t.Snapshot(), err
	}
	return t.SetUnitPrice(c.ProductID, price)
}

func (c SetDiscount) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	pct, err := ParseAmount("discount_percent", c.Percent)
	if err != nil {
		return t.Snapshot(), err
	}
	return t.SetDiscountPercent(c.ProductID, pct)
}

func (c RemoveLine) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.RemoveLine(c.ProductID)
}

func (c SelectCustomer) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.SelectCustomer(c.Customer)
}

func (ClearCustomer) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.ClearCustomer()
}

func (EnterPayment) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.EnterPayment()
}

func (LeavePayment) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.LeavePayment()
}

func (c AddPayment) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	amount, err := ParseAmount("amount", c.Amount)
	if err != nil {
		return t.Snapshot(), err
	}
	return t.AddPayment(c.Method, amount, c.Reference)
}

func (c RemovePayment) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.RemovePayment(c.Index)
}

func (c Finalize) apply(ctx context.Context, t *Terminal) (Snapshot, error) {
	return t.Finalize(ctx, c.IsCredit)
}

func (SaveDraft) apply(ctx context.Context, t *Terminal) (Snapshot, error) {
	return t.SaveDraft(ctx)
}

func (c LoadDraft) apply(ctx context.Context, t *Terminal) (Snapshot, error) {
	return t.LoadDraft(ctx, c.OrderID)
}

func (Reset) apply(_ context.Context, t *Terminal) (Snapshot, error) {
	return t.Reset(), nil
}
