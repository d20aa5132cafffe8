package app

import "github.com/shopspring/decimal"

// CommandRequest is an operator action as submitted by an adapter. Only the
// fields relevant to Kind are read. Product, customer and payment method ids
// are resolved against the database before the command reaches the terminal,
// so names, prices and method flags never come from the client.
//
//	add_line        ProductID
//	set_quantity    ProductID, Quantity
//	set_unit_price  ProductID, Price
//	set_discount    ProductID, Percent
//	remove_line     ProductID
//	select_customer CustomerID
//	clear_customer
//	enter_payment
//	leave_payment
//	add_payment     MethodID, Amount, Reference
//	remove_payment  Index (zero-based)
//	finalize        IsCredit
//	save_draft
//	load_draft      OrderID
//	reset
type CommandRequest struct {
	Kind       string `json:"kind"`
	ProductID  int    `json:"product_id,omitempty"`
	Quantity   string `json:"quantity,omitempty"`
	Price      string `json:"price,omitempty"`
	Percent    string `json:"percent,omitempty"`
	CustomerID int    `json:"customer_id,omitempty"`
	MethodID   int    `json:"method_id,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Reference  string `json:"reference,omitempty"`
	Index      int    `json:"index,omitempty"`
	OrderID    int    `json:"order_id,omitempty"`
	IsCredit   bool   `json:"is_credit,omitempty"`
}

// CreditPaymentRequest is money received against a pending credit sale.
// Amount is in base currency for foreign-currency methods, local otherwise.
type CreditPaymentRequest struct {
	SaleID    int
	MethodID  int
	Amount    decimal.Decimal
	Reference string
}
