package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/pos"
)

// Category groups products for browsing and for the order summary.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog item. Price is in base currency, tax included.
type Product struct {
	ID           int             `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	CategoryID   *int            `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name"` // joined from categories
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url,omitempty"`
	IsActive     bool            `json:"is_active"`
}

// Customer is a buyer. OutstandingBalance is the unpaid total of credit sales.
type Customer struct {
	ID                 int             `json:"id"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	TaxID              string          `json:"tax_id"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	Address            string          `json:"address"`
	CreditLimit        decimal.Decimal `json:"credit_limit"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	CreatedAt          time.Time       `json:"created_at"`
}

// DisplayText is how the customer is shown on the terminal: "First Last (TAXID)".
func (c Customer) DisplayText() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if c.TaxID == "" {
		return name
	}
	return name + " (" + c.TaxID + ")"
}

// CustomerInput holds the fields accepted when registering a customer.
type CustomerInput struct {
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	TaxID       string          `json:"tax_id"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// PaymentMethod is a tender type. Foreign-currency methods are entered in base
// currency and attract the IGTF surcharge; the rest are entered in local currency.
type PaymentMethod struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	IsForeignCurrency bool   `json:"is_foreign_currency"`
	RequiresReference bool   `json:"requires_reference"`
}

// StoreSettings is the single store configuration row.
type StoreSettings struct {
	Name        string          `json:"name"`
	TaxID       string          `json:"tax_id"`
	Address     string          `json:"address"`
	TaxPercent  decimal.Decimal `json:"tax_percent"`
	IGTFPercent decimal.Decimal `json:"igtf_percent"`
}

// ExchangeRate is the base → local rate published for one day.
type ExchangeRate struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// POS converts the method into the terminal's tender type.
func (m PaymentMethod) POS() pos.PaymentMethod {
	return pos.PaymentMethod{
		ID:                m.ID,
		Name:              m.Name,
		RequiresReference: m.RequiresReference,
		IsForeignCurrency: m.IsForeignCurrency,
	}
}
