package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// OpenSession starts a terminal with an empty order for the operator. The
	// session's exchange rate, tax and IGTF percentages are fixed at this point.
	OpenSession(ctx context.Context, operatorID int) (*SessionResult, error)

	// Session returns the current snapshot of an open session.
	Session(ctx context.Context, sessionID string) (*SessionResult, error)

	// Execute resolves a command request against the catalog and applies it to the
	// session's terminal. The snapshot is returned even when the command fails.
	Execute(ctx context.Context, sessionID string, req CommandRequest) (*SessionResult, error)

	// CloseSession discards the session and its order.
	CloseSession(ctx context.Context, sessionID string) error

	// SearchProducts returns active products matching text, optionally within a category.
	SearchProducts(ctx context.Context, text string, categoryID *int) ([]core.Product, error)

	// ListCategories returns all product categories.
	ListCategories(ctx context.Context) ([]core.Category, error)

	// SearchCustomers returns customers whose name, tax id or phone matches text.
	SearchCustomers(ctx context.Context, text string) ([]core.Customer, error)

	// CreateCustomer registers a customer.
	CreateCustomer(ctx context.Context, in core.CustomerInput) (*core.Customer, error)

	// ListPaymentMethods returns the active tender types.
	ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error)

	// ListDrafts returns parked orders, most recently updated first.
	ListDrafts(ctx context.Context) ([]core.DraftSummary, error)

	// GetDraft returns a parked order with its lines.
	GetDraft(ctx context.Context, id int) (*core.Draft, error)

	// DeleteDraft removes a parked order.
	DeleteDraft(ctx context.Context, id int) error

	// ListSales returns finalized sales, newest first.
	ListSales(ctx context.Context, filter core.SaleFilter) ([]core.Sale, error)

	// CustomerSales returns a customer's purchase history. An unknown customer
	// is refused with ErrNotFound.
	CustomerSales(ctx context.Context, customerID int) (*CustomerHistory, error)

	// ListPendingCredit returns credit sales that still carry a balance due.
	ListPendingCredit(ctx context.Context) ([]core.Sale, error)

	// GetSale returns a sale with its lines, payments and credit payments.
	GetSale(ctx context.Context, id int) (*core.Sale, error)

	// RecordCreditPayment applies a payment to a pending credit sale at the current exchange rate.
	RecordCreditPayment(ctx context.Context, req CreditPaymentRequest) (*core.CreditPayment, error)

	// DailyClose returns the cash close report for day.
	DailyClose(ctx context.Context, day time.Time) (*core.DailyClose, error)

	// CurrentRate returns the exchange rate new sessions would open with.
	CurrentRate(ctx context.Context) (*RateResult, error)

	// SetExchangeRate publishes the rate for a day. Open sessions keep their rate.
	SetExchangeRate(ctx context.Context, day time.Time, rate decimal.Decimal) (*core.ExchangeRate, error)

	// AuthenticateOperator verifies credentials and returns the operator's identity.
	AuthenticateOperator(ctx context.Context, username, password string) (*OperatorSession, error)

	// GetOperator returns an operator profile by ID.
	GetOperator(ctx context.Context, operatorID int) (*OperatorSession, error)

	// CreateOperator registers an operator account.
	CreateOperator(ctx context.Context, username, password, role string) (*OperatorSession, error)
}
