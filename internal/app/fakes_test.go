package app_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/core"
	"pos-terminal/internal/pos"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func notFound(what string, id int) error {
	return &core.RequestError{Kind: core.ErrNotFound, Message: fmt.Sprintf("%s %d not found", what, id)}
}

type fakeCatalog struct {
	products map[int]core.Product
}

func (f *fakeCatalog) SearchProducts(_ context.Context, _ string, _ *int) ([]core.Product, error) {
	var out []core.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int) (*core.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, notFound("product", id)
	}
	return &p, nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]core.Category, error) {
	return []core.Category{{ID: 1, Name: "Food"}}, nil
}

type fakeCustomers struct {
	customers map[int]core.Customer
}

func (f *fakeCustomers) SearchCustomers(context.Context, string) ([]core.Customer, error) {
	return nil, nil
}

func (f *fakeCustomers) GetCustomer(_ context.Context, id int) (*core.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, notFound("customer", id)
	}
	return &c, nil
}

func (f *fakeCustomers) CreateCustomer(_ context.Context, in core.CustomerInput) (*core.Customer, error) {
	c := core.Customer{ID: len(f.customers) + 1, FirstName: in.FirstName, LastName: in.LastName, TaxID: in.TaxID}
	f.customers[c.ID] = c
	return &c, nil
}

type fakeMethods struct {
	methods map[int]core.PaymentMethod
}

func (f *fakeMethods) ListPaymentMethods(context.Context) ([]core.PaymentMethod, error) {
	var out []core.PaymentMethod
	for _, m := range f.methods {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMethods) GetPaymentMethod(_ context.Context, id int) (*core.PaymentMethod, error) {
	m, ok := f.methods[id]
	if !ok {
		return nil, notFound("payment method", id)
	}
	return &m, nil
}

type fakeSettings struct {
	settings *core.StoreSettings
	rate     *core.ExchangeRate
}

func (f *fakeSettings) LoadSettings(context.Context) (*core.StoreSettings, error) {
	if f.settings == nil {
		return nil, &core.RequestError{Kind: core.ErrNotFound, Message: "store settings not configured"}
	}
	return f.settings, nil
}

func (f *fakeSettings) LatestExchangeRate(context.Context) (*core.ExchangeRate, error) {
	if f.rate == nil {
		return nil, &core.RequestError{Kind: core.ErrNotFound, Message: "no exchange rate has been published"}
	}
	return f.rate, nil
}

func (f *fakeSettings) SetExchangeRate(_ context.Context, date time.Time, rate decimal.Decimal) (*core.ExchangeRate, error) {
	f.rate = &core.ExchangeRate{Date: date, Rate: rate}
	return f.rate, nil
}

type fakeDrafts struct {
	mu     sync.Mutex
	drafts map[int]*core.Draft
	nextID int
}

func (f *fakeDrafts) SaveDraft(_ context.Context, orderID *int, customerID int, lines []pos.LineItem) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID + 1
	if orderID != nil {
		id = *orderID
	} else {
		f.nextID = id
	}
	f.drafts[id] = &core.Draft{ID: id, CustomerID: customerID, CustomerName: "Ana Perez (V-123)", Lines: lines}
	return id, nil
}

func (f *fakeDrafts) LoadDraft(_ context.Context, id int) (*core.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[id]
	if !ok {
		return nil, notFound("order", id)
	}
	return d, nil
}

func (f *fakeDrafts) DeleteDraft(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.drafts[id]; !ok {
		return notFound("order", id)
	}
	delete(f.drafts, id)
	return nil
}

func (f *fakeDrafts) ListDrafts(context.Context) ([]core.DraftSummary, error) {
	return nil, nil
}

type fakeSales struct {
	mu         sync.Mutex
	err        error
	requests   []pos.FinalizeRequest
	operatorID int
	credit     []core.CreditPaymentInput
	creditRate decimal.Decimal
	listed     []core.Sale
	filter     core.SaleFilter
}

func (f *fakeSales) FinalizeSale(_ context.Context, operatorID int, req pos.FinalizeRequest) (*core.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	f.operatorID = operatorID
	sale := &core.Sale{ID: 100 + len(f.requests), Status: core.SaleCompleted, SubtotalBase: req.Totals.SubtotalBase}
	if req.IsCredit && req.Totals.BalanceDue.IsPositive() {
		sale.Status = core.SalePendingCredit
		sale.BalanceDue = req.Totals.BalanceDue
	}
	return sale, nil
}

func (f *fakeSales) GetSale(_ context.Context, id int) (*core.Sale, error) {
	return nil, notFound("sale", id)
}

func (f *fakeSales) ListSales(_ context.Context, filter core.SaleFilter) ([]core.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	return f.listed, nil
}

func (f *fakeSales) ListPendingCredit(context.Context) ([]core.Sale, error) { return nil, nil }

func (f *fakeSales) RecordCreditPayment(_ context.Context, in core.CreditPaymentInput, rate decimal.Decimal) (*core.CreditPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credit = append(f.credit, in)
	f.creditRate = rate
	return &core.CreditPayment{ID: 1, SaleID: in.SaleID, MethodID: in.MethodID, AmountBase: in.Amount, Rate: rate}, nil
}

type fakeReports struct{}

func (fakeReports) DailyClose(_ context.Context, day time.Time) (*core.DailyClose, error) {
	return &core.DailyClose{Day: day}, nil
}

type fakeOperators struct{}

func (fakeOperators) Authenticate(_ context.Context, username, password string) (*core.Operator, error) {
	if username == "maria" && password == "s3cret-pass" {
		return &core.Operator{ID: 7, Username: "maria", Role: core.RoleCashier, IsActive: true}, nil
	}
	return nil, core.ErrInvalidCredentials
}

func (fakeOperators) GetByID(_ context.Context, id int) (*core.Operator, error) {
	if id != 7 {
		return nil, notFound("operator", id)
	}
	return &core.Operator{ID: 7, Username: "maria", Role: core.RoleCashier, IsActive: true}, nil
}

func (fakeOperators) CreateOperator(context.Context, string, string, string) (*core.Operator, error) {
	return nil, fmt.Errorf("not supported")
}
