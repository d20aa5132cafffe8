package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pos-terminal/internal/app"
	"pos-terminal/internal/core"
)

type stubService struct {
	app.ApplicationService

	deleted  int
	rateDay  time.Time
	rate     decimal.Decimal
	credit   app.CreditPaymentRequest
	password string
}

func (s *stubService) DeleteDraft(_ context.Context, id int) error {
	if id == 404 {
		return &core.RequestError{Kind: core.ErrNotFound, Message: "draft 404 not found"}
	}
	s.deleted = id
	return nil
}

func (s *stubService) SetExchangeRate(_ context.Context, day time.Time, rate decimal.Decimal) (*core.ExchangeRate, error) {
	s.rateDay, s.rate = day, rate
	return &core.ExchangeRate{Date: day, Rate: rate}, nil
}

func (s *stubService) RecordCreditPayment(_ context.Context, req app.CreditPaymentRequest) (*core.CreditPayment, error) {
	s.credit = req
	return &core.CreditPayment{SaleID: req.SaleID, AmountBase: decimal.RequireFromString("6")}, nil
}

func (s *stubService) CreateOperator(_ context.Context, username, password, role string) (*app.OperatorSession, error) {
	s.password = password
	return &app.OperatorSession{OperatorID: 3, Username: username, Role: role}, nil
}

func (s *stubService) DailyClose(_ context.Context, day time.Time) (*core.DailyClose, error) {
	return &core.DailyClose{
		Day:           day,
		SalesCount:    2,
		SubtotalBase:  decimal.RequireFromString("36.75"),
		CollectedBase: decimal.RequireFromString("30"),
		Payments: []core.MethodTotal{
			{MethodName: "Cash USD", Count: 1, AmountBase: decimal.RequireFromString("20"), EnteredAmount: decimal.RequireFromString("20")},
		},
	}, nil
}

func (s *stubService) CustomerSales(_ context.Context, id int) (*app.CustomerHistory, error) {
	if id == 404 {
		return nil, &core.RequestError{Kind: core.ErrNotFound, Message: "customer 404 not found"}
	}
	day := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return &app.CustomerHistory{
		Customer: core.Customer{ID: id, FirstName: "Ana", LastName: "Perez", TaxID: "V-123"},
		Sales: []core.Sale{
			{ID: 12, Status: core.SalePendingCredit, SubtotalBase: decimal.RequireFromString("10"), BalanceDue: decimal.RequireFromString("4.5"), CreatedAt: day},
			{ID: 9, Status: core.SaleCompleted, SubtotalBase: decimal.RequireFromString("26.75"), CreatedAt: day.AddDate(0, 0, -1)},
		},
		BalanceDue: decimal.RequireFromString("4.5"),
	}, nil
}

func runCLI(t *testing.T, svc *stubService, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), svc, args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestRun_UnknownAndMissingCommand(t *testing.T) {
	_, err := runCLI(t, &stubService{}, "")
	require.ErrorIs(t, err, ErrUsage)

	_, err = runCLI(t, &stubService{}, "", "explode")
	require.ErrorIs(t, err, ErrUsage)
	require.Contains(t, err.Error(), "explode")
}

func TestRun_DeleteDraft(t *testing.T) {
	svc := &stubService{}
	out, err := runCLI(t, svc, "", "delete-draft", "8")
	require.NoError(t, err)
	require.Equal(t, 8, svc.deleted)
	require.Contains(t, out, "Draft #8 deleted.")

	_, err = runCLI(t, svc, "", "delete-draft", "abc")
	require.ErrorIs(t, err, ErrUsage)

	_, err = runCLI(t, svc, "", "delete-draft", "404")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRun_SetRate(t *testing.T) {
	svc := &stubService{}
	out, err := runCLI(t, svc, "", "set-rate", "41.25", "2026-03-02")
	require.NoError(t, err)
	require.True(t, svc.rate.Equal(decimal.RequireFromString("41.25")))
	require.Equal(t, "2026-03-02", svc.rateDay.Format("2006-01-02"))
	require.Contains(t, out, "set to 41.25")

	_, err = runCLI(t, svc, "", "set-rate", "41.25", "03/02/2026")
	require.ErrorIs(t, err, ErrUsage)
}

func TestRun_CreditPayment(t *testing.T) {
	svc := &stubService{}
	out, err := runCLI(t, svc, "", "credit-payment", "5", "3", "240", "PM-99")
	require.NoError(t, err)
	require.Equal(t, app.CreditPaymentRequest{SaleID: 5, MethodID: 3, Amount: decimal.RequireFromString("240"), Reference: "PM-99"}, svc.credit)
	require.Contains(t, out, "Payment of 6.00 applied to sale #5.")
}

func TestRun_CreateOperatorReadsPassword(t *testing.T) {
	svc := &stubService{}
	out, err := runCLI(t, svc, "s3cret-pass\n", "create-operator", "maria", core.RoleCashier)
	require.NoError(t, err)
	require.Equal(t, "s3cret-pass", svc.password)
	require.Contains(t, out, "Operator #3 maria (cashier) created.")
}

func TestRun_DailyClose(t *testing.T) {
	out, err := runCLI(t, &stubService{}, "", "daily-close", "2026-03-02")
	require.NoError(t, err)
	require.Contains(t, out, "DAILY CLOSE  2026-03-02")
	require.Contains(t, out, "36.75")
	require.Contains(t, out, "Cash USD")
	require.Contains(t, out, "30.00")
}

func TestRun_CustomerSales(t *testing.T) {
	out, err := runCLI(t, &stubService{}, "", "customer-sales", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Purchase history for Ana Perez (V-123)")
	require.Contains(t, out, "pending_credit")
	require.Contains(t, out, "2026-03-01")
	require.Contains(t, out, "26.75")
	require.Contains(t, out, "Outstanding balance: 4.50")

	_, err = runCLI(t, &stubService{}, "", "customer-sales")
	require.ErrorIs(t, err, ErrUsage)

	_, err = runCLI(t, &stubService{}, "", "customer-sales", "404")
	require.ErrorIs(t, err, core.ErrNotFound)
}
