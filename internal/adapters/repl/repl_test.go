package repl

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pos-terminal/internal/app"
	"pos-terminal/internal/core"
	"pos-terminal/internal/pos"
)

// recorder captures the commands a console sends; unimplemented calls panic.
type recorder struct {
	app.ApplicationService

	requests []app.CommandRequest
	created  *core.CustomerInput
	closed   bool
	fail     error
}

func (r *recorder) OpenSession(context.Context, int) (*app.SessionResult, error) {
	return &app.SessionResult{SessionID: "s1", Snapshot: pos.Snapshot{
		Status:       pos.StatusEmpty,
		ExchangeRate: decimal.RequireFromString("40"),
		TaxPercent:   decimal.RequireFromString("16"),
		IGTFPercent:  decimal.RequireFromString("3"),
	}}, nil
}

func (r *recorder) CloseSession(context.Context, string) error {
	r.closed = true
	return nil
}

func (r *recorder) Execute(_ context.Context, id string, req app.CommandRequest) (*app.SessionResult, error) {
	r.requests = append(r.requests, req)
	if r.fail != nil {
		return nil, r.fail
	}
	snap := pos.Snapshot{Status: pos.StatusBuilding}
	if req.Kind == "finalize" {
		snap = pos.Snapshot{Status: pos.StatusEmpty, Outcome: &pos.Outcome{Kind: pos.OutcomeSale, ReferenceID: 9, Message: "Sale #9 recorded."}}
	}
	return &app.SessionResult{SessionID: id, Snapshot: snap}, nil
}

func (r *recorder) CreateCustomer(_ context.Context, in core.CustomerInput) (*core.Customer, error) {
	r.created = &in
	return &core.Customer{ID: 12, FirstName: in.FirstName, LastName: in.LastName, TaxID: in.TaxID}, nil
}

func run(t *testing.T, svc *recorder, input string) string {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), svc, bufio.NewReader(strings.NewReader(input)), &out)
	require.NoError(t, err)
	return out.String()
}

func TestRun_MapsSlashCommands(t *testing.T) {
	svc := &recorder{}
	out := run(t, svc, strings.Join([]string{
		"/add 1",
		"/qty 1 2.5",
		"/disc 1 10",
		"/customer 4",
		"/pay",
		"/tender 3 100 REF-7",
		"/untender 1",
		"/finalize",
		"/exit",
	}, "\n")+"\n")

	require.Equal(t, []app.CommandRequest{
		{Kind: "add_line", ProductID: 1},
		{Kind: "set_quantity", ProductID: 1, Quantity: "2.5"},
		{Kind: "set_discount", ProductID: 1, Percent: "10"},
		{Kind: "select_customer", CustomerID: 4},
		{Kind: "enter_payment"},
		{Kind: "add_payment", MethodID: 3, Amount: "100", Reference: "REF-7"},
		{Kind: "remove_payment", Index: 0},
		{Kind: "finalize"},
	}, svc.requests)
	require.Contains(t, out, "Sale #9 recorded.")
	require.Contains(t, out, "Goodbye!")
	require.True(t, svc.closed)
}

func TestRun_UsageErrorsSendNothing(t *testing.T) {
	svc := &recorder{}
	out := run(t, svc, "/add\n/qty x 2\n/tender 1\nplain text\n/bogus\n")

	require.Empty(t, svc.requests)
	require.Contains(t, out, "Usage: /add <product-id>")
	require.Contains(t, out, "Not a number: x")
	require.Contains(t, out, "Commands start with '/'")
	require.Contains(t, out, "Unknown command: /bogus")
}

func TestRun_ReportsValidationMessage(t *testing.T) {
	svc := &recorder{fail: &pos.ValidationError{Field: "quantity", Message: "quantity must be greater than zero"}}
	out := run(t, svc, "/qty 1 0\n")
	require.Contains(t, out, "Error: quantity must be greater than zero")
}

func TestRun_CollaboratorFailureShowsGenericMessage(t *testing.T) {
	svc := &recorder{fail: &pos.CollaboratorError{Op: "finalize_sale", Err: context.DeadlineExceeded}}
	out := run(t, svc, "/finalize\n")
	require.Contains(t, out, "Error: "+(&pos.CollaboratorError{}).UserMessage())
}

func TestRun_CreditFinalizeAndDrafts(t *testing.T) {
	svc := &recorder{}
	run(t, svc, "/credit\n/save\n/load 5\n/reset\n/back\n")
	require.Equal(t, []app.CommandRequest{
		{Kind: "finalize", IsCredit: true},
		{Kind: "save_draft"},
		{Kind: "load_draft", OrderID: 5},
		{Kind: "reset"},
		{Kind: "leave_payment"},
	}, svc.requests)
}

func TestNewCustomerWizard_CreatesAndSelects(t *testing.T) {
	svc := &recorder{}
	out := run(t, svc, "/new-customer\nAna\nPerez\nV-123\n\n\n25\n")

	require.NotNil(t, svc.created)
	require.Equal(t, "Ana", svc.created.FirstName)
	require.Equal(t, "V-123", svc.created.TaxID)
	require.True(t, decimal.RequireFromString("25").Equal(svc.created.CreditLimit))
	require.Equal(t, []app.CommandRequest{{Kind: "select_customer", CustomerID: 12}}, svc.requests)
	require.Contains(t, out, "Customer #12 created")
}

func TestNewCustomerWizard_Cancel(t *testing.T) {
	svc := &recorder{}
	out := run(t, svc, "/new-customer\nAna\ncancel\n")
	require.Nil(t, svc.created)
	require.Empty(t, svc.requests)
	require.Contains(t, out, "Customer creation cancelled.")
}
