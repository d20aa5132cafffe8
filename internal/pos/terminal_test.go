package pos_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pos-terminal/internal/pos"
)

// fakeBackend records requests and can hold a call open until released.
type fakeBackend struct {
	mu sync.Mutex

	finalizeReqs   []pos.FinalizeRequest
	finalizeResult *pos.FinalizeResult
	finalizeErr    error

	saveReqs   []pos.SaveDraftRequest
	saveResult *pos.SaveDraftResult

	drafts map[int]*pos.LoadDraftResult

	gate     chan struct{} // finalize and save wait on it when set
	loadGate map[int]chan struct{}
	entered  chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		finalizeResult: &pos.FinalizeResult{Success: true, SaleID: 101, Message: "Sale completed successfully"},
		saveResult:     &pos.SaveDraftResult{Success: true, OrderID: 7, Message: "Order saved"},
		drafts:         map[int]*pos.LoadDraftResult{},
		loadGate:       map[int]chan struct{}{},
		entered:        make(chan struct{}, 4),
	}
}

func (f *fakeBackend) wait(gate chan struct{}) {
	if gate == nil {
		return
	}
	f.entered <- struct{}{}
	<-gate
}

func (f *fakeBackend) FinalizeSale(_ context.Context, req pos.FinalizeRequest) (*pos.FinalizeResult, error) {
	f.mu.Lock()
	f.finalizeReqs = append(f.finalizeReqs, req)
	gate, res, err := f.gate, f.finalizeResult, f.finalizeErr
	f.mu.Unlock()
	f.wait(gate)
	return res, err
}

func (f *fakeBackend) SaveDraft(_ context.Context, req pos.SaveDraftRequest) (*pos.SaveDraftResult, error) {
	f.mu.Lock()
	f.saveReqs = append(f.saveReqs, req)
	gate, res := f.gate, f.saveResult
	f.mu.Unlock()
	f.wait(gate)
	return res, nil
}

func (f *fakeBackend) LoadDraft(_ context.Context, orderID int) (*pos.LoadDraftResult, error) {
	f.mu.Lock()
	gate := f.loadGate[orderID]
	res, ok := f.drafts[orderID]
	f.mu.Unlock()
	f.wait(gate)
	if !ok {
		return &pos.LoadDraftResult{Success: false, Message: "Order not found"}, nil
	}
	return res, nil
}

func newTerminal(t *testing.T, backend pos.Backend) *pos.Terminal {
	t.Helper()
	term, err := pos.NewTerminal(backend, pos.Settings{
		ExchangeRate: dec("40"),
		TaxPercent:   dec("16"),
		IGTFPercent:  dec("3"),
	})
	if err != nil {
		t.Fatalf("NewTerminal: %v", err)
	}
	return term
}

// readyToPay builds a 20.00 order for customer 5 and opens the payment step.
func readyToPay(t *testing.T, term *pos.Terminal) {
	t.Helper()
	ctx := context.Background()
	steps := []pos.Command{
		pos.AddLine{ProductID: 1, Name: "Queso", CategoryName: "Food", UnitPrice: dec("10.00")},
		pos.SetQuantity{ProductID: 1, Quantity: "2"},
		pos.SelectCustomer{Customer: pos.Customer{ID: 5, DisplayText: "Ana Perez (V-123)"}},
		pos.EnterPayment{},
	}
	for _, cmd := range steps {
		if _, err := term.Apply(ctx, cmd); err != nil {
			t.Fatalf("%s: %v", cmd.Kind(), err)
		}
	}
}

func TestTerminal_CashSale(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	term := newTerminal(t, backend)
	readyToPay(t, term)

	snap, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "15.00"})
	if err != nil {
		t.Fatal(err)
	}
	if !snap.RemainingBase.Equal(dec("5.00")) {
		t.Errorf("remaining = %s, want 5.00", snap.RemainingBase)
	}
	snap, err = term.Apply(ctx, pos.AddPayment{Method: cashVES, Amount: "200.00"})
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Payments[1].AmountBase.Equal(dec("5.00")) || !snap.RemainingBase.IsZero() || !snap.ChangeBase.IsZero() {
		t.Errorf("after local tender: %+v", snap)
	}
	if !snap.CanFinalize {
		t.Fatalf("expected CanFinalize")
	}

	snap, err = term.Apply(ctx, pos.Finalize{})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if snap.Outcome == nil || snap.Outcome.Kind != pos.OutcomeSale || snap.Outcome.ReferenceID != 101 {
		t.Errorf("outcome = %+v", snap.Outcome)
	}
	if snap.Status != pos.StatusEmpty || len(snap.Lines) != 0 || len(snap.Payments) != 0 || snap.Customer != nil {
		t.Errorf("terminal should start a fresh order, got %+v", snap)
	}

	if len(backend.finalizeReqs) != 1 {
		t.Fatalf("expected one finalize request, got %d", len(backend.finalizeReqs))
	}
	req := backend.finalizeReqs[0]
	if req.CustomerID != 5 || req.IsCredit || len(req.Lines) != 1 || len(req.Payments) != 2 {
		t.Errorf("request = %+v", req)
	}
	if !req.Totals.SubtotalBase.Equal(dec("20.00")) || !req.Totals.SubtotalLocal.Equal(dec("800.00")) {
		t.Errorf("totals = %+v", req.Totals)
	}
	if !req.Totals.SurchargeBase.Equal(dec("0.45")) || !req.Totals.TaxBase.Equal(dec("3.20")) {
		t.Errorf("surcharge/tax = %s/%s", req.Totals.SurchargeBase, req.Totals.TaxBase)
	}
}

func TestTerminal_CreditSaleIgnoresShortfall(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	term := newTerminal(t, backend)
	readyToPay(t, term)

	if _, err := term.Apply(ctx, pos.AddPayment{Method: cashVES, Amount: "400"}); err != nil {
		t.Fatal(err)
	}

	snap, err := term.Apply(ctx, pos.Finalize{IsCredit: false})
	var ve *pos.ValidationError
	if !errors.As(err, &ve) || !errors.Is(err, pos.ErrInsufficientPayment) {
		t.Fatalf("expected insufficient payment validation error, got %v", err)
	}
	if ve.Message == "" || snap.Status != pos.StatusAwaitingPayment || len(snap.Payments) != 1 {
		t.Errorf("refused finalize must leave the order untouched: %+v", snap)
	}
	if len(backend.finalizeReqs) != 0 {
		t.Errorf("backend must not be called on a refused finalize")
	}

	snap, err = term.Apply(ctx, pos.Finalize{IsCredit: true})
	if err != nil {
		t.Fatalf("credit finalize: %v", err)
	}
	if !snap.Outcome.IsCredit {
		t.Errorf("outcome should be a credit sale")
	}
	req := backend.finalizeReqs[0]
	if !req.IsCredit || !req.Totals.RemainingBase.Equal(dec("10.00")) {
		t.Errorf("request = %+v", req)
	}
	if !req.Totals.BalanceDue.Equal(dec("10.00")) {
		t.Errorf("balance due = %s, want 10.00", req.Totals.BalanceDue)
	}
}

func TestTerminal_CreditBalanceCountsSurcharge(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	term := newTerminal(t, backend)
	readyToPay(t, term)

	snap, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "10"})
	if err != nil {
		t.Fatal(err)
	}
	if !snap.RemainingBase.Equal(dec("10.00")) || !snap.BalanceDueBase.Equal(dec("9.70")) || snap.CanFinalize {
		t.Fatalf("remaining %s, balance due %s, can finalize %v", snap.RemainingBase, snap.BalanceDueBase, snap.CanFinalize)
	}

	if _, err := term.Apply(ctx, pos.Finalize{IsCredit: true}); err != nil {
		t.Fatalf("credit finalize: %v", err)
	}
	req := backend.finalizeReqs[0]
	if !req.Totals.BalanceDue.Equal(dec("9.70")) || !req.Totals.SurchargeBase.Equal(dec("0.30")) {
		t.Errorf("credit balance = %s with surcharge %s, want 9.70 and 0.30", req.Totals.BalanceDue, req.Totals.SurchargeBase)
	}
}

func TestTerminal_LoadDraftThenFinalize(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.drafts[7] = &pos.LoadDraftResult{
		Success:  true,
		Customer: &pos.Customer{ID: 9, DisplayText: "Luis Rojas (V-987)"},
		Lines: []pos.LineItem{
			{ProductID: 1, Name: "Cafe", CategoryName: "Food", Quantity: dec("1"), UnitPrice: dec("4.50"), OriginalUnitPrice: dec("5.00")},
			{ProductID: 2, Name: "Azucar", Quantity: dec("2"), UnitPrice: dec("1.25"), OriginalUnitPrice: dec("1.25")},
		},
	}
	term := newTerminal(t, backend)

	// A stray payment step on the old order is discarded by the load.
	readyToPay(t, term)
	if _, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "1"}); err != nil {
		t.Fatal(err)
	}

	snap, err := term.Apply(ctx, pos.LoadDraft{OrderID: 7})
	if err != nil {
		t.Fatalf("LoadDraft: %v", err)
	}
	if snap.Status != pos.StatusBuilding || len(snap.Lines) != 2 || len(snap.Payments) != 0 {
		t.Fatalf("loaded snapshot = %+v", snap)
	}
	if snap.Customer == nil || snap.Customer.ID != 9 {
		t.Errorf("customer = %+v", snap.Customer)
	}
	if snap.LoadedOrderID == nil || *snap.LoadedOrderID != 7 {
		t.Errorf("loaded order id = %v", snap.LoadedOrderID)
	}
	if !snap.Lines[0].DiscountPercent.Equal(dec("10")) {
		t.Errorf("discount should be derived on load, got %s", snap.Lines[0].DiscountPercent)
	}
	if !snap.SubtotalBase.Equal(dec("7.00")) {
		t.Errorf("subtotal = %s, want 7.00", snap.SubtotalBase)
	}

	if _, err := term.Apply(ctx, pos.EnterPayment{}); err != nil {
		t.Fatal(err)
	}
	if _, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "7"}); err != nil {
		t.Fatal(err)
	}
	if _, err := term.Apply(ctx, pos.Finalize{}); err != nil {
		t.Fatal(err)
	}
	req := backend.finalizeReqs[0]
	if req.LoadedOrderID == nil || *req.LoadedOrderID != 7 {
		t.Errorf("finalize request must carry the loaded order id, got %v", req.LoadedOrderID)
	}
}

func TestTerminal_Guards(t *testing.T) {
	ctx := context.Background()
	term := newTerminal(t, newFakeBackend())

	if _, err := term.Apply(ctx, pos.EnterPayment{}); !errors.Is(err, pos.ErrNoCustomer) {
		t.Errorf("expected ErrNoCustomer, got %v", err)
	}
	if _, err := term.Apply(ctx, pos.SelectCustomer{Customer: pos.Customer{ID: 1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := term.Apply(ctx, pos.EnterPayment{}); !errors.Is(err, pos.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
	if _, err := term.Apply(ctx, pos.SaveDraft{}); !errors.Is(err, pos.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart on save, got %v", err)
	}
	if _, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "1"}); !errors.Is(err, pos.ErrInvalidState) {
		t.Errorf("payments outside the payment step must be refused, got %v", err)
	}
	if _, err := term.Apply(ctx, pos.SetDiscount{ProductID: 1, Percent: "ten"}); !errors.Is(err, pos.ErrInvalidNumber) {
		t.Errorf("expected ErrInvalidNumber, got %v", err)
	}
	if _, err := term.Apply(ctx, pos.SetUnitPrice{ProductID: 1, Price: "5"}); !errors.Is(err, pos.ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}
	if _, err := term.Apply(ctx, pos.RemovePayment{Index: 0}); !errors.Is(err, pos.ErrPaymentIndex) {
		t.Errorf("expected ErrPaymentIndex, got %v", err)
	}
}

func TestTerminal_EditDuringPaymentReturnsToBuilding(t *testing.T) {
	ctx := context.Background()
	term := newTerminal(t, newFakeBackend())
	readyToPay(t, term)
	if _, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "20"}); err != nil {
		t.Fatal(err)
	}

	snap, err := term.Apply(ctx, pos.SetQuantity{ProductID: 1, Quantity: "abc"})
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != pos.StatusBuilding {
		t.Errorf("status = %s, want BUILDING", snap.Status)
	}
	if !snap.Lines[0].Quantity.IsZero() {
		t.Errorf("unparsable quantity should become 0, got %s", snap.Lines[0].Quantity)
	}
	if len(snap.Payments) != 1 || !snap.ChangeBase.Equal(dec("20.00")) {
		t.Errorf("payments should survive the edit: %+v", snap)
	}
	if snap.CanFinalize {
		t.Errorf("CanFinalize must be false outside the payment step")
	}
	if _, err := term.Apply(ctx, pos.Finalize{}); !errors.Is(err, pos.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestTerminal_SaveDraft(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	term := newTerminal(t, backend)
	readyToPay(t, term)

	if _, err := term.Apply(ctx, pos.SaveDraft{}); !errors.Is(err, pos.ErrInvalidState) {
		t.Errorf("save from the payment step should be refused, got %v", err)
	}
	if _, err := term.Apply(ctx, pos.LeavePayment{}); err != nil {
		t.Fatal(err)
	}
	snap, err := term.Apply(ctx, pos.SaveDraft{})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if snap.Outcome == nil || snap.Outcome.Kind != pos.OutcomeDraft || snap.Outcome.ReferenceID != 7 {
		t.Errorf("outcome = %+v", snap.Outcome)
	}
	if snap.Status != pos.StatusEmpty {
		t.Errorf("status = %s, want EMPTY", snap.Status)
	}
	if req := backend.saveReqs[0]; req.OrderID != nil || req.CustomerID != 5 || len(req.Lines) != 1 {
		t.Errorf("save request = %+v", req)
	}
}

func TestTerminal_CollaboratorFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	term := newTerminal(t, backend)
	readyToPay(t, term)
	if _, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "20"}); err != nil {
		t.Fatal(err)
	}
	before := term.Snapshot()

	backend.finalizeErr = errors.New("connection reset")
	_, err := term.Apply(ctx, pos.Finalize{})
	var ce *pos.CollaboratorError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if ce.UserMessage() == "" {
		t.Errorf("expected a generic message")
	}

	backend.finalizeErr = nil
	backend.finalizeResult = &pos.FinalizeResult{Success: false, Message: "Insufficient stock for Queso"}
	_, err = term.Apply(ctx, pos.Finalize{})
	if !errors.As(err, &ce) || !errors.Is(err, pos.ErrRefused) {
		t.Fatalf("expected refusal, got %v", err)
	}
	if ce.UserMessage() != "Insufficient stock for Queso" {
		t.Errorf("user message = %q", ce.UserMessage())
	}

	after := term.Snapshot()
	if after.Status != before.Status || len(after.Payments) != len(before.Payments) ||
		!after.SubtotalBase.Equal(before.SubtotalBase) || after.Customer.ID != before.Customer.ID {
		t.Errorf("state changed after failed finalize:\nbefore %+v\nafter  %+v", before, after)
	}

	// Retrying after the backend recovers succeeds.
	backend.finalizeResult = &pos.FinalizeResult{Success: true, SaleID: 102}
	if _, err := term.Apply(ctx, pos.Finalize{}); err != nil {
		t.Errorf("retry failed: %v", err)
	}
}

func TestTerminal_ResetDiscardsInFlightFinalize(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	term := newTerminal(t, backend)
	readyToPay(t, term)
	if _, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "20"}); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := term.Apply(ctx, pos.Finalize{})
		done <- err
	}()
	<-backend.entered

	if _, err := term.Apply(ctx, pos.Finalize{}); !errors.Is(err, pos.ErrRequestInFlight) {
		t.Errorf("second finalize should be refused while the first is pending, got %v", err)
	}

	term.Reset()
	if _, err := term.Apply(ctx, pos.AddLine{ProductID: 3, Name: "Pan", UnitPrice: dec("1.00")}); err != nil {
		t.Fatal(err)
	}
	close(backend.gate)

	if err := <-done; !errors.Is(err, pos.ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}
	snap := term.Snapshot()
	if snap.Status != pos.StatusBuilding || len(snap.Lines) != 1 || snap.Lines[0].ProductID != 3 {
		t.Errorf("the new order must be untouched by the stale response: %+v", snap)
	}
}

func TestTerminal_EditsRefusedWhileSubmitting(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	term := newTerminal(t, backend)
	readyToPay(t, term)
	if _, err := term.Apply(ctx, pos.AddPayment{Method: cashUSD, Amount: "20"}); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := term.Apply(ctx, pos.Finalize{})
		done <- err
	}()
	<-backend.entered

	edits := []pos.Command{
		pos.AddLine{ProductID: 2, Name: "Pan", UnitPrice: dec("1.00")},
		pos.SetQuantity{ProductID: 1, Quantity: "3"},
		pos.RemoveLine{ProductID: 1},
		pos.ClearCustomer{},
		pos.AddPayment{Method: cashUSD, Amount: "5"},
		pos.RemovePayment{Index: 0},
		pos.LeavePayment{},
		pos.SaveDraft{},
	}
	for _, cmd := range edits {
		snap, err := term.Apply(ctx, cmd)
		if !errors.Is(err, pos.ErrRequestInFlight) {
			t.Errorf("%s during finalize: expected ErrRequestInFlight, got %v", cmd.Kind(), err)
		}
		if len(snap.Lines) != 1 || len(snap.Payments) != 1 {
			t.Errorf("%s changed the submitted order: %+v", cmd.Kind(), snap)
		}
	}

	close(backend.gate)
	if err := <-done; err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := backend.finalizeReqs[0].Lines; len(got) != 1 || !got[0].Quantity.Equal(dec("2")) {
		t.Errorf("submitted lines = %+v", got)
	}
	snap, err := term.Apply(ctx, pos.AddLine{ProductID: 2, Name: "Pan", UnitPrice: dec("1.00")})
	if err != nil || len(snap.Lines) != 1 {
		t.Errorf("edits should resume after the response: err=%v lines=%d", err, len(snap.Lines))
	}
}

func TestTerminal_LastLoadWins(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.drafts[1] = &pos.LoadDraftResult{Success: true, Customer: &pos.Customer{ID: 1},
		Lines: []pos.LineItem{{ProductID: 10, Quantity: dec("1"), UnitPrice: dec("1"), OriginalUnitPrice: dec("1")}}}
	backend.drafts[2] = &pos.LoadDraftResult{Success: true, Customer: &pos.Customer{ID: 2},
		Lines: []pos.LineItem{{ProductID: 20, Quantity: dec("1"), UnitPrice: dec("2"), OriginalUnitPrice: dec("2")}}}
	backend.loadGate[1] = make(chan struct{})
	term := newTerminal(t, backend)

	first := make(chan error, 1)
	go func() {
		_, err := term.LoadDraft(ctx, 1)
		first <- err
	}()
	<-backend.entered

	snap, err := term.LoadDraft(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if *snap.LoadedOrderID != 2 {
		t.Fatalf("loaded = %d, want 2", *snap.LoadedOrderID)
	}

	close(backend.loadGate[1])
	if err := <-first; !errors.Is(err, pos.ErrStaleResponse) {
		t.Fatalf("earlier load should be discarded, got %v", err)
	}
	snap = term.Snapshot()
	if *snap.LoadedOrderID != 2 || snap.Lines[0].ProductID != 20 {
		t.Errorf("state = %+v", snap)
	}

	if _, err := term.LoadDraft(ctx, 99); !errors.Is(err, pos.ErrRefused) {
		t.Errorf("missing draft should be a refusal, got %v", err)
	}
}

func TestTerminal_SnapshotIsImmutable(t *testing.T) {
	ctx := context.Background()
	term := newTerminal(t, newFakeBackend())
	snap, err := term.Apply(ctx, pos.AddLine{ProductID: 1, Name: "Leche", UnitPrice: dec("2.00")})
	if err != nil {
		t.Fatal(err)
	}
	snap.Lines[0].Quantity = dec("50")

	if _, err := term.Apply(ctx, pos.SetUnitPrice{ProductID: 1, Price: "1.50"}); err != nil {
		t.Fatal(err)
	}
	if !snap.Lines[0].UnitPrice.Equal(dec("2.00")) {
		t.Errorf("earlier snapshot changed: %s", snap.Lines[0].UnitPrice)
	}
	if now := term.Snapshot(); !now.Lines[0].Quantity.Equal(dec("1")) {
		t.Errorf("editing a snapshot leaked into the terminal: %s", now.Lines[0].Quantity)
	}
}

func TestNewTerminal_RejectsNegativeRate(t *testing.T) {
	_, err := pos.NewTerminal(newFakeBackend(), pos.Settings{ExchangeRate: dec("-1")})
	if err == nil {
		t.Errorf("expected error for negative exchange rate")
	}
}
