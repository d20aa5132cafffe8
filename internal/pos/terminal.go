package pos

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrRefused marks a CollaboratorError where the backend answered with success=false.
var ErrRefused = errors.New("request refused by backend")

// Terminal owns exactly one order document and serializes every operation on it.
// Each operation recomputes totals before returning, so the Snapshot it returns
// is always consistent. Backend calls run with the lock released; their
// responses are applied only if the order is still the one the request was built from.
type Terminal struct {
	mu       sync.Mutex
	backend  Backend
	settings Settings
	order    Order

	generation uint64 // bumped whenever the order document is replaced
	resets     uint64 // bumped when the order is cleared (reset, finalize, save)
	loadSeq    uint64 // last issued draft load
	inFlight   bool   // finalize or save outstanding; edits are refused meanwhile
}

// NewTerminal opens a terminal with an empty order.
// A zero exchange rate is accepted; local-currency tenders are then refused.
func NewTerminal(backend Backend, settings Settings) (*Terminal, error) {
	if backend == nil {
		return nil, errors.New("terminal requires a backend")
	}
	if settings.ExchangeRate.IsNegative() {
		return nil, fmt.Errorf("exchange rate cannot be negative, got %s", settings.ExchangeRate)
	}
	if settings.TaxPercent.IsNegative() || settings.IGTFPercent.IsNegative() {
		return nil, fmt.Errorf("tax and IGTF percentages cannot be negative")
	}
	return &Terminal{
		backend:  backend,
		settings: settings,
		order:    Order{Status: StatusEmpty},
	}, nil
}

// Settings returns the session settings.
func (t *Terminal) Settings() Settings {
	return t.settings
}

// Snapshot returns the current state.
func (t *Terminal) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Apply executes a command and returns the resulting snapshot.
func (t *Terminal) Apply(ctx context.Context, cmd Command) (Snapshot, error) {
	if cmd == nil {
		return t.Snapshot(), errors.New("nil command")
	}
	return cmd.apply(ctx, t)
}

func (t *Terminal) snapshotLocked() Snapshot {
	return buildSnapshot(&t.order, t.settings, nil)
}

// mutate runs fn under the lock and returns the fresh snapshot either way.
// While a finalize or save is outstanding the order is frozen: the pending
// response describes exactly the submitted order, so edits are refused until it
// arrives. Reset and LoadDraft stay available and make that response stale.
func (t *Terminal) mutate(fn func() error) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight {
		return t.snapshotLocked(), invalid(ErrRequestInFlight, "status", "the order is being submitted; wait for the result or reset")
	}
	err := fn()
	return t.snapshotLocked(), err
}

// edited moves the order back to BUILDING after a cart or customer change.
// Collected payments are kept.
func (t *Terminal) editedLocked() {
	switch t.order.Status {
	case StatusEmpty, StatusAwaitingPayment:
		t.order.Status = StatusBuilding
	}
}

// ── Cart ─────────────────────────────────────────────────────────────────────

// AddLine adds one unit of a catalog product.
func (t *Terminal) AddLine(productID int, name, categoryName string, unitPrice decimal.Decimal) (Snapshot, error) {
	return t.mutate(func() error {
		if unitPrice.IsNegative() {
			return invalid(ErrNegativePrice, "price", "price cannot be negative")
		}
		t.order.Cart.AddLine(productID, name, categoryName, unitPrice)
		t.editedLocked()
		return nil
	})
}

// SetQuantity replaces a line's quantity.
func (t *Terminal) SetQuantity(productID int, quantity decimal.Decimal) (Snapshot, error) {
	return t.mutate(func() error {
		if err := t.order.Cart.SetQuantity(productID, quantity); err != nil {
			return err
		}
		t.editedLocked()
		return nil
	})
}

// SetUnitPrice overrides a line's price; the discount follows.
func (t *Terminal) SetUnitPrice(productID int, price decimal.Decimal) (Snapshot, error) {
	return t.mutate(func() error {
		if err := t.order.Cart.SetUnitPrice(productID, price); err != nil {
			return err
		}
		t.editedLocked()
		return nil
	})
}

// SetDiscountPercent discounts a line; the price follows.
func (t *Terminal) SetDiscountPercent(productID int, percent decimal.Decimal) (Snapshot, error) {
	return t.mutate(func() error {
		if err := t.order.Cart.SetDiscountPercent(productID, percent); err != nil {
			return err
		}
		t.editedLocked()
		return nil
	})
}

// RemoveLine drops a line. Unknown products are ignored.
func (t *Terminal) RemoveLine(productID int) (Snapshot, error) {
	return t.mutate(func() error {
		if _, ok := t.order.Cart.Line(productID); !ok {
			return nil
		}
		t.order.Cart.RemoveLine(productID)
		t.editedLocked()
		return nil
	})
}

// ── Customer ─────────────────────────────────────────────────────────────────

// SelectCustomer attaches the customer the sale is for.
func (t *Terminal) SelectCustomer(c Customer) (Snapshot, error) {
	return t.mutate(func() error {
		if c.ID <= 0 {
			return invalid(ErrNoCustomer, "customer_id", "please select a valid customer")
		}
		t.order.Customer = &c
		if t.order.Status == StatusAwaitingPayment {
			t.order.Status = StatusBuilding
		}
		return nil
	})
}

// ClearCustomer detaches the customer.
func (t *Terminal) ClearCustomer() (Snapshot, error) {
	return t.mutate(func() error {
		t.order.Customer = nil
		if t.order.Status == StatusAwaitingPayment {
			t.order.Status = StatusBuilding
		}
		return nil
	})
}

// ── Payment ──────────────────────────────────────────────────────────────────

func (t *Terminal) checkPaymentGuardsLocked() error {
	if t.order.Customer == nil {
		return invalid(ErrNoCustomer, "customer_id", "Please select a customer.")
	}
	if t.order.Cart.Len() == 0 {
		return invalid(ErrEmptyCart, "lines", "The cart is empty.")
	}
	return nil
}

// EnterPayment opens the payment step. A customer and at least one line are required.
func (t *Terminal) EnterPayment() (Snapshot, error) {
	return t.mutate(func() error {
		if err := t.checkPaymentGuardsLocked(); err != nil {
			return err
		}
		t.order.Status = StatusAwaitingPayment
		return nil
	})
}

// LeavePayment returns to editing without discarding collected payments.
func (t *Terminal) LeavePayment() (Snapshot, error) {
	return t.mutate(func() error {
		if t.order.Status == StatusAwaitingPayment {
			t.order.Status = StatusBuilding
		}
		return nil
	})
}

// AddPayment records a tender line. Only allowed during the payment step.
func (t *Terminal) AddPayment(method PaymentMethod, entered decimal.Decimal, reference string) (Snapshot, error) {
	return t.mutate(func() error {
		if t.order.Status != StatusAwaitingPayment {
			return invalid(ErrInvalidState, "status", "open the payment step before adding payments")
		}
		_, err := t.order.Tender.Add(method, entered, reference, t.settings.ExchangeRate)
		return err
	})
}

// RemovePayment deletes the tender line at index (zero-based).
func (t *Terminal) RemovePayment(index int) (Snapshot, error) {
	return t.mutate(func() error {
		return t.order.Tender.Remove(index)
	})
}

// ── Backend transitions ──────────────────────────────────────────────────────

// Finalize submits the order as a sale. A cash sale must be fully paid
// (surcharge included); a credit sale defers the shortfall. On success the
// terminal starts a fresh empty order and the returned snapshot carries the outcome.
func (t *Terminal) Finalize(ctx context.Context, isCredit bool) (Snapshot, error) {
	t.mu.Lock()
	if t.inFlight {
		defer t.mu.Unlock()
		return t.snapshotLocked(), invalid(ErrRequestInFlight, "status", "the sale is already being submitted")
	}
	if err := t.checkPaymentGuardsLocked(); err != nil {
		defer t.mu.Unlock()
		return t.snapshotLocked(), err
	}
	if t.order.Status != StatusAwaitingPayment {
		defer t.mu.Unlock()
		return t.snapshotLocked(), invalid(ErrInvalidState, "status", "open the payment step before finalizing")
	}
	total := t.order.Cart.SubtotalBase()
	if !isCredit && !t.order.Tender.CanFinalize(total, t.settings.IGTFPercent, false) {
		defer t.mu.Unlock()
		return t.snapshotLocked(), invalid(ErrInsufficientPayment, "payments", "The paid amount is less than the total.")
	}
	req := t.finalizeRequestLocked(isCredit)
	gen := t.generation
	t.inFlight = true
	t.mu.Unlock()

	res, err := t.backend.FinalizeSale(ctx, req)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		return t.snapshotLocked(), ErrStaleResponse
	}
	t.inFlight = false
	if err != nil {
		return t.snapshotLocked(), &CollaboratorError{Op: "finalize sale", Err: err}
	}
	if res == nil || !res.Success {
		var msg string
		if res != nil {
			msg = res.Message
		}
		return t.snapshotLocked(), &CollaboratorError{Op: "finalize sale", Message: msg, Err: ErrRefused}
	}

	t.resetLocked()
	return buildSnapshot(&t.order, t.settings, &Outcome{
		Kind:        OutcomeSale,
		ReferenceID: res.SaleID,
		IsCredit:    isCredit,
		Message:     res.Message,
	}), nil
}

func (t *Terminal) finalizeRequestLocked(isCredit bool) FinalizeRequest {
	s := t.settings
	subtotal := t.order.Cart.SubtotalBase()
	tt := t.order.Tender.Totals(subtotal, s.IGTFPercent)
	req := FinalizeRequest{
		CustomerID: t.order.Customer.ID,
		Totals: Totals{
			SubtotalBase:  subtotal,
			SubtotalLocal: ToLocal(subtotal, s.ExchangeRate),
			ExchangeRate:  s.ExchangeRate,
			TaxPercent:    s.TaxPercent,
			TaxBase:       Round2(percentOf(subtotal, s.TaxPercent)),
			IGTFPercent:   s.IGTFPercent,
			SurchargeBase: tt.SurchargeBase,
			PaidBase:      tt.PaidBase,
			RemainingBase: tt.RemainingBase,
			ChangeBase:    tt.ChangeBase,
		},
		Lines:    t.order.Cart.Lines(),
		Payments: t.order.Tender.Payments(),
		IsCredit: isCredit,
	}
	if isCredit {
		req.Totals.BalanceDue = tt.BalanceDueBase
	}
	if t.order.LoadedOrderID != nil {
		id := *t.order.LoadedOrderID
		req.LoadedOrderID = &id
	}
	return req
}

// SaveDraft parks the order with the backend. Allowed while building with a
// customer and at least one line; on success the terminal starts over.
func (t *Terminal) SaveDraft(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	if t.inFlight {
		defer t.mu.Unlock()
		return t.snapshotLocked(), invalid(ErrRequestInFlight, "status", "the order is already being submitted")
	}
	if t.order.Customer == nil {
		defer t.mu.Unlock()
		return t.snapshotLocked(), invalid(ErrNoCustomer, "customer_id", "Please select a customer before saving an order.")
	}
	if t.order.Cart.Len() == 0 {
		defer t.mu.Unlock()
		return t.snapshotLocked(), invalid(ErrEmptyCart, "lines", "Cannot save an empty order.")
	}
	if t.order.Status != StatusBuilding {
		defer t.mu.Unlock()
		return t.snapshotLocked(), invalid(ErrInvalidState, "status", "leave the payment step before saving a draft")
	}
	req := SaveDraftRequest{
		CustomerID: t.order.Customer.ID,
		Lines:      t.order.Cart.Lines(),
	}
	if t.order.LoadedOrderID != nil {
		id := *t.order.LoadedOrderID
		req.OrderID = &id
	}
	gen := t.generation
	t.inFlight = true
	t.mu.Unlock()

	res, err := t.backend.SaveDraft(ctx, req)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		return t.snapshotLocked(), ErrStaleResponse
	}
	t.inFlight = false
	if err != nil {
		return t.snapshotLocked(), &CollaboratorError{Op: "save order", Err: err}
	}
	if res == nil || !res.Success {
		var msg string
		if res != nil {
			msg = res.Message
		}
		return t.snapshotLocked(), &CollaboratorError{Op: "save order", Message: msg, Err: ErrRefused}
	}

	t.resetLocked()
	return buildSnapshot(&t.order, t.settings, &Outcome{
		Kind:        OutcomeDraft,
		ReferenceID: res.OrderID,
		Message:     res.Message,
	}), nil
}

// LoadDraft replaces the order with a parked draft. Valid from any state.
// Payments are discarded. When several loads overlap, only the most recently
// issued one is applied; a load answered after a reset is discarded.
func (t *Terminal) LoadDraft(ctx context.Context, orderID int) (Snapshot, error) {
	t.mu.Lock()
	t.loadSeq++
	ticket := t.loadSeq
	resets := t.resets
	t.mu.Unlock()

	res, err := t.backend.LoadDraft(ctx, orderID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if ticket != t.loadSeq || resets != t.resets {
		return t.snapshotLocked(), ErrStaleResponse
	}
	if err != nil {
		return t.snapshotLocked(), &CollaboratorError{Op: "load order", Err: err}
	}
	if res == nil || !res.Success {
		var msg string
		if res != nil {
			msg = res.Message
		}
		return t.snapshotLocked(), &CollaboratorError{Op: "load order", Message: msg, Err: ErrRefused}
	}

	id := orderID
	t.order = Order{Status: StatusBuilding, LoadedOrderID: &id}
	if res.Customer != nil {
		c := *res.Customer
		t.order.Customer = &c
	}
	t.order.Cart.replace(res.Lines)
	t.generation++
	t.inFlight = false
	return t.snapshotLocked(), nil
}

// Reset discards the current order and starts an empty one.
func (t *Terminal) Reset() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	return t.snapshotLocked()
}

func (t *Terminal) resetLocked() {
	t.order = Order{Status: StatusEmpty}
	t.generation++
	t.resets++
	t.inFlight = false
}
