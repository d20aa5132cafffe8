package pos

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tender collects the split payments of an order, each normalized to base currency.
// The zero value holds no payments.
type Tender struct {
	payments []Payment
}

// TenderTotals is the payment position of an order against its total.
type TenderTotals struct {
	PaidBase          decimal.Decimal `json:"paid_base"`
	SurchargeBase     decimal.Decimal `json:"surcharge_base"`
	EffectivePaidBase decimal.Decimal `json:"effective_paid_base"`
	RemainingBase     decimal.Decimal `json:"remaining_base"`
	ChangeBase        decimal.Decimal `json:"change_base"`
	// BalanceDueBase is the total less effective paid, never negative. A cash
	// sale closes only when it is zero; a credit sale books it as owed.
	BalanceDueBase decimal.Decimal `json:"balance_due_base"`
}

// Payments returns a copy of the tender lines in entry order.
func (t *Tender) Payments() []Payment {
	out := make([]Payment, len(t.payments))
	copy(out, t.payments)
	return out
}

// Len returns the number of tender lines.
func (t *Tender) Len() int { return len(t.payments) }

// Add validates and appends a payment. Foreign-currency methods are entered in
// base currency as-is; all other methods are entered in local currency and
// converted with rate. Nothing is appended when an error is returned.
func (t *Tender) Add(method PaymentMethod, entered decimal.Decimal, reference string, rate decimal.Decimal) (Payment, error) {
	if !entered.IsPositive() {
		return Payment{}, invalid(ErrNonPositiveAmount, "amount", "please enter a valid amount greater than zero")
	}
	reference = strings.TrimSpace(reference)
	if method.RequiresReference && reference == "" {
		return Payment{}, invalid(ErrReferenceRequired, "reference", "%s requires a reference", method.Name)
	}

	amountBase := entered
	if !method.IsForeignCurrency {
		var err error
		if amountBase, err = ToBase(entered, rate); err != nil {
			return Payment{}, err
		}
	}

	p := Payment{
		MethodID:          method.ID,
		MethodName:        method.Name,
		AmountBase:        amountBase,
		EnteredAmount:     entered,
		Reference:         reference,
		IsForeignCurrency: method.IsForeignCurrency,
	}
	t.payments = append(t.payments, p)
	return p, nil
}

// Remove deletes the payment at index.
func (t *Tender) Remove(index int) error {
	if index < 0 || index >= len(t.payments) {
		return invalid(ErrPaymentIndex, "index", "there is no payment #%d", index+1)
	}
	t.payments = append(t.payments[:index], t.payments[index+1:]...)
	return nil
}

// TotalPaidBase is the rounded sum of all tendered amounts.
func (t *Tender) TotalPaidBase() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range t.payments {
		sum = sum.Add(p.AmountBase)
	}
	return Round2(sum)
}

// RemainingBase is what is still owed, never negative.
func (t *Tender) RemainingBase(orderTotal decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, Round2(orderTotal.Sub(t.TotalPaidBase())))
}

// ChangeBase is what must be handed back, never negative.
func (t *Tender) ChangeBase(orderTotal decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, Round2(t.TotalPaidBase().Sub(orderTotal)))
}

// SurchargeBase is the IGTF surcharge: igtfPercent of the amount tendered
// directly in base currency. Converted local-currency tenders never attract it.
func (t *Tender) SurchargeBase(igtfPercent decimal.Decimal) decimal.Decimal {
	foreign := decimal.Zero
	for _, p := range t.payments {
		if p.IsForeignCurrency {
			foreign = foreign.Add(p.AmountBase)
		}
	}
	return Round2(percentOf(Round2(foreign), igtfPercent))
}

// BalanceDueBase is what the order still lacks once the surcharge is counted
// towards the collected amount, never negative.
func (t *Tender) BalanceDueBase(orderTotal, igtfPercent decimal.Decimal) decimal.Decimal {
	effective := Round2(t.TotalPaidBase().Add(t.SurchargeBase(igtfPercent)))
	return decimal.Max(decimal.Zero, Round2(orderTotal.Sub(effective)))
}

// CanFinalize reports whether the order may be closed: nothing is due once the
// surcharge counts towards the collected amount. Credit sales are never
// blocked by a shortfall.
func (t *Tender) CanFinalize(orderTotal, igtfPercent decimal.Decimal, allowCredit bool) bool {
	if allowCredit {
		return true
	}
	return t.BalanceDueBase(orderTotal, igtfPercent).IsZero()
}

// Totals summarizes the payment position against orderTotal.
func (t *Tender) Totals(orderTotal, igtfPercent decimal.Decimal) TenderTotals {
	paid := t.TotalPaidBase()
	surcharge := t.SurchargeBase(igtfPercent)
	return TenderTotals{
		PaidBase:          paid,
		SurchargeBase:     surcharge,
		EffectivePaidBase: Round2(paid.Add(surcharge)),
		RemainingBase:     t.RemainingBase(orderTotal),
		ChangeBase:        t.ChangeBase(orderTotal),
		BalanceDueBase:    t.BalanceDueBase(orderTotal, igtfPercent),
	}
}

