package pos

import "github.com/shopspring/decimal"

// Snapshot is an immutable view of a terminal's order, recomputed after every
// operation. Callers may keep it; later mutations never change it.
type Snapshot struct {
	Status        Status          `json:"status"`
	Customer      *Customer       `json:"customer,omitempty"`
	LoadedOrderID *int            `json:"loaded_order_id,omitempty"`
	Lines         []LineView      `json:"lines"`
	Categories    []CategoryView  `json:"categories"`
	Payments      []Payment       `json:"payments"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	IGTFPercent   decimal.Decimal `json:"igtf_percent"`

	SubtotalBase      decimal.Decimal `json:"subtotal_base"`
	SubtotalLocal     decimal.Decimal `json:"subtotal_local"`
	TaxBase           decimal.Decimal `json:"tax_base"`
	PaidBase          decimal.Decimal `json:"paid_base"`
	SurchargeBase     decimal.Decimal `json:"surcharge_base"`
	EffectivePaidBase decimal.Decimal `json:"effective_paid_base"`
	RemainingBase     decimal.Decimal `json:"remaining_base"`
	RemainingLocal    decimal.Decimal `json:"remaining_local"`
	ChangeBase        decimal.Decimal `json:"change_base"`
	ChangeLocal       decimal.Decimal `json:"change_local"`
	BalanceDueBase    decimal.Decimal `json:"balance_due_base"`
	CanFinalize       bool            `json:"can_finalize"`

	// Outcome is set only on the snapshot returned by a successful finalize or draft save.
	Outcome *Outcome `json:"outcome,omitempty"`
}

// LineView is a line with its derived figures.
type LineView struct {
	LineItem
	TotalBase  decimal.Decimal `json:"total_base"`
	TotalLocal decimal.Decimal `json:"total_local"`
}

// CategoryView is a category summary row in both currencies.
type CategoryView struct {
	Name       string          `json:"name"`
	TotalBase  decimal.Decimal `json:"total_base"`
	TotalLocal decimal.Decimal `json:"total_local"`
}

// OutcomeKind tells what a completed backend request produced.
type OutcomeKind string

const (
	OutcomeSale  OutcomeKind = "sale"
	OutcomeDraft OutcomeKind = "draft"
)

// Outcome describes the record the backend created for the previous order.
type Outcome struct {
	Kind        OutcomeKind `json:"kind"`
	ReferenceID int         `json:"reference_id"`
	IsCredit    bool        `json:"is_credit,omitempty"`
	Message     string      `json:"message"`
}

func buildSnapshot(o *Order, s Settings, outcome *Outcome) Snapshot {
	subtotal := o.Cart.SubtotalBase()
	tt := o.Tender.Totals(subtotal, s.IGTFPercent)

	snap := Snapshot{
		Status:            o.Status,
		ExchangeRate:      s.ExchangeRate,
		TaxPercent:        s.TaxPercent,
		IGTFPercent:       s.IGTFPercent,
		SubtotalBase:      subtotal,
		SubtotalLocal:     ToLocal(subtotal, s.ExchangeRate),
		TaxBase:           Round2(percentOf(subtotal, s.TaxPercent)),
		PaidBase:          tt.PaidBase,
		SurchargeBase:     tt.SurchargeBase,
		EffectivePaidBase: tt.EffectivePaidBase,
		RemainingBase:     tt.RemainingBase,
		RemainingLocal:    ToLocal(tt.RemainingBase, s.ExchangeRate),
		ChangeBase:        tt.ChangeBase,
		ChangeLocal:       ToLocal(tt.ChangeBase, s.ExchangeRate),
		BalanceDueBase:    tt.BalanceDueBase,
		CanFinalize:       o.Status == StatusAwaitingPayment && o.Tender.CanFinalize(subtotal, s.IGTFPercent, false),
		Payments:          o.Tender.Payments(),
		Outcome:           outcome,
	}
	if o.Customer != nil {
		c := *o.Customer
		snap.Customer = &c
	}
	if o.LoadedOrderID != nil {
		id := *o.LoadedOrderID
		snap.LoadedOrderID = &id
	}

	lines := o.Cart.Lines()
	snap.Lines = make([]LineView, len(lines))
	for i, l := range lines {
		total := l.Total()
		l.DiscountPercent = Round2(l.DiscountPercent)
		snap.Lines[i] = LineView{LineItem: l, TotalBase: total, TotalLocal: ToLocal(total, s.ExchangeRate)}
	}

	groups := o.Cart.GroupByCategory()
	snap.Categories = make([]CategoryView, len(groups))
	for i, g := range groups {
		snap.Categories[i] = CategoryView{Name: g.Name, TotalBase: g.Total, TotalLocal: ToLocal(g.Total, s.ExchangeRate)}
	}
	return snap
}
