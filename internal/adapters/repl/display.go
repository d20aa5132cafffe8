package repl

import (
	"fmt"
	"io"
	"strings"

	"pos-terminal/internal/core"
	"pos-terminal/internal/pos"
)

func printSnapshot(w io.Writer, s pos.Snapshot) {
	fmt.Fprintln(w, strings.Repeat("=", 78))
	customer := "(no customer)"
	if s.Customer != nil {
		customer = s.Customer.DisplayText
	}
	header := fmt.Sprintf("ORDER [%s]  %s", s.Status, customer)
	if s.LoadedOrderID != nil {
		header += fmt.Sprintf("  (draft #%d)", *s.LoadedOrderID)
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("=", 78))

	if len(s.Lines) == 0 {
		fmt.Fprintln(w, "  (empty)")
	} else {
		fmt.Fprintf(w, "  %-5s  %-28s  %8s  %10s  %6s  %12s\n", "ID", "PRODUCT", "QTY", "PRICE", "DISC%", "TOTAL")
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 76))
		for _, l := range s.Lines {
			fmt.Fprintf(w, "  %-5d  %-28s  %8s  %10s  %6s  %12s\n",
				l.ProductID, truncate(l.Name, 28), l.Quantity.String(),
				pos.FormatMoney(l.UnitPrice), l.DiscountPercent.String(), pos.FormatMoney(l.TotalBase))
		}
	}

	if len(s.Categories) > 1 {
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 76))
		for _, c := range s.Categories {
			fmt.Fprintf(w, "  %-40s  %14s  %16s\n", truncate(c.Name, 40),
				pos.FormatMoney(c.TotalBase), pos.FormatMoney(c.TotalLocal))
		}
	}

	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 76))
	fmt.Fprintf(w, "  %-40s  %14s  %16s\n", "Total (tax incl.)", pos.FormatMoney(s.SubtotalBase), pos.FormatMoney(s.SubtotalLocal))
	fmt.Fprintf(w, "  %-40s  %14s\n", fmt.Sprintf("  of which tax (%s%%)", s.TaxPercent), pos.FormatMoney(s.TaxBase))

	if len(s.Payments) > 0 || s.Status == pos.StatusAwaitingPayment {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  PAYMENTS")
		for i, p := range s.Payments {
			entered := pos.FormatMoney(p.EnteredAmount)
			if p.Reference != "" {
				entered += " ref " + p.Reference
			}
			fmt.Fprintf(w, "  %2d. %-24s  %-24s  %14s\n", i+1, truncate(p.MethodName, 24), entered, pos.FormatMoney(p.AmountBase))
		}
		if s.SurchargeBase.IsPositive() {
			fmt.Fprintf(w, "  %-40s  %14s\n", fmt.Sprintf("IGTF (%s%%)", s.IGTFPercent), pos.FormatMoney(s.SurchargeBase))
		}
		fmt.Fprintf(w, "  %-40s  %14s\n", "Paid", pos.FormatMoney(s.EffectivePaidBase))
		fmt.Fprintf(w, "  %-40s  %14s  %16s\n", "Remaining", pos.FormatMoney(s.RemainingBase), pos.FormatMoney(s.RemainingLocal))
		if !s.BalanceDueBase.Equal(s.RemainingBase) {
			fmt.Fprintf(w, "  %-40s  %14s\n", "Balance due", pos.FormatMoney(s.BalanceDueBase))
		}
		if s.ChangeBase.IsPositive() {
			fmt.Fprintf(w, "  %-40s  %14s  %16s\n", "Change", pos.FormatMoney(s.ChangeBase), pos.FormatMoney(s.ChangeLocal))
		}
		if s.CanFinalize {
			fmt.Fprintln(w, "  Ready to finalize.")
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 78))
}

func printProducts(w io.Writer, products []core.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-12s  %-30s  %-14s  %10s\n", "ID", "SKU", "NAME", "CATEGORY", "PRICE")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, p := range products {
		fmt.Fprintf(w, "%-6d  %-12s  %-30s  %-14s  %10s\n",
			p.ID, truncate(p.SKU, 12), truncate(p.Name, 30), truncate(p.CategoryName, 14), pos.FormatMoney(p.Price))
	}
}

func printCustomers(w io.Writer, customers []core.Customer) {
	if len(customers) == 0 {
		fmt.Fprintln(w, "No customers found.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-40s  %12s  %12s\n", "ID", "CUSTOMER", "LIMIT", "OWED")
	fmt.Fprintln(w, strings.Repeat("-", 76))
	for _, c := range customers {
		fmt.Fprintf(w, "%-6d  %-40s  %12s  %12s\n",
			c.ID, truncate(c.DisplayText(), 40), pos.FormatMoney(c.CreditLimit), pos.FormatMoney(c.OutstandingBalance))
	}
}

func printMethods(w io.Writer, methods []core.PaymentMethod) {
	if len(methods) == 0 {
		fmt.Fprintln(w, "No payment methods configured.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-30s  %-10s  %s\n", "ID", "METHOD", "CURRENCY", "REFERENCE")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, m := range methods {
		currency := "local"
		if m.IsForeignCurrency {
			currency = "foreign"
		}
		ref := ""
		if m.RequiresReference {
			ref = "required"
		}
		fmt.Fprintf(w, "%-6d  %-30s  %-10s  %s\n", m.ID, truncate(m.Name, 30), currency, ref)
	}
}

func printDrafts(w io.Writer, drafts []core.DraftSummary) {
	if len(drafts) == 0 {
		fmt.Fprintln(w, "No saved drafts.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-34s  %6s  %12s  %s\n", "ID", "CUSTOMER", "LINES", "TOTAL", "UPDATED")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, d := range drafts {
		fmt.Fprintf(w, "%-6d  %-34s  %6d  %12s  %s\n",
			d.ID, truncate(d.CustomerName, 34), d.LineCount, pos.FormatMoney(d.Total), d.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Catalog:
  /products [text]               Search active products
  /methods                       List payment methods
  /customers [text]              Search customers

Order:
  /add <product-id>              Add one unit (or one more) of a product
  /qty <product-id> <qty>        Set a line's quantity
  /price <product-id> <price>    Override a line's unit price
  /disc <product-id> <percent>   Apply a discount to a line
  /rm <product-id>               Remove a line
  /customer <customer-id>        Select the customer
  /new-customer                  Register a customer and select it
  /summary                       Show the current order

Payment:
  /pay                           Start taking payments
  /back                          Return to editing the order
  /tender <method-id> <amount> [ref]
                                 Record a payment
  /untender <n>                  Remove payment number n
  /finalize                      Record the sale
  /credit                        Record the sale on customer credit

Drafts:
  /save                          Save the order as a draft
  /drafts                        List saved drafts
  /load <order-id>               Load a draft into the terminal
  /reset                         Discard the current order

  /help                          Show this help
  /exit                          Leave the terminal`)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
