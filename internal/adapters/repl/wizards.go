package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/core"
)

// newCustomerWizard prompts for a customer's details and registers it.
// It returns nil when the operator cancels.
func (c *console) newCustomerWizard(ctx context.Context) (*core.Customer, error) {
	fmt.Fprintln(c.out, "New customer. Leave a field blank to skip it, type 'cancel' to abort.")

	var in core.CustomerInput
	fields := []struct {
		label string
		dst   *string
	}{
		{"First name", &in.FirstName},
		{"Last name", &in.LastName},
		{"Tax ID", &in.TaxID},
		{"Phone", &in.Phone},
		{"Email", &in.Email},
	}
	for _, f := range fields {
		v, ok := c.prompt(f.label)
		if !ok {
			fmt.Fprintln(c.out, "Customer creation cancelled.")
			return nil, nil
		}
		*f.dst = v
	}

	for {
		v, ok := c.prompt("Credit limit (0 = no limit)")
		if !ok {
			fmt.Fprintln(c.out, "Customer creation cancelled.")
			return nil, nil
		}
		if v == "" {
			break
		}
		limit, err := decimal.NewFromString(v)
		if err != nil || limit.IsNegative() {
			fmt.Fprintln(c.out, "  Invalid amount.")
			continue
		}
		in.CreditLimit = limit
		break
	}

	customer, err := c.svc.CreateCustomer(ctx, in)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.out, "Customer #%d created: %s\n", customer.ID, customer.DisplayText())
	return customer, nil
}

func (c *console) prompt(label string) (string, bool) {
	fmt.Fprintf(c.out, "  %s: ", label)
	raw, _ := c.reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "cancel") {
		return "", false
	}
	return raw, true
}
