package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/app"
	"pos-terminal/internal/core"
	"pos-terminal/internal/pos"
)

// ErrUsage is wrapped by every error caused by malformed arguments.
var ErrUsage = errors.New("usage")

const commandList = "drafts, delete-draft, sale, customer-sales, pending, credit-payment, daily-close, rate, set-rate, create-operator"

// Run executes a one-shot CLI command. args is os.Args[1:]; the first element
// is the subcommand name. create-operator reads the password from the first
// line of in.
func Run(ctx context.Context, svc app.ApplicationService, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return usage("app <command> [args]\nAvailable: " + commandList)
	}

	switch args[0] {
	case "drafts":
		drafts, err := svc.ListDrafts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list drafts: %w", err)
		}
		printDrafts(out, drafts)

	case "delete-draft":
		id, err := intArg(args, 1, "app delete-draft <order-id>")
		if err != nil {
			return err
		}
		if err := svc.DeleteDraft(ctx, id); err != nil {
			return fmt.Errorf("failed to delete draft: %w", err)
		}
		fmt.Fprintf(out, "Draft #%d deleted.\n", id)

	case "sale":
		id, err := intArg(args, 1, "app sale <sale-id>")
		if err != nil {
			return err
		}
		sale, err := svc.GetSale(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load sale: %w", err)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sale)

	case "customer-sales":
		id, err := intArg(args, 1, "app customer-sales <customer-id>")
		if err != nil {
			return err
		}
		h, err := svc.CustomerSales(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load purchase history: %w", err)
		}
		printCustomerSales(out, h)

	case "pending":
		sales, err := svc.ListPendingCredit(ctx)
		if err != nil {
			return fmt.Errorf("failed to list credit sales: %w", err)
		}
		printPendingCredit(out, sales)

	case "credit-payment":
		const u = "app credit-payment <sale-id> <method-id> <amount> [reference]"
		saleID, err := intArg(args, 1, u)
		if err != nil {
			return err
		}
		methodID, err := intArg(args, 2, u)
		if err != nil {
			return err
		}
		amount, err := decimalArg(args, 3, u)
		if err != nil {
			return err
		}
		cp, err := svc.RecordCreditPayment(ctx, app.CreditPaymentRequest{
			SaleID:    saleID,
			MethodID:  methodID,
			Amount:    amount,
			Reference: strings.Join(args[min(4, len(args)):], " "),
		})
		if err != nil {
			return fmt.Errorf("failed to record credit payment: %w", err)
		}
		fmt.Fprintf(out, "Payment of %s applied to sale #%d.\n", pos.FormatMoney(cp.AmountBase), cp.SaleID)

	case "daily-close":
		day := time.Now()
		if len(args) > 1 {
			d, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return usage("app daily-close [YYYY-MM-DD]")
			}
			day = d
		}
		report, err := svc.DailyClose(ctx, day)
		if err != nil {
			return fmt.Errorf("failed to build daily close: %w", err)
		}
		printDailyClose(out, report)

	case "rate":
		r, err := svc.CurrentRate(ctx)
		if err != nil {
			return fmt.Errorf("failed to load exchange rate: %w", err)
		}
		suffix := ""
		if r.Overridden {
			suffix = " (configured override)"
		}
		fmt.Fprintf(out, "%s  %s%s\n", r.Date.Format("2006-01-02"), r.Rate.String(), suffix)

	case "set-rate":
		const u = "app set-rate <rate> [YYYY-MM-DD]"
		rate, err := decimalArg(args, 1, u)
		if err != nil {
			return err
		}
		day := time.Now()
		if len(args) > 2 {
			if day, err = time.Parse("2006-01-02", args[2]); err != nil {
				return usage(u)
			}
		}
		r, err := svc.SetExchangeRate(ctx, day, rate)
		if err != nil {
			return fmt.Errorf("failed to set exchange rate: %w", err)
		}
		fmt.Fprintf(out, "Exchange rate for %s set to %s.\n", r.Date.Format("2006-01-02"), r.Rate.String())

	case "create-operator":
		if len(args) < 3 {
			return usage("echo <password> | app create-operator <username> <admin|cashier>")
		}
		password, _ := bufio.NewReader(in).ReadString('\n')
		password = strings.TrimRight(password, "\r\n")
		op, err := svc.CreateOperator(ctx, args[1], password, args[2])
		if err != nil {
			return fmt.Errorf("failed to create operator: %w", err)
		}
		fmt.Fprintf(out, "Operator #%d %s (%s) created.\n", op.OperatorID, op.Username, op.Role)

	default:
		return fmt.Errorf("%w: unknown command %q\nAvailable: %s", ErrUsage, args[0], commandList)
	}
	return nil
}

func usage(text string) error {
	return fmt.Errorf("%w: %s", ErrUsage, text)
}

func intArg(args []string, i int, u string) (int, error) {
	if len(args) <= i {
		return 0, usage(u)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, usage(u)
	}
	return n, nil
}

func decimalArg(args []string, i int, u string) (decimal.Decimal, error) {
	if len(args) <= i {
		return decimal.Zero, usage(u)
	}
	d, err := decimal.NewFromString(args[i])
	if err != nil {
		return decimal.Zero, usage(u)
	}
	return d, nil
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
			d.ID, d.CustomerName, d.LineCount, pos.FormatMoney(d.Total), d.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func printPendingCredit(w io.Writer, sales []core.Sale) {
	if len(sales) == 0 {
		fmt.Fprintln(w, "No pending credit sales.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-34s  %12s  %12s  %s\n", "SALE", "CUSTOMER", "TOTAL", "DUE", "DATE")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, s := range sales {
		fmt.Fprintf(w, "%-6d  %-34s  %12s  %12s  %s\n",
			s.ID, s.CustomerName, pos.FormatMoney(s.SubtotalBase), pos.FormatMoney(s.BalanceDue), s.CreatedAt.Format("2006-01-02"))
	}
}

func printCustomerSales(w io.Writer, h *app.CustomerHistory) {
	fmt.Fprintf(w, "Purchase history for %s\n", h.Customer.DisplayText())
	if len(h.Sales) == 0 {
		fmt.Fprintln(w, "No sales.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-10s  %-16s  %12s  %12s\n", "SALE", "DATE", "STATUS", "TOTAL", "DUE")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, s := range h.Sales {
		fmt.Fprintf(w, "%-6d  %-10s  %-16s  %12s  %12s\n",
			s.ID, s.CreatedAt.Format("2006-01-02"), s.Status, pos.FormatMoney(s.SubtotalBase), pos.FormatMoney(s.BalanceDue))
	}
	if h.BalanceDue.IsPositive() {
		fmt.Fprintf(w, "Outstanding balance: %s\n", pos.FormatMoney(h.BalanceDue))
	}
}

func printDailyClose(w io.Writer, r *core.DailyClose) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  DAILY CLOSE  %s\n", r.Day.Format("2006-01-02"))
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  %-40s %19d\n", "Sales", r.SalesCount)
	fmt.Fprintf(w, "  %-40s %19d\n", "  of which on credit", r.CreditSalesCount)
	fmt.Fprintf(w, "  %-40s %19s\n", "Sales total (tax incl.)", pos.FormatMoney(r.SubtotalBase))
	fmt.Fprintf(w, "  %-40s %19s\n", "Tax", pos.FormatMoney(r.TaxBase))
	fmt.Fprintf(w, "  %-40s %19s\n", "IGTF collected", pos.FormatMoney(r.IGTFBase))
	fmt.Fprintf(w, "  %-40s %19s\n", "Change given", pos.FormatMoney(r.ChangeBase))
	fmt.Fprintf(w, "  %-40s %19s\n", "Outstanding credit", pos.FormatMoney(r.OutstandingBase))
	printMethodTotals(w, "PAYMENTS", r.Payments)
	printMethodTotals(w, "CREDIT COLLECTIONS", r.CreditCollections)
	fmt.Fprintln(w, strings.Repeat("-", 62))
	fmt.Fprintf(w, "  %-40s %19s\n", "COLLECTED", pos.FormatMoney(r.CollectedBase))
	fmt.Fprintln(w, strings.Repeat("=", 62))
}

func printMethodTotals(w io.Writer, title string, totals []core.MethodTotal) {
	if len(totals) == 0 {
		return
	}
	fmt.Fprintln(w, strings.Repeat("-", 62))
	fmt.Fprintf(w, "  %s\n", title)
	for _, t := range totals {
		fmt.Fprintf(w, "  %-24s %4d  %14s  %14s\n", t.MethodName, t.Count, pos.FormatMoney(t.EnteredAmount), pos.FormatMoney(t.AmountBase))
	}
}
