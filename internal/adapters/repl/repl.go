package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pos-terminal/internal/app"
	"pos-terminal/internal/core"
	"pos-terminal/internal/pos"
)

var errExit = errors.New("exit")

// console is one interactive terminal session.
type console struct {
	svc       app.ApplicationService
	reader    *bufio.Reader
	out       io.Writer
	sessionID string
}

// Run starts the interactive REPL loop on a fresh terminal session.
// It reads slash commands from reader and writes everything to out.
// Sales recorded from the console carry no operator.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) error {
	open, err := svc.OpenSession(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to open terminal session: %w", err)
	}
	c := &console{svc: svc, reader: reader, out: out, sessionID: open.SessionID}
	defer svc.CloseSession(context.WithoutCancel(ctx), c.sessionID)

	fmt.Fprintln(out, "POS Terminal")
	fmt.Fprintf(out, "Exchange rate: %s  Tax: %s%%  IGTF: %s%%\n",
		open.Snapshot.ExchangeRate, open.Snapshot.TaxPercent, open.Snapshot.IGTFPercent)
	if open.Snapshot.ExchangeRate.IsZero() {
		fmt.Fprintln(out, "WARNING: no exchange rate is published; local-currency payments will be refused.")
	}
	fmt.Fprintln(out, "Type /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if readErr != nil {
				return nil
			}
			continue
		}
		if !strings.HasPrefix(input, "/") {
			fmt.Fprintln(out, "Commands start with '/'. Type /help for the list.")
			continue
		}
		if err := c.dispatch(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			fmt.Fprintf(out, "Error: %s\n", userMessage(err))
		}
		if readErr != nil {
			return nil
		}
	}
}

func (c *console) dispatch(ctx context.Context, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "products", "p":
		products, err := c.svc.SearchProducts(ctx, strings.Join(args, " "), nil)
		if err != nil {
			return err
		}
		printProducts(c.out, products)

	case "add", "a":
		id, ok := c.intArg(args, 0, "/add <product-id>")
		if !ok {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{Kind: "add_line", ProductID: id})

	case "qty":
		id, ok := c.intArg(args, 0, "/qty <product-id> <quantity>")
		if !ok || !c.needArgs(args, 2, "/qty <product-id> <quantity>") {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{Kind: "set_quantity", ProductID: id, Quantity: args[1]})

	case "price":
		id, ok := c.intArg(args, 0, "/price <product-id> <unit-price>")
		if !ok || !c.needArgs(args, 2, "/price <product-id> <unit-price>") {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{Kind: "set_unit_price", ProductID: id, Price: args[1]})

	case "disc":
		id, ok := c.intArg(args, 0, "/disc <product-id> <percent>")
		if !ok || !c.needArgs(args, 2, "/disc <product-id> <percent>") {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{Kind: "set_discount", ProductID: id, Percent: args[1]})

	case "rm":
		id, ok := c.intArg(args, 0, "/rm <product-id>")
		if !ok {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{Kind: "remove_line", ProductID: id})

	case "customers":
		customers, err := c.svc.SearchCustomers(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		printCustomers(c.out, customers)

	case "customer":
		id, ok := c.intArg(args, 0, "/customer <customer-id>")
		if !ok {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{Kind: "select_customer", CustomerID: id})

	case "new-customer":
		customer, err := c.newCustomerWizard(ctx)
		if err != nil || customer == nil {
			return err
		}
		return c.exec(ctx, app.CommandRequest{Kind: "select_customer", CustomerID: customer.ID})

	case "pay":
		return c.exec(ctx, app.CommandRequest{Kind: "enter_payment"})

	case "back":
		return c.exec(ctx, app.CommandRequest{Kind: "leave_payment"})

	case "methods":
		methods, err := c.svc.ListPaymentMethods(ctx)
		if err != nil {
			return err
		}
		printMethods(c.out, methods)

	case "tender":
		id, ok := c.intArg(args, 0, "/tender <method-id> <amount> [reference]")
		if !ok || !c.needArgs(args, 2, "/tender <method-id> <amount> [reference]") {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{
			Kind:      "add_payment",
			MethodID:  id,
			Amount:    args[1],
			Reference: strings.Join(args[2:], " "),
		})

	case "untender":
		n, ok := c.intArg(args, 0, "/untender <payment-number>")
		if !ok {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{Kind: "remove_payment", Index: n - 1})

	case "finalize":
		return c.exec(ctx, app.CommandRequest{Kind: "finalize"})

	case "credit":
		return c.exec(ctx, app.CommandRequest{Kind: "finalize", IsCredit: true})

	case "save":
		return c.exec(ctx, app.CommandRequest{Kind: "save_draft"})

	case "drafts":
		drafts, err := c.svc.ListDrafts(ctx)
		if err != nil {
			return err
		}
		printDrafts(c.out, drafts)

	case "load":
		id, ok := c.intArg(args, 0, "/load <order-id>")
		if !ok {
			return nil
		}
		return c.exec(ctx, app.CommandRequest{Kind: "load_draft", OrderID: id})

	case "reset":
		return c.exec(ctx, app.CommandRequest{Kind: "reset"})

	case "summary", "s":
		res, err := c.svc.Session(ctx, c.sessionID)
		if err != nil {
			return err
		}
		printSnapshot(c.out, res.Snapshot)

	case "help", "h":
		printHelp(c.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(c.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// exec applies a command and prints the resulting order, or the outcome of a
// finalize or save.
func (c *console) exec(ctx context.Context, req app.CommandRequest) error {
	res, err := c.svc.Execute(ctx, c.sessionID, req)
	if err != nil {
		return err
	}
	if o := res.Snapshot.Outcome; o != nil {
		fmt.Fprintln(c.out, o.Message)
		return nil
	}
	printSnapshot(c.out, res.Snapshot)
	return nil
}

func (c *console) intArg(args []string, i int, usage string) (int, bool) {
	if len(args) <= i {
		fmt.Fprintln(c.out, "Usage: "+usage)
		return 0, false
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		fmt.Fprintf(c.out, "Not a number: %s\nUsage: %s\n", args[i], usage)
		return 0, false
	}
	return n, true
}

func (c *console) needArgs(args []string, n int, usage string) bool {
	if len(args) < n {
		fmt.Fprintln(c.out, "Usage: "+usage)
		return false
	}
	return true
}

// userMessage picks the operator-facing text for err.
func userMessage(err error) string {
	var ve *pos.ValidationError
	var ce *pos.CollaboratorError
	var re *core.RequestError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ce):
		return ce.UserMessage()
	case errors.As(err, &re):
		return re.Message
	case errors.Is(err, pos.ErrStaleResponse):
		return "the order changed while the request was in progress; nothing was applied"
	}
	return err.Error()
}
