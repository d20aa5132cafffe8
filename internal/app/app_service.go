package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pos-terminal/internal/core"
	"pos-terminal/internal/logging"
	"pos-terminal/internal/metrics"
	"pos-terminal/internal/pos"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

const customerHistoryLimit = 500

// Services are the database-backed collaborators the application composes.
type Services struct {
	Catalog        core.CatalogService
	Customers      core.CustomerService
	PaymentMethods core.PaymentMethodService
	Settings       core.SettingsService
	Drafts         core.DraftService
	Sales          core.SaleService
	Reports        core.ReportingService
	Operators      core.OperatorService
}

// Options tune session behaviour.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// SessionTTL is how long an idle session is kept.
	SessionTTL time.Duration

	// Used when the store settings row is missing.
	DefaultTaxPercent  decimal.Decimal
	DefaultIGTFPercent decimal.Decimal

	// RateOverride replaces the published exchange rate when positive.
	RateOverride decimal.Decimal
}

type appService struct {
	svc      Services
	opts     Options
	log      *zap.Logger
	sessions *sessionStore
}

// NewAppService constructs an appService that satisfies ApplicationService.
// Idle sessions are purged in the background until ctx is done.
func NewAppService(ctx context.Context, svc Services, opts Options) ApplicationService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	s := &appService{
		svc:      svc,
		opts:     opts,
		log:      opts.Logger,
		sessions: newSessionStore(opts.SessionTTL, opts.Metrics, opts.Logger),
	}
	s.sessions.startPurge(ctx)
	return s
}

// ── Sessions ──────────────────────────────────────────────────────────────────

// OpenSession starts a terminal with the store's tax settings and the current exchange rate.
func (s *appService) OpenSession(ctx context.Context, operatorID int) (*SessionResult, error) {
	settings, err := s.sessionSettings(ctx)
	if err != nil {
		return nil, err
	}

	sess := &session{ID: uuid.NewString(), OperatorID: operatorID}
	backend := &terminalBackend{
		sessionID:  sess.ID,
		operatorID: operatorID,
		sales:      s.svc.Sales,
		drafts:     s.svc.Drafts,
		metrics:    s.opts.Metrics,
		log:        s.log,
	}
	sess.Terminal, err = pos.NewTerminal(backend, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	s.sessions.put(sess)

	s.log.Info("session opened",
		logging.SessionID(sess.ID),
		zap.Int("operator_id", operatorID),
		zap.String("exchange_rate", settings.ExchangeRate.String()),
	)
	return sess.result(sess.Terminal.Snapshot()), nil
}

func (s *appService) sessionSettings(ctx context.Context) (pos.Settings, error) {
	settings := pos.Settings{
		TaxPercent:  s.opts.DefaultTaxPercent,
		IGTFPercent: s.opts.DefaultIGTFPercent,
	}
	st, err := s.svc.Settings.LoadSettings(ctx)
	switch {
	case err == nil:
		settings.TaxPercent = st.TaxPercent
		settings.IGTFPercent = st.IGTFPercent
	case errors.Is(err, core.ErrNotFound):
		s.log.Warn("store settings missing, using defaults")
	default:
		return pos.Settings{}, err
	}

	rate, err := s.CurrentRate(ctx)
	switch {
	case err == nil:
		settings.ExchangeRate = rate.Rate
	case errors.Is(err, core.ErrNotFound):
		// The terminal still opens; local-currency tenders are refused until a rate exists.
		s.log.Warn("no exchange rate published, opening session with rate 0")
	default:
		return pos.Settings{}, err
	}
	return settings, nil
}

// Session returns the current snapshot of an open session.
func (s *appService) Session(_ context.Context, sessionID string) (*SessionResult, error) {
	sess, ok := s.sessions.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.result(sess.Terminal.Snapshot()), nil
}

// Execute resolves req into a terminal command and applies it.
func (s *appService) Execute(ctx context.Context, sessionID string, req CommandRequest) (*SessionResult, error) {
	sess, ok := s.sessions.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	cmd, err := s.resolveCommand(ctx, req)
	if err != nil {
		return sess.result(sess.Terminal.Snapshot()), err
	}
	snap, err := sess.Terminal.Apply(ctx, cmd)
	if errors.Is(err, pos.ErrStaleResponse) {
		s.log.Info("discarded stale response", logging.SessionID(sess.ID), zap.String("command", cmd.Kind()))
	}
	return sess.result(snap), err
}

// CloseSession discards the session and its order.
func (s *appService) CloseSession(_ context.Context, sessionID string) error {
	if !s.sessions.delete(sessionID) {
		return ErrSessionNotFound
	}
	s.log.Info("session closed", logging.SessionID(sessionID))
	return nil
}

// resolveCommand builds the engine command for req. Product, customer and
// payment method data is always read from the database.
func (s *appService) resolveCommand(ctx context.Context, req CommandRequest) (pos.Command, error) {
	switch req.Kind {
	case pos.AddLine{}.Kind():
		p, err := s.svc.Catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, &core.RequestError{Kind: core.ErrInvalidInput, Message: fmt.Sprintf("%s is not available for sale", p.Name)}
		}
		return pos.AddLine{ProductID: p.ID, Name: p.Name, CategoryName: p.CategoryName, UnitPrice: p.Price}, nil
	case pos.SetQuantity{}.Kind():
		return pos.SetQuantity{ProductID: req.ProductID, Quantity: req.Quantity}, nil
	case pos.SetUnitPrice{}.Kind():
		return pos.SetUnitPrice{ProductID: req.ProductID, Price: req.Price}, nil
	case pos.SetDiscount{}.Kind():
		return pos.SetDiscount{ProductID: req.ProductID, Percent: req.Percent}, nil
	case pos.RemoveLine{}.Kind():
		return pos.RemoveLine{ProductID: req.ProductID}, nil
	case pos.SelectCustomer{}.Kind():
		c, err := s.svc.Customers.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
		return pos.SelectCustomer{Customer: pos.Customer{ID: c.ID, DisplayText: c.DisplayText()}}, nil
	case pos.ClearCustomer{}.Kind():
		return pos.ClearCustomer{}, nil
	case pos.EnterPayment{}.Kind():
		return pos.EnterPayment{}, nil
	case pos.LeavePayment{}.Kind():
		return pos.LeavePayment{}, nil
	case pos.AddPayment{}.Kind():
		m, err := s.svc.PaymentMethods.GetPaymentMethod(ctx, req.MethodID)
		if err != nil {
			return nil, err
		}
		return pos.AddPayment{Method: m.POS(), Amount: req.Amount, Reference: req.Reference}, nil
	case pos.RemovePayment{}.Kind():
		return pos.RemovePayment{Index: req.Index}, nil
	case pos.Finalize{}.Kind():
		return pos.Finalize{IsCredit: req.IsCredit}, nil
	case pos.SaveDraft{}.Kind():
		return pos.SaveDraft{}, nil
	case pos.LoadDraft{}.Kind():
		return pos.LoadDraft{OrderID: req.OrderID}, nil
	case pos.Reset{}.Kind():
		return pos.Reset{}, nil
	}
	return nil, &core.RequestError{Kind: core.ErrInvalidInput, Message: fmt.Sprintf("unknown command %q", req.Kind)}
}

// ── Catalog and customers ─────────────────────────────────────────────────────

func (s *appService) SearchProducts(ctx context.Context, text string, categoryID *int) ([]core.Product, error) {
	return s.svc.Catalog.SearchProducts(ctx, text, categoryID)
}

func (s *appService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.svc.Catalog.ListCategories(ctx)
}

func (s *appService) SearchCustomers(ctx context.Context, text string) ([]core.Customer, error) {
	return s.svc.Customers.SearchCustomers(ctx, text)
}

func (s *appService) CreateCustomer(ctx context.Context, in core.CustomerInput) (*core.Customer, error) {
	if err := checkRange("credit limit", in.CreditLimit); err != nil {
		return nil, err
	}
	return s.svc.Customers.CreateCustomer(ctx, in)
}

func (s *appService) ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error) {
	return s.svc.PaymentMethods.ListPaymentMethods(ctx)
}

// ── Drafts and sales ──────────────────────────────────────────────────────────

func (s *appService) ListDrafts(ctx context.Context) ([]core.DraftSummary, error) {
	return s.svc.Drafts.ListDrafts(ctx)
}

func (s *appService) GetDraft(ctx context.Context, id int) (*core.Draft, error) {
	return s.svc.Drafts.LoadDraft(ctx, id)
}

func (s *appService) DeleteDraft(ctx context.Context, id int) error {
	if err := s.svc.Drafts.DeleteDraft(ctx, id); err != nil {
		return err
	}
	s.log.Info("draft deleted", logging.OrderID(id))
	return nil
}

func (s *appService) ListSales(ctx context.Context, filter core.SaleFilter) ([]core.Sale, error) {
	return s.svc.Sales.ListSales(ctx, filter)
}

func (s *appService) CustomerSales(ctx context.Context, customerID int) (*CustomerHistory, error) {
	c, err := s.svc.Customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	sales, err := s.svc.Sales.ListSales(ctx, core.SaleFilter{CustomerID: customerID, Limit: customerHistoryLimit})
	if err != nil {
		return nil, err
	}
	h := &CustomerHistory{Customer: *c, Sales: sales}
	for _, sl := range sales {
		if sl.Status == core.SalePendingCredit {
			h.BalanceDue = h.BalanceDue.Add(sl.BalanceDue)
		}
	}
	if h.Sales == nil {
		h.Sales = []core.Sale{}
	}
	return h, nil
}

func (s *appService) ListPendingCredit(ctx context.Context) ([]core.Sale, error) {
	return s.svc.Sales.ListPendingCredit(ctx)
}

func (s *appService) GetSale(ctx context.Context, id int) (*core.Sale, error) {
	return s.svc.Sales.GetSale(ctx, id)
}

// RecordCreditPayment converts local-currency amounts at the current rate.
func (s *appService) RecordCreditPayment(ctx context.Context, req CreditPaymentRequest) (*core.CreditPayment, error) {
	if err := checkRange("amount", req.Amount); err != nil {
		return nil, err
	}
	rate := decimal.Zero
	r, err := s.CurrentRate(ctx)
	switch {
	case err == nil:
		rate = r.Rate
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	cp, err := s.svc.Sales.RecordCreditPayment(ctx, core.CreditPaymentInput{
		SaleID:    req.SaleID,
		MethodID:  req.MethodID,
		Amount:    req.Amount,
		Reference: req.Reference,
	}, rate)
	if err != nil {
		return nil, err
	}
	s.log.Info("credit payment recorded",
		logging.SaleID(cp.SaleID),
		zap.String("amount_base", cp.AmountBase.StringFixed(2)),
	)
	return cp, nil
}

func (s *appService) DailyClose(ctx context.Context, day time.Time) (*core.DailyClose, error) {
	return s.svc.Reports.DailyClose(ctx, day)
}

// ── Exchange rate ─────────────────────────────────────────────────────────────

// CurrentRate returns the configured override, or else the latest published rate.
func (s *appService) CurrentRate(ctx context.Context) (*RateResult, error) {
	if s.opts.RateOverride.IsPositive() {
		return &RateResult{Rate: s.opts.RateOverride, Date: time.Now(), Overridden: true}, nil
	}
	r, err := s.svc.Settings.LatestExchangeRate(ctx)
	if err != nil {
		return nil, err
	}
	return &RateResult{Rate: r.Rate, Date: r.Date}, nil
}

func (s *appService) SetExchangeRate(ctx context.Context, day time.Time, rate decimal.Decimal) (*core.ExchangeRate, error) {
	if err := checkRange("rate", rate); err != nil {
		return nil, err
	}
	r, err := s.svc.Settings.SetExchangeRate(ctx, day, rate)
	if err != nil {
		return nil, err
	}
	s.log.Info("exchange rate published",
		zap.String("date", r.Date.Format("2006-01-02")),
		zap.String("rate", r.Rate.String()),
	)
	return r, nil
}

// ── Operators ─────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateOperator(ctx context.Context, username, password string) (*OperatorSession, error) {
	o, err := s.svc.Operators.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &OperatorSession{OperatorID: o.ID, Username: o.Username, Role: o.Role}, nil
}

func (s *appService) GetOperator(ctx context.Context, operatorID int) (*OperatorSession, error) {
	o, err := s.svc.Operators.GetByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	return &OperatorSession{OperatorID: o.ID, Username: o.Username, Role: o.Role}, nil
}

func (s *appService) CreateOperator(ctx context.Context, username, password, role string) (*OperatorSession, error) {
	o, err := s.svc.Operators.CreateOperator(ctx, username, password, role)
	if err != nil {
		return nil, err
	}
	s.log.Info("operator created", zap.String("username", o.Username), zap.String("role", o.Role))
	return &OperatorSession{OperatorID: o.ID, Username: o.Username, Role: o.Role}, nil
}

// checkRange refuses client-supplied numbers that decoded fine but are too
// large or too precise to compute with.
func checkRange(field string, d decimal.Decimal) error {
	if !pos.InRange(d) {
		return &core.RequestError{Kind: core.ErrInvalidInput, Message: fmt.Sprintf("%s is out of range", field)}
	}
	return nil
}
