package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pos-terminal/internal/core"
	"pos-terminal/internal/logging"
	"pos-terminal/internal/metrics"
	"pos-terminal/internal/pos"
)

// terminalBackend connects one session's terminal to the database services.
// Refusals (*core.RequestError) become unsuccessful results carrying the
// operator-facing message; any other error is reported as a transport failure.
type terminalBackend struct {
	sessionID  string
	operatorID int
	sales      core.SaleService
	drafts     core.DraftService
	metrics    *metrics.Metrics
	log        *zap.Logger
}

var _ pos.Backend = (*terminalBackend)(nil)

func (b *terminalBackend) FinalizeSale(ctx context.Context, req pos.FinalizeRequest) (*pos.FinalizeResult, error) {
	sale, err := b.sales.FinalizeSale(ctx, b.operatorID, req)
	if err != nil {
		msg, refused := b.failed("finalize_sale", err)
		if refused {
			return &pos.FinalizeResult{Success: false, Message: msg}, nil
		}
		return nil, err
	}

	kind := "cash"
	msg := fmt.Sprintf("Sale #%d recorded.", sale.ID)
	if sale.Status == core.SalePendingCredit {
		kind = "credit"
		msg = fmt.Sprintf("Credit sale #%d recorded. Balance due: %s.", sale.ID, pos.FormatMoney(sale.BalanceDue))
	}
	if b.metrics != nil {
		b.metrics.Sales.WithLabelValues(kind).Inc()
		b.metrics.SalesAmount.Add(sale.SubtotalBase.InexactFloat64())
	}
	b.log.Info("sale finalized",
		logging.SessionID(b.sessionID),
		logging.SaleID(sale.ID),
		zap.String("kind", kind),
		zap.String("subtotal_base", sale.SubtotalBase.StringFixed(2)),
	)
	return &pos.FinalizeResult{Success: true, SaleID: sale.ID, Message: msg}, nil
}

func (b *terminalBackend) SaveDraft(ctx context.Context, req pos.SaveDraftRequest) (*pos.SaveDraftResult, error) {
	id, err := b.drafts.SaveDraft(ctx, req.OrderID, req.CustomerID, req.Lines)
	if err != nil {
		msg, refused := b.failed("save_draft", err)
		if refused {
			return &pos.SaveDraftResult{Success: false, Message: msg}, nil
		}
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.Drafts.Inc()
	}
	b.log.Info("draft saved", logging.SessionID(b.sessionID), logging.OrderID(id))
	return &pos.SaveDraftResult{Success: true, OrderID: id, Message: fmt.Sprintf("Order #%d saved.", id)}, nil
}

func (b *terminalBackend) LoadDraft(ctx context.Context, orderID int) (*pos.LoadDraftResult, error) {
	d, err := b.drafts.LoadDraft(ctx, orderID)
	if err != nil {
		msg, refused := b.failed("load_draft", err)
		if refused {
			return &pos.LoadDraftResult{Success: false, Message: msg}, nil
		}
		return nil, err
	}
	b.log.Info("draft loaded", logging.SessionID(b.sessionID), logging.OrderID(orderID))
	return &pos.LoadDraftResult{
		Success:  true,
		Customer: &pos.Customer{ID: d.CustomerID, DisplayText: d.CustomerName},
		Lines:    d.Lines,
	}, nil
}

// failed logs and counts a failed call. It returns the refusal message when
// the error is a refusal rather than a transport failure.
func (b *terminalBackend) failed(op string, err error) (string, bool) {
	if b.metrics != nil {
		b.metrics.BackendFailure.WithLabelValues(op).Inc()
	}
	var re *core.RequestError
	if errors.As(err, &re) {
		b.log.Info("backend refused request",
			logging.SessionID(b.sessionID), zap.String("op", op), zap.String("reason", re.Message))
		return re.Message, true
	}
	b.log.Error("backend call failed",
		logging.SessionID(b.sessionID), zap.String("op", op), zap.Error(err))
	return "", false
}
