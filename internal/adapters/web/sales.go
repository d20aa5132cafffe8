package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/app"
	"pos-terminal/internal/core"
)

// ── Draft orders ──────────────────────────────────────────────────────────────

// listDrafts handles GET /api/orders.
func (h *Handler) listDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.svc.ListDrafts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(drafts))
}

// getDraft handles GET /api/orders/{id}.
func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	d, err := h.svc.GetDraft(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// deleteDraft handles DELETE /api/orders/{id}.
func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDraft(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Sales ─────────────────────────────────────────────────────────────────────

// listSales handles GET /api/sales?status=&day=YYYY-MM-DD&limit=.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.SaleFilter{Status: q.Get("status")}
	if v := q.Get("day"); v != "" {
		day, ok := dateQuery(w, r, "day")
		if !ok {
			return
		}
		filter.Day = day
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, "limit must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}

	sales, err := h.svc.ListSales(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(sales))
}

// listPendingCredit handles GET /api/sales/pending-credit.
func (h *Handler) listPendingCredit(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.ListPendingCredit(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(sales))
}

// customerSales handles GET /api/customers/{id}/sales.
func (h *Handler) customerSales(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	history, err := h.svc.CustomerSales(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, history)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// recordCreditPayment handles POST /api/sales/{id}/credit-payments.
// Body: { method_id, amount, reference? }
func (h *Handler) recordCreditPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		MethodID  int    `json:"method_id"`
		Amount    string `json:"amount"`
		Reference string `json:"reference"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, r, "amount must be a number", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	cp, err := h.svc.RecordCreditPayment(r.Context(), app.CreditPaymentRequest{
		SaleID:    id,
		MethodID:  body.MethodID,
		Amount:    amount,
		Reference: body.Reference,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, cp)
}

// dailyClose handles GET /api/reports/daily-close?date=YYYY-MM-DD.
func (h *Handler) dailyClose(w http.ResponseWriter, r *http.Request) {
	day, ok := dateQuery(w, r, "date")
	if !ok {
		return
	}
	report, err := h.svc.DailyClose(r.Context(), day)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// ── Exchange rate ─────────────────────────────────────────────────────────────

// currentRate handles GET /api/exchange-rates/current.
func (h *Handler) currentRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.CurrentRate(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rate)
}

// setExchangeRate handles POST /api/exchange-rates (admin only).
// Body: { date?: "YYYY-MM-DD", rate }. Sessions already open keep their rate.
func (h *Handler) setExchangeRate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
		Rate string `json:"rate"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	rate, err := decimal.NewFromString(body.Rate)
	if err != nil {
		writeError(w, r, "rate must be a number", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	day := time.Now()
	if body.Date != "" {
		if day, err = time.Parse("2006-01-02", body.Date); err != nil {
			writeError(w, r, "date must be formatted YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}

	saved, err := h.svc.SetExchangeRate(r.Context(), day, rate)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, saved)
}
