package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pos-terminal/internal/app"
	"pos-terminal/internal/core"
	"pos-terminal/internal/metrics"
)

// Config carries the HTTP adapter settings.
type Config struct {
	AllowedOrigins string
	JWTSecret      string
	JWTTTL         time.Duration
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	jwtTTL    time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 8 * time.Hour
	}
	h := &Handler{
		svc:       svc,
		jwtSecret: cfg.JWTSecret,
		jwtTTL:    cfg.JWTTTL,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.log, h.metrics))
	r.Use(Recoverer(h.log))
	r.Use(CORS(cfg.AllowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	r.With(RequestBodyLimit(1<<16)).Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Terminal sessions
		r.Post("/api/sessions", h.openSession)
		r.Get("/api/sessions/{id}", h.getSession)
		r.Delete("/api/sessions/{id}", h.closeSession)
		r.Post("/api/sessions/{id}/commands", h.sessionCommand)

		// Catalog and customers
		r.Get("/api/products", h.searchProducts)
		r.Get("/api/categories", h.listCategories)
		r.Get("/api/customers", h.searchCustomers)
		r.Post("/api/customers", h.createCustomer)
		r.Get("/api/customers/{id}/sales", h.customerSales)
		r.Get("/api/payment-methods", h.listPaymentMethods)

		// Draft orders
		r.Get("/api/orders", h.listDrafts)
		r.Get("/api/orders/{id}", h.getDraft)
		r.Delete("/api/orders/{id}", h.deleteDraft)

		// Sales
		r.Get("/api/sales", h.listSales)
		r.Get("/api/sales/pending-credit", h.listPendingCredit)
		r.Get("/api/sales/{id}", h.getSale)
		r.Post("/api/sales/{id}/credit-payments", h.recordCreditPayment)
		r.Get("/api/reports/daily-close", h.dailyClose)

		// Exchange rate
		r.Get("/api/exchange-rates/current", h.currentRate)
		r.With(RequireRole(core.RoleAdmin)).Post("/api/exchange-rates", h.setExchangeRate)
	})

	h.router = r
	return r
}

// health reports liveness and the rate new sessions would open with.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status       string `json:"status"`
		ExchangeRate string `json:"exchange_rate,omitempty"`
	}
	resp := response{Status: "ok"}
	if rate, err := h.svc.CurrentRate(r.Context()); err == nil {
		resp.ExchangeRate = rate.Rate.String()
	}
	writeJSON(w, resp)
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses the positive integer URL parameter name, writing 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, name+" must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// dateQuery parses an optional YYYY-MM-DD query value. Absent means today.
func dateQuery(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Now(), true
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		writeError(w, r, name+" must be formatted YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return time.Time{}, false
	}
	return d, true
}
