package web

import (
	"net/http"
	"strconv"

	"pos-terminal/internal/core"
)

// searchProducts handles GET /api/products?q=&category=.
func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	var categoryID *int
	if v := r.URL.Query().Get("category"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "category must be an integer", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		categoryID = &id
	}
	products, err := h.svc.SearchProducts(r.Context(), r.URL.Query().Get("q"), categoryID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(products))
}

// listCategories handles GET /api/categories.
func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(categories))
}

// searchCustomers handles GET /api/customers?q=.
func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.SearchCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(customers))
}

// createCustomer handles POST /api/customers.
// Body: { first_name, last_name?, tax_id?, email?, phone?, address?, credit_limit? }
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in core.CustomerInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, c)
}

// listPaymentMethods handles GET /api/payment-methods.
func (h *Handler) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.svc.ListPaymentMethods(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(methods))
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
