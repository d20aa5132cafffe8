package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pos-terminal/internal/app"
)

// openSession handles POST /api/sessions.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	res, err := h.svc.OpenSession(r.Context(), claims.OperatorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, res)
}

// ownedSession returns the session named in the URL when it belongs to the
// authenticated operator. Another operator's session answers like an unknown
// one so ids are not confirmed across terminals.
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (*app.SessionResult, bool) {
	res, err := h.svc.Session(r.Context(), chi.URLParam(r, "id"))
	if err == nil && res.OperatorID != authFromContext(r.Context()).OperatorID {
		err = app.ErrSessionNotFound
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return nil, false
	}
	return res, true
}

// getSession handles GET /api/sessions/{id}.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	res, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, res)
}

// closeSession handles DELETE /api/sessions/{id}.
func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ownedSession(w, r); !ok {
		return
	}
	if err := h.svc.CloseSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionCommand handles POST /api/sessions/{id}/commands.
// Body: app.CommandRequest. A failed command answers with the error and the
// unchanged snapshot so the client can redraw.
func (h *Handler) sessionCommand(w http.ResponseWriter, r *http.Request) {
	var req app.CommandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Kind == "" {
		writeError(w, r, "kind is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if _, ok := h.ownedSession(w, r); !ok {
		return
	}

	res, err := h.svc.Execute(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		status, resp := classify(err)
		if status >= http.StatusInternalServerError {
			h.logFailure(r, err)
		}
		if res != nil {
			snap := res.Snapshot
			resp.Snapshot = &snap
		}
		writeErrorResponse(w, r, status, resp)
		return
	}
	writeJSON(w, res)
}
