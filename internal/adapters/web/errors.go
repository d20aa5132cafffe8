package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"pos-terminal/internal/app"
	"pos-terminal/internal/core"
	"pos-terminal/internal/logging"
	"pos-terminal/internal/pos"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Snapshot is the terminal state after a failed session command.
	Snapshot *pos.Snapshot `json:"snapshot,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, status, errorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCreated writes a JSON response with status 201.
func writeCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps a service or engine error onto an HTTP status, an error code
// and the message shown to the operator.
//
//	*pos.ValidationError      422 VALIDATION_FAILED
//	pos.ErrStaleResponse      409 STALE_RESPONSE
//	*pos.CollaboratorError    422 REFUSED when the backend refused, else 502 BACKEND_UNAVAILABLE
//	app.ErrSessionNotFound    404 SESSION_NOT_FOUND
//	*core.RequestError        404 / 422 / 409 / 401 by kind
//	anything else             500 INTERNAL_ERROR
func classify(err error) (int, errorResponse) {
	var ve *pos.ValidationError
	var ce *pos.CollaboratorError
	var re *core.RequestError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, errorResponse{Error: ve.Message, Code: "VALIDATION_FAILED", Field: ve.Field}
	case errors.Is(err, pos.ErrStaleResponse):
		return http.StatusConflict, errorResponse{Error: "the order changed while the request was in progress", Code: "STALE_RESPONSE"}
	case errors.As(err, &ce):
		if errors.Is(err, pos.ErrRefused) {
			return http.StatusUnprocessableEntity, errorResponse{Error: ce.UserMessage(), Code: "REFUSED"}
		}
		return http.StatusBadGateway, errorResponse{Error: ce.UserMessage(), Code: "BACKEND_UNAVAILABLE"}
	case errors.Is(err, app.ErrSessionNotFound):
		return http.StatusNotFound, errorResponse{Error: "session not found or expired", Code: "SESSION_NOT_FOUND"}
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid username or password", Code: "UNAUTHORIZED"}
	case errors.As(err, &re):
		switch {
		case errors.Is(re, core.ErrNotFound):
			return http.StatusNotFound, errorResponse{Error: re.Message, Code: "NOT_FOUND"}
		case errors.Is(re, core.ErrConflict):
			return http.StatusConflict, errorResponse{Error: re.Message, Code: "CONFLICT"}
		default:
			return http.StatusUnprocessableEntity, errorResponse{Error: re.Message, Code: "VALIDATION_FAILED"}
		}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
}

// writeServiceError writes err as a structured response. Unexpected errors are
// logged and reported without detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classify(err)
	if status >= http.StatusInternalServerError {
		h.logFailure(r, err)
	}
	writeErrorResponse(w, r, status, resp)
}

func (h *Handler) logFailure(r *http.Request, err error) {
	h.log.Error("request failed",
		zap.Error(err),
		zap.String("path", r.URL.Path),
		logging.RequestID(requestIDFromContext(r.Context())),
	)
}
