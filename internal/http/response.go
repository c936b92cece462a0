package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"donghaeng/internal/core"
	applog "donghaeng/internal/log"
	"donghaeng/internal/ports"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps err onto a status. Validation errors carry their message to
// the caller; internal failures are logged and reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	switch {
	case core.IsValidation(err), errors.Is(err, errMalformedBody):
		logger.DebugContext(ctx, "Request rejected",
			applog.NewFields().WithOperation(op).WithError(err, applog.ErrorTypeValidation).ToSlice()...)
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	default:
		logger.ErrorContext(ctx, "Request failed",
			applog.NewFields().WithOperation(op).WithError(err, applog.ErrorTypeInternal).ToSlice()...)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
