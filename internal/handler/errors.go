package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"clearhouse/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeServiceError maps the five domain error classes onto HTTP status
// codes and surfaces the exact reason string to the caller.
func writeServiceError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrTransferNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrState):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	default:
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}
