package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clearhouse/internal/mw"
	"clearhouse/internal/service"
)

type orderTransferRequest struct {
	OperationID string `json:"operationId"`
	To          string `json:"to"`
	Value       int64  `json:"value"`
}

// OrderTransferHandler creates a clearable transfer debiting the caller's
// own account.
func OrderTransferHandler(clearingSvc *service.ClearingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())

		var req orderTransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := clearingSvc.OrderTransfer(r.Context(), caller, req.OperationID, req.To, req.Value); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

type orderTransferFromRequest struct {
	OperationID string `json:"operationId"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       int64  `json:"value"`
}

// OrderTransferFromHandler creates a clearable transfer debiting another
// account the caller operates on behalf of.
func OrderTransferFromHandler(clearingSvc *service.ClearingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())

		var req orderTransferFromRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := clearingSvc.OrderTransferFrom(r.Context(), caller, req.OperationID, req.From, req.To, req.Value); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func ProcessTransferHandler(clearingSvc *service.ClearingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())
		operationID := chi.URLParam(r, "operationID")

		if err := clearingSvc.ProcessTransfer(r.Context(), caller, operationID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

type rejectTransferRequest struct {
	Reason string `json:"reason"`
}

func RejectTransferHandler(clearingSvc *service.ClearingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())
		operationID := chi.URLParam(r, "operationID")

		var req rejectTransferRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		if err := clearingSvc.RejectTransfer(r.Context(), caller, operationID, req.Reason); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func CancelTransferHandler(clearingSvc *service.ClearingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())
		operationID := chi.URLParam(r, "operationID")

		if err := clearingSvc.CancelTransfer(r.Context(), caller, operationID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func ExecuteTransferHandler(clearingSvc *service.ClearingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())
		operationID := chi.URLParam(r, "operationID")

		if err := clearingSvc.ExecuteTransfer(r.Context(), caller, operationID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func RetrieveTransferHandler(clearingSvc *service.ClearingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operationID := chi.URLParam(r, "operationID")

		t, err := clearingSvc.RetrieveTransfer(r.Context(), operationID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}
