package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clearhouse/internal/mw"
	"clearhouse/internal/service"
)

type authorizeOperatorRequest struct {
	Operator string `json:"operator"`
}

// AuthorizeOperatorHandler grants an operator the right to order
// transfers on the caller's account.
func AuthorizeOperatorHandler(operatorSvc *service.OperatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())

		var req authorizeOperatorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := operatorSvc.Authorize(r.Context(), caller, req.Operator); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func RevokeOperatorHandler(operatorSvc *service.OperatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())
		operator := chi.URLParam(r, "operator")

		if err := operatorSvc.Revoke(r.Context(), caller, operator); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// IsAuthorizedOperatorHandler reports whether the named operator may
// order transfers on an account. The account defaults to the caller's.
func IsAuthorizedOperatorHandler(operatorSvc *service.OperatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator := chi.URLParam(r, "operator")
		account := r.URL.Query().Get("account")
		if account == "" {
			account = mw.Caller(r.Context())
		}

		ok, err := operatorSvc.IsAuthorized(r.Context(), operator, account)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"authorized": ok})
	}
}
