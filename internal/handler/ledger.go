package handler

import (
	"encoding/json"
	"net/http"

	"clearhouse/internal/mw"
	"clearhouse/internal/service"
)

type mintRequest struct {
	To    string `json:"to"`
	Value int64  `json:"value"`
}

// MintHandler credits freshly issued value to an account. Agent only.
func MintHandler(ledgerSvc *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())

		var req mintRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := ledgerSvc.Mint(r.Context(), caller, req.To, req.Value); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// BalanceHandler reports the caller's current spendable balance.
func BalanceHandler(ledgerSvc *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())

		balance, err := ledgerSvc.Balance(r.Context(), caller)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
	}
}
