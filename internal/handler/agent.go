package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clearhouse/internal/mw"
	"clearhouse/internal/service"
)

type defineAgentRequest struct {
	Address string `json:"address"`
}

// DefineAgentHandler adds an address to the clearing-agent set.
func DefineAgentHandler(agentSvc *service.AgentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := mw.Caller(r.Context())

		var req defineAgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := agentSvc.Define(r.Context(), caller, req.Address); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func IsAgentHandler(agentSvc *service.AgentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")

		ok, err := agentSvc.IsAgent(r.Context(), address)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"agent": ok})
	}
}
