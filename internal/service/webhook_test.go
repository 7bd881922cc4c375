package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"clearhouse/internal/model"
	"clearhouse/internal/service"
)

func TestWebhookClientDeliver(t *testing.T) {
	t.Run("posts the event with its contract field keys", func(t *testing.T) {
		var got model.Event
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/events", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		e := model.TransferOrderedEvent(payer, opID, payer, payee, 1)
		client := service.NewWebhookClient(srv.URL)
		require.NoError(t, client.Deliver(context.Background(), e))

		require.Equal(t, e.ID, got.ID)
		require.Equal(t, model.EventTransferOrdered, got.Type)
		require.Equal(t, payer, got.Fields["orderer"])
		require.Equal(t, opID, got.Fields["operationId"])
		require.Equal(t, payer, got.Fields["from"])
		require.Equal(t, payee, got.Fields["to"])
		require.EqualValues(t, 1, got.Fields["value"])
	})

	t.Run("treats a non-2xx response as failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadGateway)
		}))
		defer srv.Close()

		client := service.NewWebhookClient(srv.URL)
		err := client.Deliver(context.Background(), model.TransferExecutedEvent(agent, opID))
		require.Error(t, err)
	})
}
