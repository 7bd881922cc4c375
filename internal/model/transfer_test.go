package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusNumericEncoding(t *testing.T) {
	// The numeric values are consumed by external indexers; there is
	// deliberately no status 1.
	require.Equal(t, Status(0), StatusOrdered)
	require.Equal(t, Status(2), StatusInProcess)
	require.Equal(t, Status(3), StatusExecuted)
	require.Equal(t, Status(4), StatusRejected)
	require.Equal(t, Status(5), StatusCancelled)
}

func TestStatusTerminal(t *testing.T) {
	require.False(t, StatusOrdered.Terminal())
	require.False(t, StatusInProcess.Terminal())
	require.True(t, StatusExecuted.Terminal())
	require.True(t, StatusRejected.Terminal())
	require.True(t, StatusCancelled.Terminal())
}

func TestTransferMarshalsStatusAsNumber(t *testing.T) {
	tr := Transfer{
		OperationID: "op-1",
		Orderer:     "payer",
		From:        "payer",
		To:          "payee",
		Value:       1,
		Status:      StatusCancelled,
	}

	raw, err := json.Marshal(tr)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, float64(5), decoded["status"])
	require.Equal(t, "op-1", decoded["operationId"])
}

func TestEventFieldKeys(t *testing.T) {
	e := TransferOrderedEvent("orderer-1", "op-1", "payer", "payee", 7)
	require.NotEmpty(t, e.ID)
	require.Equal(t, EventTransferOrdered, e.Type)

	raw, err := json.Marshal(e.Fields)
	require.NoError(t, err)
	require.JSONEq(t, `{"orderer":"orderer-1","operationId":"op-1","from":"payer","to":"payee","value":7}`, string(raw))
}
