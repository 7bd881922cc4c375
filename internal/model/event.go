package model

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle event names. Names and field keys are consumed by external
// auditors and indexers and must be kept verbatim.
const (
	EventTransferOrdered    = "ClearableTransferOrdered"
	EventTransferInProcess  = "ClearableTransferInProcess"
	EventTransferRejected   = "ClearableTransferRejected"
	EventTransferCancelled  = "ClearableTransferCancelled"
	EventTransferExecuted   = "ClearableTransferExecuted"
	EventOperatorAuthorized = "AuthorizedClearableTransferOperator"
	EventOperatorRevoked    = "RevokedClearableTransferOperator"
)

// Event is one lifecycle notification. Every mutating operation records
// exactly one event, in the same transaction as the mutation.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"event"`
	Fields    map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

func newEvent(eventType string, fields map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Fields:    fields,
		CreatedAt: time.Now(),
	}
}

func TransferOrderedEvent(orderer, operationID, from, to string, value int64) Event {
	return newEvent(EventTransferOrdered, map[string]any{
		"orderer":     orderer,
		"operationId": operationID,
		"from":        from,
		"to":          to,
		"value":       value,
	})
}

func TransferInProcessEvent(orderer, operationID string) Event {
	return newEvent(EventTransferInProcess, map[string]any{
		"orderer":     orderer,
		"operationId": operationID,
	})
}

func TransferRejectedEvent(orderer, operationID, reason string) Event {
	return newEvent(EventTransferRejected, map[string]any{
		"orderer":     orderer,
		"operationId": operationID,
		"reason":      reason,
	})
}

func TransferCancelledEvent(orderer, operationID string) Event {
	return newEvent(EventTransferCancelled, map[string]any{
		"orderer":     orderer,
		"operationId": operationID,
	})
}

func TransferExecutedEvent(orderer, operationID string) Event {
	return newEvent(EventTransferExecuted, map[string]any{
		"orderer":     orderer,
		"operationId": operationID,
	})
}

func OperatorAuthorizedEvent(operator, account string) Event {
	return newEvent(EventOperatorAuthorized, map[string]any{
		"operator": operator,
		"account":  account,
	})
}

func OperatorRevokedEvent(operator, account string) Event {
	return newEvent(EventOperatorRevoked, map[string]any{
		"operator": operator,
		"account":  account,
	})
}
