package model

import (
	"time"
)

// ZeroAddress is the null account sentinel. It is never a valid payer,
// payee, operator or agent.
const ZeroAddress = ""

// Status is the lifecycle status of a clearable transfer. The numeric
// values are part of the wire contract consumed by external auditors and
// must not be renumbered (there is no status 1).
type Status int

const (
	StatusOrdered   Status = 0
	StatusInProcess Status = 2
	StatusExecuted  Status = 3
	StatusRejected  Status = 4
	StatusCancelled Status = 5
)

func (s Status) String() string {
	switch s {
	case StatusOrdered:
		return "Ordered"
	case StatusInProcess:
		return "InProcess"
	case StatusExecuted:
		return "Executed"
	case StatusRejected:
		return "Rejected"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no transition may ever leave s.
func (s Status) Terminal() bool {
	return s == StatusExecuted || s == StatusRejected || s == StatusCancelled
}

// Transfer is one clearable transfer order, keyed by its caller-chosen
// operation ID. Orders are never deleted; terminal orders are retained
// for audit.
type Transfer struct {
	OperationID string    `json:"operationId"`
	Orderer     string    `json:"orderer"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       int64     `json:"value"`
	Status      Status    `json:"status"`
	OrderedAt   time.Time `json:"ordered_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
