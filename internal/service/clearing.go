package service

import (
	"context"
	"fmt"
	"time"

	"clearhouse/internal/model"
)

// TransferStore persists transfer orders and their lifecycle events.
// WithTx must run the callback under the same serialization boundary that
// guards account balances: the validation and the mutation of one
// operation are atomic with respect to every other operation, or the
// balance check in execute races with the move.
type TransferStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetTransfer returns nil (and no error) for an unknown operation ID.
	GetTransfer(ctx context.Context, operationID string) (*model.Transfer, error)
	// CreateTransfer fails with ErrOperationIDUsed on a duplicate ID,
	// including IDs held by terminal orders. IDs are never recycled.
	CreateTransfer(ctx context.Context, t model.Transfer) error
	UpdateTransferStatus(ctx context.Context, operationID string, status model.Status) error
	AppendEvent(ctx context.Context, e model.Event) error
}

// Ledger is the balance reservation oracle: the base token's spendable
// balance query and its atomic value move. Move fails with
// ErrInsufficientBalance when the payer no longer covers the value; the
// balance may have changed since order time, so this is the second line
// of defense against double-spend.
type Ledger interface {
	SpendableBalance(ctx context.Context, account string) (int64, error)
	Move(ctx context.Context, from, to string, value int64) error
}

// AgentRegistry answers whether an address may process, reject or execute
// any order.
type AgentRegistry interface {
	IsAgent(ctx context.Context, address string) (bool, error)
}

// OperatorRegistry answers whether operator may create orders debiting
// account.
type OperatorRegistry interface {
	IsAuthorized(ctx context.Context, operator, account string) (bool, error)
}

// ClearingService is the transfer-order state machine. Caller identity is
// always an explicit parameter; there is no ambient caller.
//
// Funds are not escrowed at order time: the value is validated against
// the spendable balance but never reserved, so two concurrent orders may
// together exceed the balance and the second one to reach execute fails
// at the ledger move. This optimistic fail-at-settlement policy is
// deliberate.
type ClearingService struct {
	store     TransferStore
	ledger    Ledger
	agents    AgentRegistry
	operators OperatorRegistry
}

func NewClearingService(store TransferStore, ledger Ledger, agents AgentRegistry, operators OperatorRegistry) *ClearingService {
	return &ClearingService{
		store:     store,
		ledger:    ledger,
		agents:    agents,
		operators: operators,
	}
}

// OrderTransfer creates an order debiting the caller's own account.
func (s *ClearingService) OrderTransfer(ctx context.Context, caller, operationID, to string, value int64) error {
	if operationID == "" {
		return ErrEmptyOperationID
	}
	if value <= 0 {
		return ErrNonPositiveValue
	}
	if to == model.ZeroAddress {
		return ErrZeroPayee
	}
	return s.create(ctx, caller, operationID, caller, to, value)
}

// OrderTransferFrom creates an order debiting another account on whose
// behalf the caller has been authorized as an operator.
func (s *ClearingService) OrderTransferFrom(ctx context.Context, caller, operationID, from, to string, value int64) error {
	if operationID == "" {
		return ErrEmptyOperationID
	}
	if value <= 0 {
		return ErrNonPositiveValue
	}
	if from == model.ZeroAddress {
		return ErrZeroPayer
	}
	if to == model.ZeroAddress {
		return ErrZeroPayee
	}
	ok, err := s.operators.IsAuthorized(ctx, caller, from)
	if err != nil {
		return fmt.Errorf("operator lookup: %w", err)
	}
	if !ok {
		return ErrNotOperator
	}
	return s.create(ctx, caller, operationID, from, to, value)
}

func (s *ClearingService) create(ctx context.Context, orderer, operationID, from, to string, value int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetTransfer(ctx, operationID)
		if err != nil {
			return fmt.Errorf("get transfer: %w", err)
		}
		if existing != nil {
			return ErrOperationIDUsed
		}

		balance, err := s.ledger.SpendableBalance(ctx, from)
		if err != nil {
			return fmt.Errorf("spendable balance: %w", err)
		}
		if balance < value {
			return ErrInsufficientBalance
		}

		now := time.Now()
		t := model.Transfer{
			OperationID: operationID,
			Orderer:     orderer,
			From:        from,
			To:          to,
			Value:       value,
			Status:      model.StatusOrdered,
			OrderedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.CreateTransfer(ctx, t); err != nil {
			if IsDomainError(err) {
				return err
			}
			return fmt.Errorf("create transfer: %w", err)
		}
		return s.store.AppendEvent(ctx, model.TransferOrderedEvent(orderer, operationID, from, to, value))
	})
}

// ProcessTransfer puts an Ordered transfer in process. Agent only.
func (s *ClearingService) ProcessTransfer(ctx context.Context, caller, operationID string) error {
	if err := s.requireAgent(ctx, caller, ErrProcessNotAgent); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.store.GetTransfer(ctx, operationID)
		if err != nil {
			return fmt.Errorf("get transfer: %w", err)
		}
		// An unknown operation ID satisfies no status predicate.
		if t == nil || t.Status != model.StatusOrdered {
			return ErrProcessBadStatus
		}
		if err := s.store.UpdateTransferStatus(ctx, operationID, model.StatusInProcess); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.store.AppendEvent(ctx, model.TransferInProcessEvent(caller, operationID))
	})
}

// RejectTransfer rejects an Ordered or InProcess transfer. Agent only.
// Funds were never moved, so there is no ledger effect.
func (s *ClearingService) RejectTransfer(ctx context.Context, caller, operationID, reason string) error {
	if err := s.requireAgent(ctx, caller, ErrRejectNotAgent); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.store.GetTransfer(ctx, operationID)
		if err != nil {
			return fmt.Errorf("get transfer: %w", err)
		}
		if t == nil || (t.Status != model.StatusOrdered && t.Status != model.StatusInProcess) {
			return ErrRejectBadStatus
		}
		if err := s.store.UpdateTransferStatus(ctx, operationID, model.StatusRejected); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.store.AppendEvent(ctx, model.TransferRejectedEvent(caller, operationID, reason))
	})
}

// CancelTransfer cancels an Ordered transfer. Only the order's own payer
// may cancel; an order already handed to the agent (InProcess) or in a
// terminal status cannot be cancelled.
func (s *ClearingService) CancelTransfer(ctx context.Context, caller, operationID string) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.store.GetTransfer(ctx, operationID)
		if err != nil {
			return fmt.Errorf("get transfer: %w", err)
		}
		// A missing record has no payer, so an unknown ID also fails
		// the payer check.
		if t == nil || t.From != caller {
			return ErrCancelNotPayer
		}
		if t.Status != model.StatusOrdered {
			return ErrCancelBadStatus
		}
		if err := s.store.UpdateTransferStatus(ctx, operationID, model.StatusCancelled); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.store.AppendEvent(ctx, model.TransferCancelledEvent(caller, operationID))
	})
}

// ExecuteTransfer settles an Ordered or InProcess transfer: it moves the
// value on the ledger and marks the order Executed. Agent only. This is
// the only transition that touches the ledger, and it happens exactly
// once per order.
func (s *ClearingService) ExecuteTransfer(ctx context.Context, caller, operationID string) error {
	if err := s.requireAgent(ctx, caller, ErrExecuteNotAgent); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.store.GetTransfer(ctx, operationID)
		if err != nil {
			return fmt.Errorf("get transfer: %w", err)
		}
		if t == nil || (t.Status != model.StatusOrdered && t.Status != model.StatusInProcess) {
			return ErrExecuteBadStatus
		}
		if err := s.ledger.Move(ctx, t.From, t.To, t.Value); err != nil {
			if IsDomainError(err) {
				return err
			}
			return fmt.Errorf("move funds: %w", err)
		}
		if err := s.store.UpdateTransferStatus(ctx, operationID, model.StatusExecuted); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.store.AppendEvent(ctx, model.TransferExecutedEvent(caller, operationID))
	})
}

// RetrieveTransfer returns the full order record for an operation ID.
func (s *ClearingService) RetrieveTransfer(ctx context.Context, operationID string) (*model.Transfer, error) {
	t, err := s.store.GetTransfer(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if t == nil {
		return nil, ErrTransferNotFound
	}
	return t, nil
}

func (s *ClearingService) requireAgent(ctx context.Context, caller string, denied error) error {
	ok, err := s.agents.IsAgent(ctx, caller)
	if err != nil {
		return fmt.Errorf("agent lookup: %w", err)
	}
	if !ok {
		return denied
	}
	return nil
}
