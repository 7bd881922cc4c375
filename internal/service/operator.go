package service

import (
	"context"
	"fmt"

	"clearhouse/internal/model"
)

// OperatorStore persists the (operator, account) authorization relation.
type OperatorStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	IsAuthorized(ctx context.Context, operator, account string) (bool, error)
	PutAuthorization(ctx context.Context, operator, account string) error
	DeleteAuthorization(ctx context.Context, operator, account string) error
	AppendEvent(ctx context.Context, e model.Event) error
}

// OperatorService manages which operators may order transfers on an
// account's behalf. Only the account holder grants or revokes; grants
// never expire.
type OperatorService struct {
	store OperatorStore
}

func NewOperatorService(store OperatorStore) *OperatorService {
	return &OperatorService{store: store}
}

// Authorize grants operator the right to order transfers debiting the
// caller's account.
func (s *OperatorService) Authorize(ctx context.Context, account, operator string) error {
	if operator == model.ZeroAddress {
		return ErrZeroAccount
	}
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.store.IsAuthorized(ctx, operator, account)
		if err != nil {
			return fmt.Errorf("operator lookup: %w", err)
		}
		if ok {
			return ErrOperatorAuthorized
		}
		if err := s.store.PutAuthorization(ctx, operator, account); err != nil {
			return fmt.Errorf("put authorization: %w", err)
		}
		return s.store.AppendEvent(ctx, model.OperatorAuthorizedEvent(operator, account))
	})
}

// Revoke withdraws a previously granted authorization.
func (s *OperatorService) Revoke(ctx context.Context, account, operator string) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.store.IsAuthorized(ctx, operator, account)
		if err != nil {
			return fmt.Errorf("operator lookup: %w", err)
		}
		if !ok {
			return ErrOperatorNotAuthorized
		}
		if err := s.store.DeleteAuthorization(ctx, operator, account); err != nil {
			return fmt.Errorf("delete authorization: %w", err)
		}
		return s.store.AppendEvent(ctx, model.OperatorRevokedEvent(operator, account))
	})
}

// IsAuthorized is a pure query with no side effects.
func (s *OperatorService) IsAuthorized(ctx context.Context, operator, account string) (bool, error) {
	return s.store.IsAuthorized(ctx, operator, account)
}
