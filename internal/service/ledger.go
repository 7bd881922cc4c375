package service

import (
	"context"
	"fmt"

	"clearhouse/internal/model"
)

// MintLedger extends the oracle with the base token's issuance surface.
type MintLedger interface {
	Ledger
	Mint(ctx context.Context, to string, value int64) error
}

// LedgerService exposes the base-token surface the clearing layer sits
// on: balance queries and agent-gated issuance.
type LedgerService struct {
	ledger MintLedger
	agents AgentRegistry
}

func NewLedgerService(ledger MintLedger, agents AgentRegistry) *LedgerService {
	return &LedgerService{ledger: ledger, agents: agents}
}

// Mint credits freshly issued value to an account. Agent only.
func (s *LedgerService) Mint(ctx context.Context, caller, to string, value int64) error {
	ok, err := s.agents.IsAgent(ctx, caller)
	if err != nil {
		return fmt.Errorf("agent lookup: %w", err)
	}
	if !ok {
		return ErrNotAgent
	}
	if to == model.ZeroAddress {
		return ErrZeroAccount
	}
	if value <= 0 {
		return ErrNonPositiveValue
	}
	return s.ledger.Mint(ctx, to, value)
}

// Balance reports an account's current spendable balance.
func (s *LedgerService) Balance(ctx context.Context, account string) (int64, error) {
	return s.ledger.SpendableBalance(ctx, account)
}
