package service

import (
	"context"
	"fmt"
)

// AgentStore persists the clearing-agent set.
type AgentStore interface {
	IsAgent(ctx context.Context, address string) (bool, error)
	// PutAgent is an idempotent membership add.
	PutAgent(ctx context.Context, address string) error
}

// AgentService manages the set of addresses empowered to process, reject
// or execute any order.
type AgentService struct {
	store AgentStore
}

func NewAgentService(store AgentStore) *AgentService {
	return &AgentService{store: store}
}

// Define adds address to the agent set. Redefining an existing agent is a
// no-op. Only an existing agent may define new ones.
func (s *AgentService) Define(ctx context.Context, caller, address string) error {
	ok, err := s.store.IsAgent(ctx, caller)
	if err != nil {
		return fmt.Errorf("agent lookup: %w", err)
	}
	if !ok {
		return ErrNotAgent
	}
	if address == "" {
		return ErrZeroAccount
	}
	return s.store.PutAgent(ctx, address)
}

// Bootstrap seeds the configured owner as the first agent, so the set is
// never empty on a fresh deployment.
func (s *AgentService) Bootstrap(ctx context.Context, owner string) error {
	if owner == "" {
		return nil
	}
	return s.store.PutAgent(ctx, owner)
}

// IsAgent is a pure query with no side effects.
func (s *AgentService) IsAgent(ctx context.Context, address string) (bool, error) {
	return s.store.IsAgent(ctx, address)
}
