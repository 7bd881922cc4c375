// Package memory holds an in-process implementation of every persistence
// capability the clearing core needs. One mutex guards all state, so a
// WithTx callback is atomic with respect to every other operation, which
// is exactly the serialization the state machine requires: a single
// mutation lock per ledger, not per operation ID.
package memory

import (
	"context"
	"sync"

	"clearhouse/internal/model"
	"clearhouse/internal/service"
)

type storedEvent struct {
	event     model.Event
	delivered bool
}

type Store struct {
	mu        sync.Mutex
	balances  map[string]int64
	transfers map[string]model.Transfer
	operators map[string]map[string]bool // account -> operator set
	agents    map[string]bool
	accounts  map[string]model.Account // by login
	events    []storedEvent
}

func New() *Store {
	return &Store{
		balances:  make(map[string]int64),
		transfers: make(map[string]model.Transfer),
		operators: make(map[string]map[string]bool),
		agents:    make(map[string]bool),
		accounts:  make(map[string]model.Account),
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// WithTx holds the store mutex for the whole callback. Nested calls join
// the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// lock acquires the mutex unless the caller already holds it via WithTx.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// --- transfers ---

func (s *Store) GetTransfer(ctx context.Context, operationID string) (*model.Transfer, error) {
	defer s.lock(ctx)()
	t, ok := s.transfers[operationID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *Store) CreateTransfer(ctx context.Context, t model.Transfer) error {
	defer s.lock(ctx)()
	if _, ok := s.transfers[t.OperationID]; ok {
		return service.ErrOperationIDUsed
	}
	s.transfers[t.OperationID] = t
	return nil
}

func (s *Store) UpdateTransferStatus(ctx context.Context, operationID string, status model.Status) error {
	defer s.lock(ctx)()
	t, ok := s.transfers[operationID]
	if !ok {
		return service.ErrTransferNotFound
	}
	t.Status = status
	s.transfers[operationID] = t
	return nil
}

// --- ledger ---

func (s *Store) SpendableBalance(ctx context.Context, account string) (int64, error) {
	defer s.lock(ctx)()
	return s.balances[account], nil
}

func (s *Store) Move(ctx context.Context, from, to string, value int64) error {
	defer s.lock(ctx)()
	if s.balances[from] < value {
		return service.ErrInsufficientBalance
	}
	s.balances[from] -= value
	s.balances[to] += value
	return nil
}

func (s *Store) Mint(ctx context.Context, to string, value int64) error {
	defer s.lock(ctx)()
	s.balances[to] += value
	return nil
}

// --- operator registry ---

func (s *Store) IsAuthorized(ctx context.Context, operator, account string) (bool, error) {
	defer s.lock(ctx)()
	return s.operators[account][operator], nil
}

func (s *Store) PutAuthorization(ctx context.Context, operator, account string) error {
	defer s.lock(ctx)()
	if s.operators[account] == nil {
		s.operators[account] = make(map[string]bool)
	}
	s.operators[account][operator] = true
	return nil
}

func (s *Store) DeleteAuthorization(ctx context.Context, operator, account string) error {
	defer s.lock(ctx)()
	delete(s.operators[account], operator)
	return nil
}

// --- agent registry ---

func (s *Store) IsAgent(ctx context.Context, address string) (bool, error) {
	defer s.lock(ctx)()
	return s.agents[address], nil
}

func (s *Store) PutAgent(ctx context.Context, address string) error {
	defer s.lock(ctx)()
	s.agents[address] = true
	return nil
}

// --- accounts ---

func (s *Store) CreateAccount(ctx context.Context, a model.Account) error {
	defer s.lock(ctx)()
	if _, ok := s.accounts[a.Login]; ok {
		return service.ErrLoginTaken
	}
	s.accounts[a.Login] = a
	return nil
}

func (s *Store) AccountByLogin(ctx context.Context, login string) (*model.Account, error) {
	defer s.lock(ctx)()
	a, ok := s.accounts[login]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// --- event outbox ---

func (s *Store) AppendEvent(ctx context.Context, e model.Event) error {
	defer s.lock(ctx)()
	s.events = append(s.events, storedEvent{event: e})
	return nil
}

func (s *Store) UndeliveredEvents(ctx context.Context, limit int) ([]model.Event, error) {
	defer s.lock(ctx)()
	var events []model.Event
	for _, se := range s.events {
		if se.delivered {
			continue
		}
		events = append(events, se.event)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *Store) MarkEventDelivered(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	for i := range s.events {
		if s.events[i].event.ID == id {
			s.events[i].delivered = true
			return nil
		}
	}
	return nil
}

// Events returns every recorded event in order, delivered or not.
func (s *Store) Events(ctx context.Context) []model.Event {
	defer s.lock(ctx)()
	events := make([]model.Event, 0, len(s.events))
	for _, se := range s.events {
		events = append(events, se.event)
	}
	return events
}
