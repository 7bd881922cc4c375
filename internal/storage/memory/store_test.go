package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"clearhouse/internal/model"
	"clearhouse/internal/service"
)

func TestWithTxNesting(t *testing.T) {
	s := New()
	ctx := context.Background()

	// A nested WithTx must join the outer transaction, not deadlock on
	// the store mutex.
	err := s.WithTx(ctx, func(ctx context.Context) error {
		return s.WithTx(ctx, func(ctx context.Context) error {
			return s.Mint(ctx, "a", 1)
		})
	})
	require.NoError(t, err)

	balance, err := s.SpendableBalance(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(1), balance)
}

func TestCreateTransferDuplicate(t *testing.T) {
	s := New()
	ctx := context.Background()

	tr := model.Transfer{OperationID: "op", Orderer: "a", From: "a", To: "b", Value: 1}
	require.NoError(t, s.CreateTransfer(ctx, tr))

	err := s.CreateTransfer(ctx, tr)
	require.ErrorIs(t, err, service.ErrOperationIDUsed)
}

func TestMoveInsufficient(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Mint(ctx, "a", 2))
	err := s.Move(ctx, "a", "b", 3)
	require.ErrorIs(t, err, service.ErrInsufficientBalance)

	// The failed move left both balances untouched.
	a, _ := s.SpendableBalance(ctx, "a")
	b, _ := s.SpendableBalance(ctx, "b")
	require.Equal(t, int64(2), a)
	require.Equal(t, int64(0), b)

	require.NoError(t, s.Move(ctx, "a", "b", 2))
	a, _ = s.SpendableBalance(ctx, "a")
	b, _ = s.SpendableBalance(ctx, "b")
	require.Equal(t, int64(0), a)
	require.Equal(t, int64(2), b)
}

func TestEventOutbox(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := model.TransferInProcessEvent("agent", "op-1")
	second := model.TransferExecutedEvent("agent", "op-1")
	require.NoError(t, s.AppendEvent(ctx, first))
	require.NoError(t, s.AppendEvent(ctx, second))

	undelivered, err := s.UndeliveredEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, undelivered, 2)

	require.NoError(t, s.MarkEventDelivered(ctx, first.ID))

	undelivered, err = s.UndeliveredEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, undelivered, 1)
	require.Equal(t, second.ID, undelivered[0].ID)

	// Delivered events stay on record for audit.
	require.Len(t, s.Events(ctx), 2)
}

func TestUndeliveredEventsLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendEvent(ctx, model.TransferCancelledEvent("payer", "op")))
	}

	undelivered, err := s.UndeliveredEvents(ctx, 3)
	require.NoError(t, err)
	require.Len(t, undelivered, 3)
}
