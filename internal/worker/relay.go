package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clearhouse/internal/model"
)

// EventSource yields lifecycle events that have not yet reached the
// external auditor.
type EventSource interface {
	UndeliveredEvents(ctx context.Context, limit int) ([]model.Event, error)
	MarkEventDelivered(ctx context.Context, id string) error
}

// Sink delivers one event to the external auditor.
type Sink interface {
	Deliver(ctx context.Context, e model.Event) error
}

// RelayWorker drains the event outbox: it periodically picks up
// undelivered lifecycle events and pushes them to the audit sink. An
// event is marked delivered only after the sink accepted it, so a failed
// delivery is retried on the next tick.
type RelayWorker struct {
	source    EventSource
	sink      Sink
	interval  time.Duration
	batchSize int
}

func NewRelayWorker(source EventSource, sink Sink) *RelayWorker {
	return &RelayWorker{
		source:    source,
		sink:      sink,
		interval:  5 * time.Second,
		batchSize: 20,
	}
}

func (w *RelayWorker) Start(ctx context.Context) {
	slog.Info("starting event relay worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("event relay worker stopped")
			return
		case <-ticker.C:
			if err := w.relayBatch(ctx); err != nil {
				slog.Error("event relay failed", "error", err)
			}
		}
	}
}

func (w *RelayWorker) relayBatch(ctx context.Context) error {
	events, err := w.source.UndeliveredEvents(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get undelivered events: %w", err)
	}

	for _, e := range events {
		if err := w.sink.Deliver(ctx, e); err != nil {
			slog.Error("failed to deliver event", "event", e.Type, "id", e.ID, "error", err)
			continue
		}
		if err := w.source.MarkEventDelivered(ctx, e.ID); err != nil {
			slog.Error("failed to mark event delivered", "id", e.ID, "error", err)
			continue
		}
		slog.Info("event delivered", "event", e.Type, "id", e.ID)
	}
	return nil
}
