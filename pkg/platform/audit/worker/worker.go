package worker

import (
	"context"
	"log/slog"

	audit "oilcert/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them, optionally
// fanning out to a broker sink. Events arrive in emission order per
// certificate because the publisher is fed after each committed mutation.
//
// Failures are logged and skipped: losing an audit event must never block the
// pipeline or roll back the mutation that produced it.
type Worker struct {
	store  audit.Store
	sink   audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type Option func(w *Worker)

// WithSink adds a best-effort delivery sink (e.g. a Kafka topic) fed after
// the store append succeeds.
func WithSink(sink audit.Sink) Option {
	return func(w *Worker) {
		w.sink = sink
	}
}

// Run drains the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			w.process(ctx, event)
		}
	}
}

func (w *Worker) process(ctx context.Context, event audit.Event) {
	seq, err := w.store.Append(ctx, event)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to append audit event",
			"kind", event.Kind,
			"certificate_id", event.CertificateID,
			"error", err,
		)
		return
	}
	event.SequenceNumber = seq

	if w.sink == nil {
		return
	}
	if err := w.sink.Publish(ctx, event); err != nil {
		w.logger.WarnContext(ctx, "failed to publish audit event to sink",
			"kind", event.Kind,
			"sequence_number", seq,
			"error", err,
		)
	}
}
