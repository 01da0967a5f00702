package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher hands committed events to the background worker. Emission is
// non-blocking: the event log is best-effort audit, not a source of truth, so
// a full buffer drops the event with a warning instead of stalling or rolling
// back the certificate mutation that produced it.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

// Emit stamps the event and queues it for persistence.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"kind", event.Kind,
			"certificate_id", event.CertificateID,
		)
		return nil
	}
}

// SyncPublisher appends events directly to the store. Used in tests and in
// deployments that prefer write-path latency over decoupling.
type SyncPublisher struct {
	store Store
}

func NewSyncPublisher(store Store) *SyncPublisher {
	return &SyncPublisher{store: store}
}

func (p *SyncPublisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := p.store.Append(ctx, event)
	return err
}
