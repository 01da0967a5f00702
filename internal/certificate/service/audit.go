package service

import (
	"context"
	"log/slog"

	audit "oilcert/pkg/platform/audit"
)

// auditEmitter wraps the publisher with fail-open semantics: the event log is
// best-effort audit, so a failed emission is logged and swallowed rather than
// rolling back the committed certificate mutation.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, event audit.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "failed to emit audit event",
			"kind", event.Kind,
			"certificate_id", event.CertificateID,
			"error", err,
		)
	}
}
