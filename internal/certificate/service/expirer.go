package service

import (
	"context"
	"log/slog"
	"time"

	certmetrics "oilcert/internal/certificate/metrics"
	"oilcert/internal/certificate/models"
	"oilcert/internal/certificate/store"
	audit "oilcert/pkg/platform/audit"
)

// systemActor marks clock-driven transitions in the audit trail.
const systemActor = "system"

// Expirer is the clock sweep that moves active certificates past their expiry
// date to expired status. Verification does not depend on the sweep (it
// checks the expiry date directly), so the sweep only has to be timely, not
// instantaneous.
type Expirer struct {
	certs        store.Store
	interval     time.Duration
	logger       *slog.Logger
	auditEmitter *auditEmitter
	metrics      *certmetrics.Metrics
}

func NewExpirer(certs store.Store, interval time.Duration, opts ...Option) *Expirer {
	cfg := buildConfig(opts)
	return &Expirer{
		certs:        certs,
		interval:     interval,
		logger:       cfg.logger,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (e *Expirer) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			e.Sweep(ctx, now)
		}
	}
}

// Sweep expires every active certificate whose expiry date has passed.
// Exposed separately from Run so tests can drive the clock directly.
func (e *Expirer) Sweep(ctx context.Context, now time.Time) {
	due, err := e.certs.ListExpiredActive(ctx, now)
	if err != nil {
		e.logger.ErrorContext(ctx, "expiry sweep failed to list certificates", "error", err)
		return
	}

	for _, certID := range due {
		expired := false
		cert, err := e.certs.Execute(ctx, certID,
			func(c *models.Certificate) error { return nil },
			func(c *models.Certificate) {
				expired = c.MarkExpired(now)
			},
		)
		if err != nil {
			e.logger.WarnContext(ctx, "expiry sweep failed to expire certificate",
				"certificate_id", certID,
				"error", err,
			)
			continue
		}
		if !expired {
			// Renewed or revoked between the listing and the lock.
			continue
		}

		e.auditEmitter.emit(ctx, audit.Event{
			Kind:          audit.KindCertificateExpired,
			CertificateID: cert.ID,
			Actor:         systemActor,
			Timestamp:     now,
		})
		if e.metrics != nil {
			e.metrics.Expired.Inc()
		}
	}
}
