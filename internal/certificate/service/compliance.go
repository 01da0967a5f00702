package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	certmetrics "oilcert/internal/certificate/metrics"
	"oilcert/internal/certificate/models"
	"oilcert/internal/certificate/store"
	id "oilcert/pkg/domain"
	audit "oilcert/pkg/platform/audit"
	"oilcert/pkg/requestcontext"
)

// Monitor validates and applies compliance-score updates. The auto-suspend
// rule runs inside the same store mutation as the score write: an active
// certificate that drops below the minimum is suspended in the same commit,
// never in a later pass.
type Monitor struct {
	certs        store.Store
	authz        Authorizer
	auditEmitter *auditEmitter
	metrics      *certmetrics.Metrics
	tracer       trace.Tracer
}

func NewMonitor(certs store.Store, authz Authorizer, opts ...Option) *Monitor {
	cfg := buildConfig(opts)
	return &Monitor{
		certs:        certs,
		authz:        authz,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
		tracer:       otel.Tracer("oilcert/certificate"),
	}
}

// UpdateComplianceScore sets a certificate's score. Requires the
// UpdateCompliance capability, which both Verifier and Admin hold.
//
// Fails with not_found for unknown IDs, validation for scores outside 0-100,
// and invalid_state when the certificate is revoked.
func (m *Monitor) UpdateComplianceScore(ctx context.Context, certID id.CertificateID, newScore int, actor id.Identity) (*models.Certificate, error) {
	ctx, span := m.tracer.Start(ctx, "Monitor.UpdateComplianceScore")
	defer span.End()

	if err := m.authz.Authorize(ctx, actor, id.CapabilityUpdateCompliance); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	suspended := false
	cert, err := m.certs.Execute(ctx, certID,
		func(c *models.Certificate) error {
			return c.CanUpdateScore(newScore)
		},
		func(c *models.Certificate) {
			suspended = c.ApplyScoreUpdate(newScore, now)
		},
	)
	if err != nil {
		return nil, wrapCertErr(err)
	}

	kind := audit.KindComplianceUpdated
	if suspended {
		kind = audit.KindCertificateSuspended
		if m.metrics != nil {
			m.metrics.Suspended.Inc()
		}
	}
	m.auditEmitter.emit(ctx, audit.Event{
		Kind:          kind,
		CertificateID: cert.ID,
		Actor:         actor,
		Timestamp:     now,
		RequestID:     requestcontext.RequestID(ctx),
		Details: map[string]string{
			"compliance_score": strconv.Itoa(newScore),
		},
	})
	return cert, nil
}
