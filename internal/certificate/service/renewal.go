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
	dErrors "oilcert/pkg/domain-errors"
	audit "oilcert/pkg/platform/audit"
	"oilcert/pkg/requestcontext"
)

// Renewer re-activates and upgrades certificates. A renewal refreshes the
// validity window, may change the level, and brings a suspended or expired
// certificate back to active. Revoked certificates never come back.
type Renewer struct {
	certs        store.Store
	authz        Authorizer
	auditEmitter *auditEmitter
	metrics      *certmetrics.Metrics
	tracer       trace.Tracer
}

func NewRenewer(certs store.Store, authz Authorizer, opts ...Option) *Renewer {
	cfg := buildConfig(opts)
	return &Renewer{
		certs:        certs,
		authz:        authz,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
		tracer:       otel.Tracer("oilcert/certificate"),
	}
}

// Renew upgrades a certificate's level and score and resets its expiry date.
// Requires the RenewCertificate capability and a score at or above the
// compliance minimum.
func (r *Renewer) Renew(ctx context.Context, certID id.CertificateID, newLevel models.Level, newScore int, actor id.Identity) (*models.Certificate, error) {
	ctx, span := r.tracer.Start(ctx, "Renewer.Renew")
	defer span.End()

	if err := r.authz.Authorize(ctx, actor, id.CapabilityRenewCertificate); err != nil {
		return nil, err
	}
	if !newLevel.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid certificate level")
	}
	if err := models.ValidateScore(newScore); err != nil {
		return nil, err
	}
	if newScore < models.MinComplianceScore {
		return nil, dErrors.Newf(dErrors.CodeComplianceTooLow,
			"compliance score %d is below the minimum of %d",
			newScore, models.MinComplianceScore)
	}

	now := requestcontext.Now(ctx)
	cert, err := r.certs.Execute(ctx, certID,
		func(c *models.Certificate) error {
			return c.CanRenew()
		},
		func(c *models.Certificate) {
			c.ApplyRenewal(newLevel, newScore, now)
		},
	)
	if err != nil {
		return nil, wrapCertErr(err)
	}

	r.auditEmitter.emit(ctx, audit.Event{
		Kind:          audit.KindCertificateRenewed,
		CertificateID: cert.ID,
		Actor:         actor,
		Timestamp:     now,
		RequestID:     requestcontext.RequestID(ctx),
		Details: map[string]string{
			"level":            newLevel.String(),
			"compliance_score": strconv.Itoa(newScore),
		},
	})
	if r.metrics != nil {
		r.metrics.Renewed.Inc()
	}
	return cert, nil
}
