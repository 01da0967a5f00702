package service

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	certmetrics "oilcert/internal/certificate/metrics"
	"oilcert/internal/certificate/models"
	"oilcert/internal/certificate/store"
	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	audit "oilcert/pkg/platform/audit"
	"oilcert/pkg/platform/sentinel"
	"oilcert/pkg/requestcontext"
)

// Registry is the certificate lifecycle facade: it issues and revokes
// certificates and answers read queries. Score updates and renewals live in
// their own services (Monitor, Renewer) but share the same store discipline.
type Registry struct {
	certs        store.Store
	authz        Authorizer
	auditEmitter *auditEmitter
	metrics      *certmetrics.Metrics
	tracer       trace.Tracer
}

func NewRegistry(certs store.Store, authz Authorizer, opts ...Option) *Registry {
	cfg := buildConfig(opts)
	return &Registry{
		certs:        certs,
		authz:        authz,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
		tracer:       otel.Tracer("oilcert/certificate"),
	}
}

// IssueRequest carries everything needed to issue a certificate.
type IssueRequest struct {
	Owner           id.Identity
	RestaurantName  string
	Location        string
	ContactEmail    string
	MetadataURI     string
	Level           models.Level
	ComplianceScore int
	Actor           id.Identity
}

// Issue creates a new active certificate with the standard validity window.
//
// Preconditions: the actor holds IssueCertificate, the score meets the
// compliance minimum, and no non-revoked certificate holds the restaurant
// name. On any failure nothing is persisted and no ID is consumed.
func (r *Registry) Issue(ctx context.Context, req IssueRequest) (*models.Certificate, error) {
	ctx, span := r.tracer.Start(ctx, "Registry.Issue")
	defer span.End()

	if err := r.authz.Authorize(ctx, req.Actor, id.CapabilityIssueCertificate); err != nil {
		return nil, err
	}
	if err := models.ValidateScore(req.ComplianceScore); err != nil {
		return nil, err
	}
	if req.ComplianceScore < models.MinComplianceScore {
		return nil, dErrors.Newf(dErrors.CodeComplianceTooLow,
			"compliance score %d is below the minimum of %d",
			req.ComplianceScore, models.MinComplianceScore)
	}

	now := requestcontext.Now(ctx)
	cert, err := models.NewCertificate(
		req.Owner, req.RestaurantName, req.Location, req.ContactEmail,
		req.MetadataURI, req.Level, req.ComplianceScore, req.Actor, now,
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := r.certs.CreateIfNameAvailable(ctx, cert); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict,
				"restaurant name is already held by a non-revoked certificate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create certificate")
	}

	r.auditEmitter.emit(ctx, audit.Event{
		Kind:          audit.KindCertificateIssued,
		CertificateID: cert.ID,
		Actor:         req.Actor,
		Timestamp:     now,
		RequestID:     requestcontext.RequestID(ctx),
		Details: map[string]string{
			"restaurant_name":  cert.RestaurantName,
			"level":            cert.Level.String(),
			"compliance_score": strconv.Itoa(cert.ComplianceScore),
		},
	})
	if r.metrics != nil {
		r.metrics.Issued.Inc()
	}
	return cert, nil
}

// Revoke terminates a certificate. Revocation is permanent: the record stays
// in the store for auditability but accepts no further transitions.
func (r *Registry) Revoke(ctx context.Context, certID id.CertificateID, reason string, actor id.Identity) (*models.Certificate, error) {
	ctx, span := r.tracer.Start(ctx, "Registry.Revoke")
	defer span.End()

	if err := r.authz.Authorize(ctx, actor, id.CapabilityRevokeCertificate); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	cert, err := r.certs.Execute(ctx, certID,
		func(c *models.Certificate) error {
			if err := c.CanRevoke(); err != nil {
				if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
					return dErrors.New(dErrors.CodeConflict, "certificate is already revoked")
				}
				return err
			}
			return nil
		},
		func(c *models.Certificate) {
			c.ApplyRevocation(now)
		},
	)
	if err != nil {
		return nil, wrapCertErr(err)
	}

	r.auditEmitter.emit(ctx, audit.Event{
		Kind:          audit.KindCertificateRevoked,
		CertificateID: cert.ID,
		Actor:         actor,
		Timestamp:     now,
		RequestID:     requestcontext.RequestID(ctx),
		Details:       map[string]string{"reason": reason},
	})
	if r.metrics != nil {
		r.metrics.Revoked.Inc()
	}
	return cert, nil
}

// Get returns a certificate by ID. Unauthenticated read.
func (r *Registry) Get(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	cert, err := r.certs.FindByID(ctx, certID)
	if err != nil {
		return nil, wrapCertErr(err)
	}
	return cert, nil
}

// Total returns the number of certificates ever issued, revoked included.
// Unauthenticated read.
func (r *Registry) Total(ctx context.Context) (int, error) {
	count, err := r.certs.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count certificates")
	}
	return count, nil
}

// wrapCertErr translates store sentinels into coded domain errors and passes
// already-coded errors through untouched.
func wrapCertErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	if dErrors.Coded(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "certificate store failure")
}
