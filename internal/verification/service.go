package verification

import (
	"context"
	"errors"
	"log/slog"

	"oilcert/internal/certificate/models"
	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	"oilcert/pkg/platform/sentinel"
	"oilcert/pkg/requestcontext"
)

// CertificateReader is the read-only slice of the certificate store the
// verification path needs.
type CertificateReader interface {
	FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
}

// Result is the public verification answer. Certificate is nil when the ID
// is unknown.
type Result struct {
	IsValid     bool
	Certificate *models.Certificate
}

// Service answers "is this certificate currently valid?" for third parties.
// It is public, unauthenticated, and side-effect-free: a certificate is valid
// iff its status is active and the current time is not past its expiry date.
type Service struct {
	certs  CertificateReader
	cache  *Cache
	logger *slog.Logger
}

type Option func(s *Service)

func WithCache(cache *Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(certs CertificateReader, opts ...Option) *Service {
	s := &Service{certs: certs, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify reports whether the certificate is currently valid. An unknown ID is
// a negative answer, not an error: third parties only care about validity.
func (s *Service) Verify(ctx context.Context, certID id.CertificateID) (Result, error) {
	cert, err := s.lookup(ctx, certID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Result{IsValid: false}, nil
	}
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}

	return Result{
		IsValid:     cert.IsValidAt(requestcontext.Now(ctx)),
		Certificate: cert,
	}, nil
}

func (s *Service) lookup(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	if s.cache != nil {
		cert, err := s.cache.Get(ctx, certID)
		if err == nil {
			return cert, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			// Cache trouble degrades to a store read.
			s.logger.WarnContext(ctx, "verification cache read failed", "error", err)
		}
	}

	cert, err := s.certs.FindByID(ctx, certID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, cert); err != nil {
			s.logger.WarnContext(ctx, "verification cache write failed", "error", err)
		}
	}
	return cert, nil
}
