package store

import (
	"context"
	"time"

	"oilcert/internal/certificate/models"
	id "oilcert/pkg/domain"
)

// Store is the durable home of certificate records.
//
// Implementations must give the registry two serialization guarantees:
//   - CreateIfNameAvailable claims the restaurant name and allocates the next
//     certificate ID under one lock, so two concurrent issuances can never
//     both claim the same name and a failed attempt never consumes an ID.
//   - Execute holds the record lock (mutex or FOR UPDATE) across both the
//     validate and mutate callbacks, so read-modify-write cycles on one
//     certificate never interleave.
//
// Reads return copies; callers never observe a record mid-mutation.
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded domain errors.
type Store interface {
	// CreateIfNameAvailable persists a new certificate, assigning its ID.
	// Returns sentinel.ErrAlreadyUsed when a non-revoked certificate already
	// holds the restaurant name.
	CreateIfNameAvailable(ctx context.Context, cert *models.Certificate) error

	// FindByID returns a copy of the certificate or sentinel.ErrNotFound.
	FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)

	// Execute atomically validates and mutates one certificate. The mutate
	// callback runs only if validate returns nil; the updated record is
	// returned. Returns sentinel.ErrNotFound for unknown IDs.
	Execute(
		ctx context.Context,
		certID id.CertificateID,
		validate func(cert *models.Certificate) error,
		mutate func(cert *models.Certificate),
	) (*models.Certificate, error)

	// Count returns the total number of certificates ever issued, including
	// revoked ones (records are never physically deleted).
	Count(ctx context.Context) (int, error)

	// ListExpiredActive returns the IDs of active certificates whose expiry
	// date has passed as of the given instant. Used by the expiry sweeper.
	ListExpiredActive(ctx context.Context, asOf time.Time) ([]id.CertificateID, error)
}
