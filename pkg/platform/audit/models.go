package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "oilcert/pkg/domain"
)

// Kind names a certificate state transition recorded in the event log.
type Kind string

const (
	KindCertificateIssued    Kind = "certificate_issued"
	KindComplianceUpdated    Kind = "compliance_updated"
	KindCertificateSuspended Kind = "certificate_suspended"
	KindCertificateRenewed   Kind = "certificate_renewed"
	KindCertificateRevoked   Kind = "certificate_revoked"
	KindCertificateExpired   Kind = "certificate_expired"
	KindRoleGranted          Kind = "role_granted"
)

// Event is emitted from domain logic after a mutation commits. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// SequenceNumber, PrevHash, and Hash are assigned by the store on append:
// each event hashes the previous event's hash together with its own payload,
// making the log tamper-evident without being a source of truth (state always
// lives in the certificate store).
type Event struct {
	ID             uuid.UUID         `json:"id"`
	SequenceNumber uint64            `json:"sequence_number"`
	CertificateID  id.CertificateID  `json:"certificate_id"`
	Kind           Kind              `json:"kind"`
	Actor          id.Identity       `json:"actor"`
	Timestamp      time.Time         `json:"timestamp"`
	Details        map[string]string `json:"details,omitempty"`
	RequestID      string            `json:"request_id,omitempty"`
	PrevHash       string            `json:"prev_hash"`
	Hash           string            `json:"hash"`
}

// Store is the append-only persistence for audit events. Events are never
// mutated or deleted once written.
type Store interface {
	// Append assigns the next sequence number and chain hashes, persists the
	// event, and returns the assigned sequence number.
	Append(ctx context.Context, event Event) (uint64, error)

	// ListByCertificate returns events for one certificate in sequence order.
	ListByCertificate(ctx context.Context, certID id.CertificateID) ([]Event, error)

	// ListAll returns every event in sequence order.
	ListAll(ctx context.Context) ([]Event, error)
}

// Sink receives committed events for out-of-process delivery (e.g. a broker
// topic). Delivery is best-effort; a failed publish never affects the store.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
