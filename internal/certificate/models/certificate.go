package models

import (
	"strings"
	"time"

	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
)

const (
	// MinComplianceScore is the threshold below which issuance and renewal are
	// refused and active certificates are auto-suspended.
	MinComplianceScore = 70

	// MaxComplianceScore bounds the score domain.
	MaxComplianceScore = 100

	// ValidityPeriod is how long a certificate stays valid after issuance or
	// renewal.
	ValidityPeriod = 365 * 24 * time.Hour

	maxNameLength = 128
)

// Certificate is the aggregate root for a low-oil compliance certificate.
//
// Invariants:
//   - ID is assigned once by the store and never reused
//   - RestaurantName is non-empty and unique among non-revoked certificates
//     (exact-string match on the trimmed name; uniqueness is enforced by the
//     store, not the model)
//   - ComplianceScore stays within 0..100
//   - IssueDate <= LastUpdated
//   - Status only moves along the transitions declared in status.go; revoked
//     is terminal
//
// Mutations go through the Can/Apply pairs below so the store's Execute
// callback can hold its lock across validate + mutate.
type Certificate struct {
	ID              id.CertificateID `json:"id"`
	Owner           id.Identity      `json:"owner"`
	RestaurantName  string           `json:"restaurant_name"`
	Location        string           `json:"location"`
	ContactEmail    string           `json:"contact_email"`
	MetadataURI     string           `json:"metadata_uri"`
	Level           Level            `json:"level"`
	Status          Status           `json:"status"`
	ComplianceScore int              `json:"compliance_score"`
	IssueDate       time.Time        `json:"issue_date"`
	ExpiryDate      time.Time        `json:"expiry_date"`
	IssuedBy        id.Identity      `json:"issued_by"`
	LastUpdated     time.Time        `json:"last_updated"`
}

// ValidateScore checks the 0..100 score domain.
func ValidateScore(score int) error {
	if score < 0 || score > MaxComplianceScore {
		return dErrors.New(dErrors.CodeValidation, "compliance score must be between 0 and 100")
	}
	return nil
}

// NewCertificate constructs an active certificate with the standard validity
// window. The ID is left unset; the store assigns it when the record is
// created so failed issuance attempts never consume an ID.
//
// The MinComplianceScore gate is checked by the registry service (it has its
// own error code); the constructor only enforces structural invariants.
func NewCertificate(
	owner id.Identity,
	restaurantName, location, contactEmail, metadataURI string,
	level Level,
	complianceScore int,
	issuedBy id.Identity,
	now time.Time,
) (*Certificate, error) {
	restaurantName = strings.TrimSpace(restaurantName)
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate owner cannot be empty")
	}
	if restaurantName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "restaurant name cannot be empty")
	}
	if len(restaurantName) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "restaurant name must be 128 characters or less")
	}
	if !level.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid certificate level")
	}
	if err := ValidateScore(complianceScore); err != nil {
		return nil, err
	}
	return &Certificate{
		Owner:           owner,
		RestaurantName:  restaurantName,
		Location:        location,
		ContactEmail:    contactEmail,
		MetadataURI:     metadataURI,
		Level:           level,
		Status:          StatusActive,
		ComplianceScore: complianceScore,
		IssueDate:       now,
		ExpiryDate:      now.Add(ValidityPeriod),
		IssuedBy:        issuedBy,
		LastUpdated:     now,
	}, nil
}

// IsValidAt reports whether verification should consider the certificate
// valid at the given instant: active and not past expiry.
func (c *Certificate) IsValidAt(now time.Time) bool {
	return c.Status == StatusActive && !now.After(c.ExpiryDate)
}

// CanRevoke checks if the certificate can be revoked.
// Returns an error if it is already revoked (revocation is terminal).
func (c *Certificate) CanRevoke() error {
	if c.Status == StatusRevoked {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate is already revoked")
	}
	return nil
}

// ApplyRevocation transitions the certificate to revoked status.
// Call CanRevoke first to validate the transition.
func (c *Certificate) ApplyRevocation(now time.Time) {
	c.Status = StatusRevoked
	c.LastUpdated = now
}

// CanUpdateScore checks if a compliance score update is permitted.
// Revoked certificates reject all further mutation.
func (c *Certificate) CanUpdateScore(newScore int) error {
	if c.Status == StatusRevoked {
		return dErrors.New(dErrors.CodeInvalidState, "cannot update a revoked certificate")
	}
	return ValidateScore(newScore)
}

// ApplyScoreUpdate sets the new compliance score and applies the auto-suspend
// rule in the same mutation: an active certificate whose score drops below
// MinComplianceScore becomes suspended immediately, so there is never a
// window where an active certificate carries a sub-threshold score.
//
// Returns true if the update suspended the certificate.
func (c *Certificate) ApplyScoreUpdate(newScore int, now time.Time) bool {
	c.ComplianceScore = newScore
	c.LastUpdated = now
	if c.Status == StatusActive && newScore < MinComplianceScore {
		c.Status = StatusSuspended
		return true
	}
	return false
}

// CanRenew checks if the certificate can be renewed.
// Revoked certificates cannot come back; the score gate is checked by the
// renewal service so it can return its own error code.
func (c *Certificate) CanRenew() error {
	if c.Status == StatusRevoked {
		return dErrors.New(dErrors.CodeInvalidState, "cannot renew a revoked certificate")
	}
	return nil
}

// ApplyRenewal upgrades the level, refreshes the score and validity window,
// and reactivates a suspended or expired certificate.
// Call CanRenew first to validate the transition.
func (c *Certificate) ApplyRenewal(newLevel Level, newScore int, now time.Time) {
	c.Level = newLevel
	c.ComplianceScore = newScore
	c.ExpiryDate = now.Add(ValidityPeriod)
	c.LastUpdated = now
	if c.Status == StatusSuspended || c.Status == StatusExpired {
		c.Status = StatusActive
	}
}

// MarkExpired transitions an active certificate past its expiry date to
// expired status. Driven by the clock sweep, not by callers.
func (c *Certificate) MarkExpired(now time.Time) bool {
	if c.Status != StatusActive || !now.After(c.ExpiryDate) {
		return false
	}
	c.Status = StatusExpired
	c.LastUpdated = now
	return true
}

// Clone returns a deep copy so readers never observe a record mid-mutation.
func (c *Certificate) Clone() *Certificate {
	clone := *c
	return &clone
}
