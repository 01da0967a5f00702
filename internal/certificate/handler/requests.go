package handler

import (
	"strings"

	"oilcert/internal/certificate/models"
	dErrors "oilcert/pkg/domain-errors"
)

// IssueCertificateRequest is the POST /certificates payload.
type IssueCertificateRequest struct {
	Owner           string `json:"owner"`
	RestaurantName  string `json:"restaurant_name"`
	Location        string `json:"location"`
	ContactEmail    string `json:"contact_email,omitempty"`
	MetadataURI     string `json:"metadata_uri,omitempty"`
	Level           string `json:"level"`
	ComplianceScore int    `json:"compliance_score"`
}

// Validate checks structural requirements before the request reaches the
// service. Domain rules (score range, name uniqueness) are enforced there.
func (r *IssueCertificateRequest) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner is required")
	}
	if strings.TrimSpace(r.RestaurantName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "restaurant_name is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "location is required")
	}
	if _, err := models.ParseLevel(r.Level); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "level must be one of none, bronze, silver, gold")
	}
	return nil
}

// RevokeCertificateRequest is the POST /certificates/{id}/revoke payload.
type RevokeCertificateRequest struct {
	Reason string `json:"reason,omitempty"`
}

// UpdateComplianceRequest is the POST /certificates/{id}/compliance payload.
type UpdateComplianceRequest struct {
	ComplianceScore int `json:"compliance_score"`
}

// RenewCertificateRequest is the POST /certificates/{id}/renew payload.
type RenewCertificateRequest struct {
	Level           string `json:"level"`
	ComplianceScore int    `json:"compliance_score"`
}

func (r *RenewCertificateRequest) Validate() error {
	if _, err := models.ParseLevel(r.Level); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "level must be one of none, bronze, silver, gold")
	}
	return nil
}
