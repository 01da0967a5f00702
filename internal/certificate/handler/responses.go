package handler

import (
	"time"

	"oilcert/internal/certificate/models"
	"oilcert/pkg/platform/audit"
)

// CertificateResponse is the wire form of a certificate record.
type CertificateResponse struct {
	ID              string    `json:"id"`
	Owner           string    `json:"owner"`
	RestaurantName  string    `json:"restaurant_name"`
	Location        string    `json:"location"`
	ContactEmail    string    `json:"contact_email,omitempty"`
	MetadataURI     string    `json:"metadata_uri,omitempty"`
	Level           string    `json:"level"`
	Status          string    `json:"status"`
	ComplianceScore int       `json:"compliance_score"`
	IssueDate       time.Time `json:"issue_date"`
	ExpiryDate      time.Time `json:"expiry_date"`
	IssuedBy        string    `json:"issued_by"`
	LastUpdated     time.Time `json:"last_updated"`
}

func toCertificateResponse(c *models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:              c.ID.String(),
		Owner:           c.Owner.String(),
		RestaurantName:  c.RestaurantName,
		Location:        c.Location,
		ContactEmail:    c.ContactEmail,
		MetadataURI:     c.MetadataURI,
		Level:           c.Level.String(),
		Status:          c.Status.String(),
		ComplianceScore: c.ComplianceScore,
		IssueDate:       c.IssueDate,
		ExpiryDate:      c.ExpiryDate,
		IssuedBy:        c.IssuedBy.String(),
		LastUpdated:     c.LastUpdated,
	}
}

// CountResponse is the GET /certificates/count payload.
type CountResponse struct {
	Total int `json:"total"`
}

// EventResponse is the wire form of one audit log entry.
type EventResponse struct {
	SequenceNumber uint64            `json:"sequence_number"`
	CertificateID  string            `json:"certificate_id"`
	Kind           string            `json:"kind"`
	Actor          string            `json:"actor"`
	Timestamp      time.Time         `json:"timestamp"`
	Details        map[string]string `json:"details,omitempty"`
	RequestID      string            `json:"request_id,omitempty"`
}

func toEventResponses(events []audit.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			SequenceNumber: e.SequenceNumber,
			CertificateID:  e.CertificateID.String(),
			Kind:           string(e.Kind),
			Actor:          e.Actor.String(),
			Timestamp:      e.Timestamp,
			Details:        e.Details,
			RequestID:      e.RequestID,
		})
	}
	return out
}
