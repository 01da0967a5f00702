package verification

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	"oilcert/pkg/platform/httputil"
)

// VerifyResponse is the public verification answer. The certificate body is
// included only for valid certificates.
type VerifyResponse struct {
	CertificateID   string     `json:"certificate_id"`
	IsValid         bool       `json:"is_valid"`
	RestaurantName  string     `json:"restaurant_name,omitempty"`
	Level           string     `json:"level,omitempty"`
	Status          string     `json:"status,omitempty"`
	ComplianceScore int        `json:"compliance_score,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
}

// Handler exposes the public verify endpoint. No authentication: third
// parties checking a certificate are the whole point.
type Handler struct {
	verifier *Service
}

func NewHandler(verifier *Service) *Handler {
	return &Handler{verifier: verifier}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/verify/{id}", h.handleVerify)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "certificate id must be a positive integer"))
		return
	}

	result, err := h.verifier.Verify(r.Context(), certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := VerifyResponse{
		CertificateID: certID.String(),
		IsValid:       result.IsValid,
	}
	if result.Certificate != nil {
		cert := result.Certificate
		resp.RestaurantName = cert.RestaurantName
		resp.Level = cert.Level.String()
		resp.Status = cert.Status.String()
		resp.ComplianceScore = cert.ComplianceScore
		resp.ExpiryDate = &cert.ExpiryDate
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
