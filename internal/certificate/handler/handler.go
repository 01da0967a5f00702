package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"oilcert/internal/certificate/models"
	"oilcert/internal/certificate/service"
	"oilcert/internal/platform/middleware"
	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	"oilcert/pkg/platform/audit"
	"oilcert/pkg/platform/httputil"
	"oilcert/pkg/requestcontext"
)

// RegistryService is the lifecycle facade slice the handler needs.
type RegistryService interface {
	Issue(ctx context.Context, req service.IssueRequest) (*models.Certificate, error)
	Revoke(ctx context.Context, certID id.CertificateID, reason string, actor id.Identity) (*models.Certificate, error)
	Get(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
	Total(ctx context.Context) (int, error)
}

// ComplianceService applies score updates.
type ComplianceService interface {
	UpdateComplianceScore(ctx context.Context, certID id.CertificateID, newScore int, actor id.Identity) (*models.Certificate, error)
}

// RenewalService applies renewals.
type RenewalService interface {
	Renew(ctx context.Context, certID id.CertificateID, newLevel models.Level, newScore int, actor id.Identity) (*models.Certificate, error)
}

// EventLog reads the per-certificate audit history.
type EventLog interface {
	ListByCertificate(ctx context.Context, certID id.CertificateID) ([]audit.Event, error)
}

// Handler exposes the certificate lifecycle over HTTP. Certificate reads are
// public; mutations and the audit trail sit behind the auth middleware, and
// mutations are authorized per capability by the services.
type Handler struct {
	registry     RegistryService
	compliance   ComplianceService
	renewal      RenewalService
	events       EventLog
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func New(
	registry RegistryService,
	compliance ComplianceService,
	renewal RenewalService,
	events EventLog,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator,
) *Handler {
	return &Handler{
		registry:     registry,
		compliance:   compliance,
		renewal:      renewal,
		events:       events,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the certificate routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/certificates", func(r chi.Router) {
		// Public reads.
		r.Get("/count", h.handleCount)
		r.Get("/{id}", h.handleGet)

		// Mutations and the audit trail require an authenticated actor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
			r.Get("/{id}/events", h.handleEvents)
			r.Post("/", h.handleIssue)
			r.Post("/{id}/revoke", h.handleRevoke)
			r.Post("/{id}/compliance", h.handleUpdateCompliance)
			r.Post("/{id}/renew", h.handleRenew)
		})
	})
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IssueCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	level, _ := models.ParseLevel(req.Level)
	cert, err := h.registry.Issue(ctx, service.IssueRequest{
		Owner:           id.Identity(req.Owner),
		RestaurantName:  req.RestaurantName,
		Location:        req.Location,
		ContactEmail:    req.ContactEmail,
		MetadataURI:     req.MetadataURI,
		Level:           level,
		ComplianceScore: req.ComplianceScore,
		Actor:           requestcontext.Actor(ctx),
	})
	if err != nil {
		h.logError(ctx, "issue certificate failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCertificateResponse(cert))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := parseCertID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req RevokeCertificateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	cert, err := h.registry.Revoke(ctx, certID, req.Reason, requestcontext.Actor(ctx))
	if err != nil {
		h.logError(ctx, "revoke certificate failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}

func (h *Handler) handleUpdateCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := parseCertID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req UpdateComplianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cert, err := h.compliance.UpdateComplianceScore(ctx, certID, req.ComplianceScore, requestcontext.Actor(ctx))
	if err != nil {
		h.logError(ctx, "update compliance score failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := parseCertID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req RenewCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	level, _ := models.ParseLevel(req.Level)
	cert, err := h.renewal.Renew(ctx, certID, level, req.ComplianceScore, requestcontext.Actor(ctx))
	if err != nil {
		h.logError(ctx, "renew certificate failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	certID, err := parseCertID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.registry.Get(r.Context(), certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	total, err := h.registry.Total(r.Context())
	if err != nil {
		h.logError(r.Context(), "count certificates failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Total: total})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	certID, err := parseCertID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.events.ListByCertificate(r.Context(), certID)
	if err != nil {
		h.logError(r.Context(), "list certificate events failed", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load events"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toEventResponses(events))
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", middleware.GetRequestID(ctx),
	)
}

func parseCertID(r *http.Request) (id.CertificateID, error) {
	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "certificate id must be a positive integer")
	}
	return certID, nil
}
