package rbac

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"oilcert/internal/platform/middleware"
	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	"oilcert/pkg/platform/httputil"
	"oilcert/pkg/requestcontext"
)

// GrantRoleRequest is the POST /roles/grant payload.
type GrantRoleRequest struct {
	Identity string `json:"identity"`
	Role     string `json:"role"`
}

// Handler exposes role administration. All routes require an authenticated
// actor; the service itself checks for the grant capability.
type Handler struct {
	service      *Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func NewHandler(service *Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{service: service, logger: logger, jwtValidator: jwtValidator}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/grant", h.handleGrant)
		r.Get("/{identity}", h.handleRolesOf)
	})
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	role, err := id.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "role must be admin or verifier"))
		return
	}

	if err := h.service.GrantRole(ctx, id.Identity(req.Identity), role, requestcontext.Actor(ctx)); err != nil {
		h.logger.WarnContext(ctx, "grant role failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRolesOf(w http.ResponseWriter, r *http.Request) {
	identity := id.Identity(chi.URLParam(r, "identity"))
	roles, err := h.service.RolesOf(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.String())
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"roles": names})
}
