package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"oilcert/internal/platform/middleware"
	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	"oilcert/pkg/platform/httputil"
)

// TokenRequest is the POST /auth/token payload.
type TokenRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// TokenResponse carries the signed actor token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Handler exposes the credential exchange endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/token", h.handleToken)
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Identity == "" || req.Secret == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identity and secret are required"))
		return
	}

	token, err := h.service.Authenticate(ctx, id.Identity(req.Identity), req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "authentication failed",
			"identity", req.Identity,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}
