package rbac

import (
	"context"
	"log/slog"

	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	audit "oilcert/pkg/platform/audit"
	"oilcert/pkg/requestcontext"
)

// AuditPublisher receives role-grant events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the access-control policy check plus role administration.
// Authorize is a pure check against the role store; it has no side effects
// and never mutates anything.
type Service struct {
	roles          RoleStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(roles RoleStore, opts ...Option) *Service {
	s := &Service{roles: roles, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize checks that the actor holds a role granting the capability.
// Admin satisfies every capability; Verifier satisfies only UpdateCompliance;
// any other identity satisfies none.
func (s *Service) Authorize(ctx context.Context, actor id.Identity, capability id.Capability) error {
	if actor.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "actor identity is required")
	}
	roles, err := s.roles.RolesOf(ctx, actor)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor roles")
	}
	for _, role := range roles {
		if role.Grants(capability) {
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeForbidden, "actor lacks the %s capability", capability)
}

// GrantRole assigns a role to an identity. Requires the GrantRole capability,
// which only Admin holds, so non-admins cannot escalate themselves.
func (s *Service) GrantRole(ctx context.Context, identity id.Identity, role id.Role, actor id.Identity) error {
	if err := s.Authorize(ctx, actor, id.CapabilityGrantRole); err != nil {
		return err
	}
	if identity.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "grantee identity is required")
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid role")
	}

	if err := s.roles.Grant(ctx, identity, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role")
	}

	s.emit(ctx, audit.Event{
		Kind:      audit.KindRoleGranted,
		Actor:     actor,
		Timestamp: requestcontext.Now(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Details: map[string]string{
			"identity": identity.String(),
			"role":     role.String(),
		},
	})
	return nil
}

// RolesOf returns the identity's role set.
func (s *Service) RolesOf(ctx context.Context, identity id.Identity) ([]id.Role, error) {
	roles, err := s.roles.RolesOf(ctx, identity)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load roles")
	}
	return roles, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"kind", event.Kind,
			"error", err,
		)
	}
}
