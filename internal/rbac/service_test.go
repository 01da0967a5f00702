package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	audit "oilcert/pkg/platform/audit"
	auditmemory "oilcert/pkg/platform/audit/store/memory"
)

const (
	adminActor    = id.Identity("admin-1")
	verifierActor = id.Identity("verifier-1")
)

type RBACSuite struct {
	suite.Suite
	roles      *InMemoryRoleStore
	auditStore *auditmemory.InMemoryStore
	service    *Service
	ctx        context.Context
}

func (s *RBACSuite) SetupTest() {
	s.roles = NewInMemoryRoleStore()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.service = New(s.roles, WithAuditPublisher(audit.NewSyncPublisher(s.auditStore)))
	s.ctx = context.Background()

	s.Require().NoError(s.roles.Grant(s.ctx, adminActor, id.RoleAdmin))
	s.Require().NoError(s.roles.Grant(s.ctx, verifierActor, id.RoleVerifier))
}

func TestRBACSuite(t *testing.T) {
	suite.Run(t, new(RBACSuite))
}

// TestAuthorize verifies the capability matrix.
func (s *RBACSuite) TestAuthorize() {
	s.Run("admin holds every capability", func() {
		for _, c := range []id.Capability{
			id.CapabilityIssueCertificate,
			id.CapabilityRevokeCertificate,
			id.CapabilityRenewCertificate,
			id.CapabilityUpdateCompliance,
			id.CapabilityGrantRole,
		} {
			s.NoError(s.service.Authorize(s.ctx, adminActor, c))
		}
	})

	s.Run("verifier holds only update_compliance", func() {
		s.NoError(s.service.Authorize(s.ctx, verifierActor, id.CapabilityUpdateCompliance))

		for _, c := range []id.Capability{
			id.CapabilityIssueCertificate,
			id.CapabilityRevokeCertificate,
			id.CapabilityRenewCertificate,
			id.CapabilityGrantRole,
		} {
			err := s.service.Authorize(s.ctx, verifierActor, c)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		}
	})

	s.Run("unknown identity is forbidden", func() {
		err := s.service.Authorize(s.ctx, "nobody", id.CapabilityUpdateCompliance)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("empty identity is unauthorized", func() {
		err := s.service.Authorize(s.ctx, "", id.CapabilityUpdateCompliance)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// TestGrantRole verifies grant rules and the audit trail.
func (s *RBACSuite) TestGrantRole() {
	s.Run("admin grants verifier and the grant takes effect", func() {
		s.Require().NoError(s.service.GrantRole(s.ctx, "newcomer", id.RoleVerifier, adminActor))
		s.NoError(s.service.Authorize(s.ctx, "newcomer", id.CapabilityUpdateCompliance))

		events, err := s.auditStore.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		last := events[len(events)-1]
		s.Equal(audit.KindRoleGranted, last.Kind)
		s.Equal("newcomer", last.Details["identity"])
		s.Equal("verifier", last.Details["role"])
	})

	s.Run("verifier cannot grant roles", func() {
		err := s.service.GrantRole(s.ctx, "accomplice", id.RoleAdmin, verifierActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		roles, rolesErr := s.service.RolesOf(s.ctx, "accomplice")
		s.Require().NoError(rolesErr)
		s.Empty(roles)
	})

	s.Run("grant is idempotent", func() {
		s.Require().NoError(s.service.GrantRole(s.ctx, "steady", id.RoleVerifier, adminActor))
		s.Require().NoError(s.service.GrantRole(s.ctx, "steady", id.RoleVerifier, adminActor))

		roles, err := s.service.RolesOf(s.ctx, "steady")
		s.Require().NoError(err)
		s.Len(roles, 1)
	})

	s.Run("rejects empty grantee", func() {
		err := s.service.GrantRole(s.ctx, "", id.RoleVerifier, adminActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// TestSeed verifies the bootstrap grant.
func (s *RBACSuite) TestSeed() {
	fresh := NewInMemoryRoleStore()
	s.Require().NoError(Seed(s.ctx, fresh, "bootstrap"))

	has, err := fresh.HasRole(s.ctx, "bootstrap", id.RoleAdmin)
	s.Require().NoError(err)
	s.True(has)

	s.NoError(Seed(s.ctx, fresh, ""), "empty bootstrap identity is a no-op")
}
