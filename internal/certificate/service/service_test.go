package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"oilcert/internal/certificate/models"
	"oilcert/internal/certificate/store"
	"oilcert/internal/rbac"
	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
	audit "oilcert/pkg/platform/audit"
	auditmemory "oilcert/pkg/platform/audit/store/memory"
	"oilcert/pkg/requestcontext"
)

const (
	adminActor    = id.Identity("admin-1")
	verifierActor = id.Identity("verifier-1")
	strangerActor = id.Identity("stranger-1")
)

type LifecycleSuite struct {
	suite.Suite
	certs      *store.InMemory
	auditStore *auditmemory.InMemoryStore
	registry   *Registry
	monitor    *Monitor
	renewer    *Renewer
	expirer    *Expirer
	ctx        context.Context
	now        time.Time
}

func (s *LifecycleSuite) SetupTest() {
	s.certs = store.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	roles := rbac.NewInMemoryRoleStore()
	s.Require().NoError(roles.Grant(s.ctx, adminActor, id.RoleAdmin))
	s.Require().NoError(roles.Grant(s.ctx, verifierActor, id.RoleVerifier))
	authz := rbac.New(roles)

	opts := []Option{WithAuditPublisher(audit.NewSyncPublisher(s.auditStore))}
	s.registry = NewRegistry(s.certs, authz, opts...)
	s.monitor = NewMonitor(s.certs, authz, opts...)
	s.renewer = NewRenewer(s.certs, authz, opts...)
	s.expirer = NewExpirer(s.certs, time.Hour, opts...)
}

func (s *LifecycleSuite) SetupSubTest() {
	s.SetupTest()
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) issue(name string, score int) *models.Certificate {
	cert, err := s.registry.Issue(s.ctx, IssueRequest{
		Owner:           "owner-1",
		RestaurantName:  name,
		Location:        "Mumbai",
		Level:           models.LevelSilver,
		ComplianceScore: score,
		Actor:           adminActor,
	})
	s.Require().NoError(err)
	return cert
}

func (s *LifecycleSuite) lastEvent(certID id.CertificateID) audit.Event {
	events, err := s.auditStore.ListByCertificate(s.ctx, certID)
	s.Require().NoError(err)
	s.Require().NotEmpty(events)
	return events[len(events)-1]
}

// TestIssue covers issuance preconditions and the issued record.
func (s *LifecycleSuite) TestIssue() {
	s.Run("issues an active certificate with assigned ID", func() {
		cert := s.issue("Green Leaf", 85)

		s.Equal(id.CertificateID(1), cert.ID)
		s.Equal(models.StatusActive, cert.Status)
		s.Equal(s.now, cert.IssueDate)
		s.Equal(s.now.Add(models.ValidityPeriod), cert.ExpiryDate)
		s.Equal(adminActor, cert.IssuedBy)

		event := s.lastEvent(cert.ID)
		s.Equal(audit.KindCertificateIssued, event.Kind)
		s.Equal(adminActor, event.Actor)
	})

	s.Run("rejects a score below the compliance minimum", func() {
		_, err := s.registry.Issue(s.ctx, IssueRequest{
			Owner:           "owner-1",
			RestaurantName:  "Greasy Spoon",
			Location:        "Pune",
			Level:           models.LevelBronze,
			ComplianceScore: models.MinComplianceScore - 1,
			Actor:           adminActor,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeComplianceTooLow))

		count, countErr := s.registry.Total(s.ctx)
		s.Require().NoError(countErr)
		s.Zero(count, "rejected issuance must not persist anything")
	})

	s.Run("rejects a score outside 0-100", func() {
		_, err := s.registry.Issue(s.ctx, IssueRequest{
			Owner:           "owner-1",
			RestaurantName:  "Overflow",
			Location:        "Pune",
			Level:           models.LevelBronze,
			ComplianceScore: 101,
			Actor:           adminActor,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects a duplicate restaurant name", func() {
		s.issue("Solo Kitchen", 85)

		_, err := s.registry.Issue(s.ctx, IssueRequest{
			Owner:           "owner-2",
			RestaurantName:  "Solo Kitchen",
			Location:        "Delhi",
			Level:           models.LevelGold,
			ComplianceScore: 95,
			Actor:           adminActor,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("verifier cannot issue", func() {
		_, err := s.registry.Issue(s.ctx, IssueRequest{
			Owner:           "owner-1",
			RestaurantName:  "Forbidden Fruit",
			Location:        "Pune",
			Level:           models.LevelBronze,
			ComplianceScore: 90,
			Actor:           verifierActor,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("empty actor is unauthorized", func() {
		_, err := s.registry.Issue(s.ctx, IssueRequest{
			Owner:           "owner-1",
			RestaurantName:  "Ghost Kitchen",
			Location:        "Pune",
			Level:           models.LevelBronze,
			ComplianceScore: 90,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// TestRevoke covers revocation and its terminality.
func (s *LifecycleSuite) TestRevoke() {
	s.Run("revokes and records the reason", func() {
		cert := s.issue("Doomed Diner", 85)

		revoked, err := s.registry.Revoke(s.ctx, cert.ID, "repeated violations", adminActor)
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, revoked.Status)

		event := s.lastEvent(cert.ID)
		s.Equal(audit.KindCertificateRevoked, event.Kind)
		s.Equal("repeated violations", event.Details["reason"])
	})

	s.Run("second revocation conflicts", func() {
		cert := s.issue("Twice Shy", 85)
		_, err := s.registry.Revoke(s.ctx, cert.ID, "", adminActor)
		s.Require().NoError(err)

		_, err = s.registry.Revoke(s.ctx, cert.ID, "", adminActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown certificate is not found", func() {
		_, err := s.registry.Revoke(s.ctx, id.CertificateID(404), "", adminActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("verifier cannot revoke", func() {
		cert := s.issue("Safe For Now", 85)

		_, err := s.registry.Revoke(s.ctx, cert.ID, "", verifierActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		found, findErr := s.registry.Get(s.ctx, cert.ID)
		s.Require().NoError(findErr)
		s.Equal(models.StatusActive, found.Status)
		s.Equal(s.now, found.LastUpdated, "denied mutation must not touch the record")
	})
}

// TestUpdateComplianceScore covers score updates and auto-suspension.
func (s *LifecycleSuite) TestUpdateComplianceScore() {
	s.Run("verifier updates the score", func() {
		cert := s.issue("Watched Pot", 85)

		updated, err := s.monitor.UpdateComplianceScore(s.ctx, cert.ID, 90, verifierActor)
		s.Require().NoError(err)
		s.Equal(90, updated.ComplianceScore)
		s.Equal(models.StatusActive, updated.Status)

		s.Equal(audit.KindComplianceUpdated, s.lastEvent(cert.ID).Kind)
	})

	s.Run("sub-threshold score auto-suspends in the same update", func() {
		cert := s.issue("Slippery Slope", 85)

		updated, err := s.monitor.UpdateComplianceScore(s.ctx, cert.ID, models.MinComplianceScore-5, verifierActor)
		s.Require().NoError(err)
		s.Equal(models.StatusSuspended, updated.Status)

		s.Equal(audit.KindCertificateSuspended, s.lastEvent(cert.ID).Kind)
	})

	s.Run("revoked certificate rejects updates", func() {
		cert := s.issue("Too Late", 85)
		_, err := s.registry.Revoke(s.ctx, cert.ID, "", adminActor)
		s.Require().NoError(err)

		_, err = s.monitor.UpdateComplianceScore(s.ctx, cert.ID, 90, verifierActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("stranger cannot update", func() {
		cert := s.issue("Stranger Danger", 85)

		_, err := s.monitor.UpdateComplianceScore(s.ctx, cert.ID, 40, strangerActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		found, findErr := s.registry.Get(s.ctx, cert.ID)
		s.Require().NoError(findErr)
		s.Equal(85, found.ComplianceScore)
	})
}

// TestRenew covers renewal, reactivation, and its gates.
func (s *LifecycleSuite) TestRenew() {
	s.Run("renewal upgrades level and refreshes expiry", func() {
		cert := s.issue("Upward Mobility", 85)

		later := s.now.Add(100 * 24 * time.Hour)
		ctx := requestcontext.WithTime(context.Background(), later)
		renewed, err := s.renewer.Renew(ctx, cert.ID, models.LevelGold, 95, adminActor)
		s.Require().NoError(err)
		s.Equal(models.LevelGold, renewed.Level)
		s.Equal(95, renewed.ComplianceScore)
		s.Equal(later.Add(models.ValidityPeriod), renewed.ExpiryDate)

		s.Equal(audit.KindCertificateRenewed, s.lastEvent(cert.ID).Kind)
	})

	s.Run("renewal reactivates a suspended certificate", func() {
		cert := s.issue("Second Chance", 85)
		_, err := s.monitor.UpdateComplianceScore(s.ctx, cert.ID, 50, verifierActor)
		s.Require().NoError(err)

		renewed, err := s.renewer.Renew(s.ctx, cert.ID, models.LevelSilver, 80, adminActor)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, renewed.Status)
	})

	s.Run("renewal below the minimum score is rejected", func() {
		cert := s.issue("Not Good Enough", 85)

		_, err := s.renewer.Renew(s.ctx, cert.ID, models.LevelSilver, models.MinComplianceScore-1, adminActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeComplianceTooLow))
	})

	s.Run("revoked certificate cannot be renewed", func() {
		cert := s.issue("Beyond Saving", 85)
		_, err := s.registry.Revoke(s.ctx, cert.ID, "", adminActor)
		s.Require().NoError(err)

		_, err = s.renewer.Renew(s.ctx, cert.ID, models.LevelGold, 95, adminActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("verifier cannot renew", func() {
		cert := s.issue("Stay Put", 85)

		_, err := s.renewer.Renew(s.ctx, cert.ID, models.LevelGold, 95, verifierActor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// TestExpirerSweep verifies the clock sweep expires overdue certificates.
func (s *LifecycleSuite) TestExpirerSweep() {
	cert := s.issue("Time Flies", 85)
	fresh := s.issue("Still Fresh", 85)

	afterExpiry := cert.ExpiryDate.Add(time.Hour)
	renewCtx := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	_, err := s.renewer.Renew(renewCtx, fresh.ID, models.LevelSilver, 85, adminActor)
	s.Require().NoError(err)

	s.expirer.Sweep(s.ctx, afterExpiry)

	expired, err := s.registry.Get(s.ctx, cert.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusExpired, expired.Status)
	s.Equal(audit.KindCertificateExpired, s.lastEvent(cert.ID).Kind)

	survivor, err := s.registry.Get(s.ctx, fresh.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, survivor.Status)
}

// TestFullLifecycle walks one certificate through issue, score updates,
// suspension, and renewal.
func (s *LifecycleSuite) TestFullLifecycle() {
	cert := s.issue("Green Leaf", 85)
	s.Equal(id.CertificateID(1), cert.ID)

	updated, err := s.monitor.UpdateComplianceScore(s.ctx, cert.ID, 90, verifierActor)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, updated.Status)

	suspendedCert, err := s.monitor.UpdateComplianceScore(s.ctx, cert.ID, 65, verifierActor)
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, suspendedCert.Status)

	renewed, err := s.renewer.Renew(s.ctx, cert.ID, models.LevelGold, 95, adminActor)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, renewed.Status)
	s.Equal(models.LevelGold, renewed.Level)

	events, err := s.auditStore.ListByCertificate(s.ctx, cert.ID)
	s.Require().NoError(err)
	kinds := make([]audit.Kind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	s.Equal([]audit.Kind{
		audit.KindCertificateIssued,
		audit.KindComplianceUpdated,
		audit.KindCertificateSuspended,
		audit.KindCertificateRenewed,
	}, kinds)
}
