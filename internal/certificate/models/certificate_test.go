package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "oilcert/pkg/domain-errors"
)

type CertificateSuite struct {
	suite.Suite
	now time.Time
}

func (s *CertificateSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestCertificateSuite(t *testing.T) {
	suite.Run(t, new(CertificateSuite))
}

func (s *CertificateSuite) newCertificate() *Certificate {
	cert, err := NewCertificate(
		"owner-1", "Green Leaf Bistro", "Mumbai", "owner@greenleaf.example", "",
		LevelSilver, 85, "inspector-1", s.now,
	)
	s.Require().NoError(err)
	return cert
}

// TestConstruction verifies structural invariants at creation time.
func (s *CertificateSuite) TestConstruction() {
	s.Run("new certificate is active with full validity window", func() {
		cert := s.newCertificate()
		s.Equal(StatusActive, cert.Status)
		s.Equal(s.now, cert.IssueDate)
		s.Equal(s.now.Add(ValidityPeriod), cert.ExpiryDate)
		s.Equal(s.now, cert.LastUpdated)
		s.True(cert.ID.IsNil(), "store assigns the ID, not the constructor")
	})

	s.Run("trims the restaurant name", func() {
		cert, err := NewCertificate(
			"owner-1", "  Padded Name  ", "Pune", "", "",
			LevelBronze, 75, "inspector-1", s.now,
		)
		s.Require().NoError(err)
		s.Equal("Padded Name", cert.RestaurantName)
	})

	s.Run("rejects empty owner", func() {
		_, err := NewCertificate("", "Nameless", "Pune", "", "", LevelBronze, 75, "inspector-1", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects blank restaurant name", func() {
		_, err := NewCertificate("owner-1", "   ", "Pune", "", "", LevelBronze, 75, "inspector-1", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects out-of-range score", func() {
		_, err := NewCertificate("owner-1", "Overachiever", "Pune", "", "", LevelGold, 101, "inspector-1", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects unknown level", func() {
		_, err := NewCertificate("owner-1", "Platinum Dreams", "Pune", "", "", Level("platinum"), 90, "inspector-1", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// TestScoreUpdates verifies the auto-suspend rule runs inside the mutation.
func (s *CertificateSuite) TestScoreUpdates() {
	s.Run("score at the minimum keeps the certificate active", func() {
		cert := s.newCertificate()
		later := s.now.Add(time.Hour)

		suspended := cert.ApplyScoreUpdate(MinComplianceScore, later)
		s.False(suspended)
		s.Equal(StatusActive, cert.Status)
		s.Equal(MinComplianceScore, cert.ComplianceScore)
		s.Equal(later, cert.LastUpdated)
	})

	s.Run("score below the minimum suspends an active certificate", func() {
		cert := s.newCertificate()

		suspended := cert.ApplyScoreUpdate(MinComplianceScore-1, s.now.Add(time.Hour))
		s.True(suspended)
		s.Equal(StatusSuspended, cert.Status)
	})

	s.Run("a suspended certificate is not re-suspended", func() {
		cert := s.newCertificate()
		cert.ApplyScoreUpdate(50, s.now.Add(time.Hour))
		s.Require().Equal(StatusSuspended, cert.Status)

		suspended := cert.ApplyScoreUpdate(40, s.now.Add(2*time.Hour))
		s.False(suspended)
		s.Equal(StatusSuspended, cert.Status)
		s.Equal(40, cert.ComplianceScore)
	})

	s.Run("raising the score does not reactivate a suspended certificate", func() {
		cert := s.newCertificate()
		cert.ApplyScoreUpdate(50, s.now.Add(time.Hour))

		cert.ApplyScoreUpdate(95, s.now.Add(2*time.Hour))
		s.Equal(StatusSuspended, cert.Status, "only renewal reactivates")
	})

	s.Run("revoked certificates reject score updates", func() {
		cert := s.newCertificate()
		cert.ApplyRevocation(s.now.Add(time.Hour))

		err := cert.CanUpdateScore(90)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("score outside 0-100 is rejected", func() {
		cert := s.newCertificate()
		s.Error(cert.CanUpdateScore(-1))
		s.Error(cert.CanUpdateScore(101))
		s.NoError(cert.CanUpdateScore(0))
		s.NoError(cert.CanUpdateScore(100))
	})
}

// TestRevocation verifies revocation is terminal.
func (s *CertificateSuite) TestRevocation() {
	s.Run("active certificate can be revoked", func() {
		cert := s.newCertificate()
		s.Require().NoError(cert.CanRevoke())

		cert.ApplyRevocation(s.now.Add(time.Hour))
		s.Equal(StatusRevoked, cert.Status)
	})

	s.Run("suspended and expired certificates can be revoked", func() {
		suspendedCert := s.newCertificate()
		suspendedCert.ApplyScoreUpdate(10, s.now)
		s.NoError(suspendedCert.CanRevoke())

		expiredCert := s.newCertificate()
		expiredCert.MarkExpired(expiredCert.ExpiryDate.Add(time.Hour))
		s.NoError(expiredCert.CanRevoke())
	})

	s.Run("second revocation is rejected", func() {
		cert := s.newCertificate()
		cert.ApplyRevocation(s.now)

		err := cert.CanRevoke()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// TestRenewal verifies the renewal transition and its reactivation rule.
func (s *CertificateSuite) TestRenewal() {
	s.Run("renewal refreshes level, score, and expiry", func() {
		cert := s.newCertificate()
		later := s.now.Add(200 * 24 * time.Hour)

		cert.ApplyRenewal(LevelGold, 95, later)
		s.Equal(LevelGold, cert.Level)
		s.Equal(95, cert.ComplianceScore)
		s.Equal(later.Add(ValidityPeriod), cert.ExpiryDate)
		s.Equal(StatusActive, cert.Status)
	})

	s.Run("renewal reactivates a suspended certificate", func() {
		cert := s.newCertificate()
		cert.ApplyScoreUpdate(50, s.now.Add(time.Hour))
		s.Require().Equal(StatusSuspended, cert.Status)

		cert.ApplyRenewal(LevelSilver, 80, s.now.Add(2*time.Hour))
		s.Equal(StatusActive, cert.Status)
	})

	s.Run("renewal reactivates an expired certificate", func() {
		cert := s.newCertificate()
		afterExpiry := cert.ExpiryDate.Add(time.Hour)
		s.Require().True(cert.MarkExpired(afterExpiry))

		cert.ApplyRenewal(LevelSilver, 85, afterExpiry.Add(time.Hour))
		s.Equal(StatusActive, cert.Status)
	})

	s.Run("revoked certificates cannot be renewed", func() {
		cert := s.newCertificate()
		cert.ApplyRevocation(s.now)

		err := cert.CanRenew()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

// TestExpiry verifies the clock-driven transition and validity checks.
func (s *CertificateSuite) TestExpiry() {
	s.Run("MarkExpired only fires past the expiry date", func() {
		cert := s.newCertificate()
		s.False(cert.MarkExpired(cert.ExpiryDate), "expiry date itself is still valid")
		s.True(cert.MarkExpired(cert.ExpiryDate.Add(time.Second)))
		s.Equal(StatusExpired, cert.Status)
	})

	s.Run("MarkExpired leaves non-active certificates alone", func() {
		cert := s.newCertificate()
		cert.ApplyRevocation(s.now)
		s.False(cert.MarkExpired(cert.ExpiryDate.Add(time.Hour)))
		s.Equal(StatusRevoked, cert.Status)
	})

	s.Run("IsValidAt is true only for active and unexpired", func() {
		cert := s.newCertificate()
		s.True(cert.IsValidAt(s.now))
		s.True(cert.IsValidAt(cert.ExpiryDate))
		s.False(cert.IsValidAt(cert.ExpiryDate.Add(time.Second)))

		cert.ApplyScoreUpdate(10, s.now)
		s.False(cert.IsValidAt(s.now))
	})
}
