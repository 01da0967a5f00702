package store

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"oilcert/internal/certificate/models"
	id "oilcert/pkg/domain"
	"oilcert/pkg/platform/sentinel"
)

type CertificateStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *CertificateStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestCertificateStoreSuite(t *testing.T) {
	suite.Run(t, new(CertificateStoreSuite))
}

func (s *CertificateStoreSuite) newCertificate(name string) *models.Certificate {
	cert, err := models.NewCertificate(
		"owner-1", name, "Mumbai", "", "",
		models.LevelSilver, 85, "inspector-1", s.now,
	)
	s.Require().NoError(err)
	return cert
}

// TestCreationAndLookups verifies ID assignment and retrieval.
func (s *CertificateStoreSuite) TestCreationAndLookups() {
	s.Run("assigns sequential IDs starting at 1", func() {
		first := s.newCertificate("First")
		second := s.newCertificate("Second")

		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, first))
		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, second))

		s.Equal(id.CertificateID(1), first.ID)
		s.Equal(id.CertificateID(2), second.ID)
	})

	s.Run("finds by ID and returns a copy", func() {
		cert := s.newCertificate("Copy Check")
		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, cert))

		found, err := s.store.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.Equal(cert.RestaurantName, found.RestaurantName)

		found.ComplianceScore = 0
		again, err := s.store.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.Equal(85, again.ComplianceScore, "reader mutation must not leak into the store")
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.CertificateID(999))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestNameUniqueness verifies the non-revoked name index.
func (s *CertificateStoreSuite) TestNameUniqueness() {
	s.Run("rejects duplicate name and does not consume an ID", func() {
		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, s.newCertificate("Unique")))

		err := s.store.CreateIfNameAvailable(s.ctx, s.newCertificate("Unique"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

		next := s.newCertificate("Another")
		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, next))
		s.Equal(id.CertificateID(2), next.ID, "rejected issuance must not leave an ID gap")
	})

	s.Run("revocation frees the name for reuse", func() {
		cert := s.newCertificate("Phoenix")
		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, cert))

		_, err := s.store.Execute(s.ctx, cert.ID,
			func(c *models.Certificate) error { return c.CanRevoke() },
			func(c *models.Certificate) { c.ApplyRevocation(s.now) },
		)
		s.Require().NoError(err)

		reborn := s.newCertificate("Phoenix")
		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, reborn))
		s.NotEqual(cert.ID, reborn.ID)
	})

	s.Run("suspension keeps the name reserved", func() {
		cert := s.newCertificate("Held Name")
		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, cert))

		_, err := s.store.Execute(s.ctx, cert.ID,
			func(c *models.Certificate) error { return c.CanUpdateScore(10) },
			func(c *models.Certificate) { c.ApplyScoreUpdate(10, s.now) },
		)
		s.Require().NoError(err)

		err = s.store.CreateIfNameAvailable(s.ctx, s.newCertificate("Held Name"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

// TestExecute verifies the validate-then-mutate discipline.
func (s *CertificateStoreSuite) TestExecute() {
	s.Run("validation failure leaves the record untouched", func() {
		cert := s.newCertificate("Untouched")
		s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, cert))

		_, err := s.store.Execute(s.ctx, cert.ID,
			func(c *models.Certificate) error { return c.CanUpdateScore(500) },
			func(c *models.Certificate) { c.ApplyScoreUpdate(500, s.now) },
		)
		s.Require().Error(err)

		found, err := s.store.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.Equal(85, found.ComplianceScore)
		s.Equal(s.now, found.LastUpdated, "failed mutation must not bump last_updated")
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.Execute(s.ctx, id.CertificateID(42),
			func(c *models.Certificate) error { return nil },
			func(c *models.Certificate) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestCount verifies revoked certificates still count toward the total.
func (s *CertificateStoreSuite) TestCount() {
	s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, s.newCertificate("One")))
	cert := s.newCertificate("Two")
	s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, cert))

	_, err := s.store.Execute(s.ctx, cert.ID,
		func(c *models.Certificate) error { return c.CanRevoke() },
		func(c *models.Certificate) { c.ApplyRevocation(s.now) },
	)
	s.Require().NoError(err)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

// TestListExpiredActive verifies the sweep listing.
func (s *CertificateStoreSuite) TestListExpiredActive() {
	fresh := s.newCertificate("Fresh")
	s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, fresh))
	stale := s.newCertificate("Stale")
	s.Require().NoError(s.store.CreateIfNameAvailable(s.ctx, stale))

	afterExpiry := stale.ExpiryDate.Add(time.Hour)
	_, err := s.store.Execute(s.ctx, fresh.ID,
		func(c *models.Certificate) error { return c.CanRenew() },
		func(c *models.Certificate) { c.ApplyRenewal(models.LevelSilver, 85, afterExpiry) },
	)
	s.Require().NoError(err)

	due, err := s.store.ListExpiredActive(s.ctx, afterExpiry)
	s.Require().NoError(err)
	s.Equal([]id.CertificateID{stale.ID}, due)
}

// TestConcurrentIssuance verifies gapless monotonic IDs under contention.
func (s *CertificateStoreSuite) TestConcurrentIssuance() {
	const workers = 50

	var wg sync.WaitGroup
	errs := make([]error, workers)
	certs := make([]*models.Certificate, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cert := s.newCertificate("Restaurant " + strconv.Itoa(i))
			certs[i] = cert
			errs[i] = s.store.CreateIfNameAvailable(s.ctx, cert)
		}(i)
	}
	wg.Wait()

	seen := make(map[id.CertificateID]bool)
	for i := 0; i < workers; i++ {
		s.Require().NoError(errs[i])
		s.False(seen[certs[i].ID], "duplicate ID %d", certs[i].ID)
		seen[certs[i].ID] = true
	}
	for want := id.CertificateID(1); want <= workers; want++ {
		s.True(seen[want], "missing ID %d", want)
	}
}
