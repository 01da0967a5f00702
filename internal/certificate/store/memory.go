package store

import (
	"context"
	"sync"
	"time"

	"oilcert/internal/certificate/models"
	id "oilcert/pkg/domain"
	"oilcert/pkg/platform/sentinel"
)

// InMemory keeps certificates in process memory. It favors clarity over
// performance: one mutex serializes all writes, which also gives the global
// ordering the name-uniqueness check needs.
type InMemory struct {
	mu     sync.RWMutex
	certs  map[id.CertificateID]*models.Certificate
	names  map[string]id.CertificateID // non-revoked restaurant names only
	nextID id.CertificateID
}

func NewInMemory() *InMemory {
	return &InMemory{
		certs:  make(map[id.CertificateID]*models.Certificate),
		names:  make(map[string]id.CertificateID),
		nextID: 1,
	}
}

func (s *InMemory) CreateIfNameAvailable(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.names[cert.RestaurantName]; taken {
		return sentinel.ErrAlreadyUsed
	}

	// The ID is allocated only after the name check passed, so rejected
	// issuances leave no gap in the ID sequence.
	cert.ID = s.nextID
	s.nextID++

	s.certs[cert.ID] = cert.Clone()
	s.names[cert.RestaurantName] = cert.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, certID id.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cert, ok := s.certs[certID]; ok {
		return cert.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Execute(
	_ context.Context,
	certID id.CertificateID,
	validate func(cert *models.Certificate) error,
	mutate func(cert *models.Certificate),
) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.certs[certID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	// Mutate a clone so a panicking callback cannot leave a half-applied
	// record behind.
	working := stored.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)

	s.certs[certID] = working
	if working.Status == models.StatusRevoked {
		// Revocation frees the name for future issuances.
		if holder, ok := s.names[working.RestaurantName]; ok && holder == certID {
			delete(s.names, working.RestaurantName)
		}
	}
	return working.Clone(), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.certs), nil
}

func (s *InMemory) ListExpiredActive(_ context.Context, asOf time.Time) ([]id.CertificateID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []id.CertificateID
	for certID, cert := range s.certs {
		if cert.Status == models.StatusActive && asOf.After(cert.ExpiryDate) {
			due = append(due, certID)
		}
	}
	return due, nil
}
