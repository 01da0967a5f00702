package memory

import (
	"context"
	"sync"

	id "oilcert/pkg/domain"
	audit "oilcert/pkg/platform/audit"
)

// InMemoryStore keeps the event log in process memory. Appends are serialized
// by the mutex, which is also what keeps the hash chain linear.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	byCert map[id.CertificateID][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byCert: make(map[id.CertificateID][]int)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevHash := ""
	if n := len(s.events); n > 0 {
		prevHash = s.events[n-1].Hash
	}
	event.SequenceNumber = uint64(len(s.events) + 1)
	event.PrevHash = prevHash
	event.Hash = audit.ChainHash(prevHash, event)

	s.events = append(s.events, event)
	s.byCert[event.CertificateID] = append(s.byCert[event.CertificateID], len(s.events)-1)
	return event.SequenceNumber, nil
}

func (s *InMemoryStore) ListByCertificate(_ context.Context, certID id.CertificateID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indexes := s.byCert[certID]
	out := make([]audit.Event, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}
