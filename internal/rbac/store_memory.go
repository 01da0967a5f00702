package rbac

import (
	"context"
	"sync"

	id "oilcert/pkg/domain"
)

// InMemoryRoleStore keeps role assignments in process memory.
type InMemoryRoleStore struct {
	mu    sync.RWMutex
	roles map[id.Identity]map[id.Role]bool
}

func NewInMemoryRoleStore() *InMemoryRoleStore {
	return &InMemoryRoleStore{roles: make(map[id.Identity]map[id.Role]bool)}
}

func (s *InMemoryRoleStore) Grant(_ context.Context, identity id.Identity, role id.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[identity] == nil {
		s.roles[identity] = make(map[id.Role]bool)
	}
	s.roles[identity][role] = true
	return nil
}

func (s *InMemoryRoleStore) RolesOf(_ context.Context, identity id.Identity) ([]id.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roles []id.Role
	for role := range s.roles[identity] {
		roles = append(roles, role)
	}
	return roles, nil
}

func (s *InMemoryRoleStore) HasRole(_ context.Context, identity id.Identity, role id.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[identity][role], nil
}
