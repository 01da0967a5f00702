package rbac

import (
	"context"

	id "oilcert/pkg/domain"
)

// RoleStore holds identity to role-set assignments. Implementations must make
// Grant idempotent: granting a role an identity already holds is a no-op.
type RoleStore interface {
	// Grant adds a role to the identity's role set.
	Grant(ctx context.Context, identity id.Identity, role id.Role) error

	// RolesOf returns the identity's role set; an unknown identity has an
	// empty set, not an error.
	RolesOf(ctx context.Context, identity id.Identity) ([]id.Role, error)

	// HasRole reports whether the identity holds the role.
	HasRole(ctx context.Context, identity id.Identity, role id.Role) (bool, error)
}
