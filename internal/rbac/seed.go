package rbac

import (
	"context"

	id "oilcert/pkg/domain"
)

// Seed grants Admin to the bootstrap identity so a fresh deployment has at
// least one actor able to issue certificates and grant further roles.
func Seed(ctx context.Context, store RoleStore, bootstrapAdmin id.Identity) error {
	if bootstrapAdmin.IsNil() {
		return nil
	}
	return store.Grant(ctx, bootstrapAdmin, id.RoleAdmin)
}
