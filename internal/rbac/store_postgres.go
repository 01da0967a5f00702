package rbac

import (
	"context"
	"database/sql"
	"fmt"

	id "oilcert/pkg/domain"
	"oilcert/pkg/requestcontext"
)

// PostgresRoleStore persists role assignments in a role_assignments table
// keyed by (identity, role). Each row records who granted the role and when;
// a repeated grant keeps the original provenance.
type PostgresRoleStore struct {
	db *sql.DB
}

func NewPostgresRoleStore(db *sql.DB) *PostgresRoleStore {
	return &PostgresRoleStore{db: db}
}

func (s *PostgresRoleStore) Grant(ctx context.Context, identity id.Identity, role id.Role) error {
	grantedBy := requestcontext.Actor(ctx)
	if grantedBy.IsNil() {
		// Startup seeding runs outside any request.
		grantedBy = "system"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO role_assignments (identity, role, granted_by, granted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity, role) DO NOTHING`,
		identity.String(), role.String(), grantedBy.String(), requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *PostgresRoleStore) RolesOf(ctx context.Context, identity id.Identity) ([]id.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role FROM role_assignments WHERE identity = $1`, identity.String())
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []id.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, id.Role(role))
	}
	return roles, rows.Err()
}

func (s *PostgresRoleStore) HasRole(ctx context.Context, identity id.Identity, role id.Role) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM role_assignments WHERE identity = $1 AND role = $2
		)`, identity.String(), role.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return exists, nil
}
