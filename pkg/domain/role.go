package domain

import dErrors "oilcert/pkg/domain-errors"

// Role is a named set of capabilities an identity can hold.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

// Supported roles. Admin is a superset of Verifier: anything a Verifier can
// do, an Admin can do.
const (
	RoleAdmin    Role = "admin"
	RoleVerifier Role = "verifier"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleVerifier: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Capability is a permission required by a mutating registry operation.
type Capability string

// Capabilities checked by the registry. GrantRole is Admin-only, which
// prevents privilege self-escalation by non-admins.
const (
	CapabilityIssueCertificate  Capability = "issue_certificate"
	CapabilityRevokeCertificate Capability = "revoke_certificate"
	CapabilityRenewCertificate  Capability = "renew_certificate"
	CapabilityUpdateCompliance  Capability = "update_compliance"
	CapabilityGrantRole         Capability = "grant_role"
)

// roleCapabilities is the single source of truth for what each role may do.
var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapabilityIssueCertificate:  true,
		CapabilityRevokeCertificate: true,
		CapabilityRenewCertificate:  true,
		CapabilityUpdateCompliance:  true,
		CapabilityGrantRole:         true,
	},
	RoleVerifier: {
		CapabilityUpdateCompliance: true,
	},
}

// Grants reports whether the role satisfies the capability.
func (r Role) Grants(c Capability) bool {
	return roleCapabilities[r][c]
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}
