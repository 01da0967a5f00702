package models

import dErrors "oilcert/pkg/domain-errors"

// Status is the lifecycle state of a certificate. It is distinct from the
// certificate level: status governs whether verification reports the
// certificate as valid, level is a quality tier.
type Status string

const (
	// StatusPending is reserved in the status domain for a future approval
	// workflow. No operation currently assigns it.
	StatusPending Status = "pending"

	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusRevoked   Status = "revoked"
	StatusSuspended Status = "suspended"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusActive:    true,
	StatusExpired:   true,
	StatusRevoked:   true,
	StatusSuspended: true,
}

// statusTransitions is the single source of truth for the certificate state
// machine:
//
//	Active    -> Suspended (compliance drop), Expired (clock), Revoked
//	Suspended -> Active (renewal), Revoked
//	Expired   -> Active (renewal), Revoked
//	Revoked   -> (terminal)
var statusTransitions = map[Status]map[Status]bool{
	StatusActive: {
		StatusSuspended: true,
		StatusExpired:   true,
		StatusRevoked:   true,
	},
	StatusSuspended: {
		StatusActive:  true,
		StatusRevoked: true,
	},
	StatusExpired: {
		StatusActive:  true,
		StatusRevoked: true,
	},
	StatusRevoked: {},
	StatusPending: {},
}

// ParseStatus constructs a Status from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// CanTransitionTo reports whether the state machine permits moving from s to
// target.
func (s Status) CanTransitionTo(target Status) bool {
	return statusTransitions[s][target]
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusRevoked
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}
