package domain

import (
	"fmt"
	"strconv"
)

// CertificateID identifies a certificate in the registry. IDs are allocated
// by the certificate store, start at 1, and are strictly increasing; 0 is the
// nil value and is never assigned.
type CertificateID uint64

// ParseCertificateID constructs a CertificateID from external input.
//
// Usage: call from handlers/adapters when parsing path parameters.
//
// Errors: returns a plain error when the value is not a positive integer; the
// caller is expected to wrap it into a coded domain error.
func ParseCertificateID(s string) (CertificateID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid certificate id %q", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("certificate id must be positive")
	}
	return CertificateID(n), nil
}

// IsNil returns true for the unassigned zero ID.
func (id CertificateID) IsNil() bool {
	return id == 0
}

// String returns the decimal representation of the ID.
func (id CertificateID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Identity references an actor or owner across the platform. Identities are
// opaque strings issued by the surrounding identity provider; the registry
// only compares them for equality.
type Identity string

// IsNil returns true if the identity is empty.
func (i Identity) IsNil() bool {
	return i == ""
}

// String returns the string representation of the identity.
func (i Identity) String() string {
	return string(i)
}
