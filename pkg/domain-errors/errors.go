// Package domainerrors provides coded errors for the registry's domain and
// service layers. Stores return sentinel errors (pkg/platform/sentinel);
// services translate them into coded errors so transports can map codes to
// wire-level responses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers and transports.
type Code string

const (
	// CodeValidation marks input that fails domain validation, such as a
	// compliance score outside 0-100.
	CodeValidation Code = "validation"

	// CodeInvalidInput marks malformed values at trust boundaries (unparseable
	// IDs, unknown enum values).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks structurally invalid requests (bad JSON, missing
	// body).
	CodeBadRequest Code = "bad_request"

	// CodeUnauthorized marks missing or unverifiable caller identity.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks an authenticated caller lacking a required
	// capability.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks a reference to an entity that does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a uniqueness or idempotency collision, such as a
	// duplicate restaurant name or a second revocation.
	CodeConflict Code = "conflict"

	// CodeInvalidState marks an operation against an entity whose current
	// lifecycle state forbids it, such as mutating a revoked certificate.
	CodeInvalidState Code = "invalid_state"

	// CodeComplianceTooLow marks issuance or renewal with a score below the
	// minimum threshold.
	CodeComplianceTooLow Code = "compliance_too_low"

	// CodeInvariantViolation marks a broken aggregate invariant detected by a
	// model constructor or transition guard.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It wraps an optional cause for errors.Is /
// errors.As chains.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New constructs a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// returns nil so call sites can wrap unconditionally.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		return HasCode(de.cause, code)
	}
	return false
}

// Is is shorthand for HasCode, matching the naming used at call sites that
// read like dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the outermost code from err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Coded reports whether err carries a domain error code anywhere in its
// chain.
func Coded(err error) bool {
	var de *Error
	return errors.As(err, &de)
}
