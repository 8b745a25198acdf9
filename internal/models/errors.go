package models

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed or policy-violating input before any
// row is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError marks an unknown rental/lot/payment reference.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// PermissionError marks an actor role not authorized for the requested
// transition.
type PermissionError struct {
	Role      Role
	Operation string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q is not allowed to %s", e.Role, e.Operation)
}

// InvalidTransitionError marks a state-machine rule violation. Distinguished
// from PermissionError so clients can message the two differently.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid %s transition %s -> %s", e.Entity, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// SignatureError marks an unverifiable gateway callback. Malformed
// distinguishes missing/garbled parameters from a well-formed request whose
// signature does not match.
type SignatureError struct {
	Malformed bool
	Reason    string
}

func (e *SignatureError) Error() string {
	if e.Malformed {
		return "malformed callback: " + e.Reason
	}
	return "invalid signature: " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsPermission reports whether err is (or wraps) a PermissionError.
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsInvalidTransition reports whether err is (or wraps) an
// InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}

// IsSignature reports whether err is (or wraps) a SignatureError.
func IsSignature(err error) bool {
	var se *SignatureError
	return errors.As(err, &se)
}
