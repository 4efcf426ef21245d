package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes failure semantics across every aggregate kind.
type ErrorCode string

const (
	// CodeValidation covers malformed input caught before any I/O.
	CodeValidation ErrorCode = "validation"
	// CodeBusinessRule covers uniqueness conflicts, missing or mismatched
	// references, invalid hierarchy assignments and invalid state
	// transitions.
	CodeBusinessRule ErrorCode = "business_rule"
	CodeNotFound     ErrorCode = "not_found"
	// CodeConflict is an optimistic-concurrency loss: another writer
	// committed the same entity id first.
	CodeConflict ErrorCode = "conflict"
	// CodeInfrastructure marks retryable store/dispatcher failures.
	CodeInfrastructure ErrorCode = "infrastructure"
	// CodeProjection marks a projector failing to apply an event. Never
	// surfaced to the original writer.
	CodeProjection ErrorCode = "projection"
	CodeInternal   ErrorCode = "internal"
)

// Error is the canonical domain error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	// Violations holds every shape-validation failure found, so callers
	// see all problems at once rather than the first.
	Violations []string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	if msg == "" && len(e.Violations) > 0 {
		msg = strings.Join(e.Violations, "; ")
	}
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a domain error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// NewValidation builds a validation error carrying the full violation list.
func NewValidation(op string, violations []string) error {
	return &Error{
		Code:       CodeValidation,
		Op:         strings.TrimSpace(op),
		Violations: violations,
	}
}

// Wrap annotates an existing error with domain error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: err.Error(),
		Cause:   err,
	}
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the domain error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// ViolationsOf returns the violation list of a validation error, if any.
func ViolationsOf(err error) []string {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return nil
	}
	return aggErr.Violations
}

// Retryable reports whether the failure is safe to retry: infrastructure
// faults and projection failures are, business outcomes are not.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeInfrastructure, CodeProjection:
		return true
	default:
		return false
	}
}
