package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID      = "invalid"      // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized" // Authentication required
	EFORBIDDEN    = "forbidden"    // Actor is not a party allowed to perform the action
	ENOTFOUND     = "not_found"    // Resource not found
	ECONFLICT     = "conflict"     // Duplicate resource or lost write race
	ETOOLARGE     = "too_large"    // Request entity too large
	ERATELIMIT    = "rate_limited" // Too many requests
	EINTERNAL     = "internal"     // Internal server error

	// Entitlement and lifecycle codes
	ETRANSITION     = "invalid_transition"     // Event not allowed from the contract's current status
	EQUOTA          = "quota_exceeded"         // Category usage is at or above the plan limit
	ENOTENTITLED    = "feature_not_entitled"   // Plan does not include a boolean feature
	ENOSUBSCRIPTION = "no_active_subscription" // Actor has no subscription row
	EPLANCONFIG     = "plan_not_configured"    // Subscription exists but names no plan
	EPLANMISMATCH   = "plan_catalog_mismatch"  // Subscription names a plan missing from the catalog
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "contract.transition")
	Message string // Human-readable message, safe to show to the actor
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
// Internal errors never leak their cause.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// -----------------------------------------------------------------------------
// Convenience constructors
// -----------------------------------------------------------------------------

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Unauthorized creates an authentication error.
func Unauthorized(op, message string) *Error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

// Forbidden creates a permission error.
func Forbidden(op, message string) *Error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// InvalidTransition reports an event that the contract's current status does not accept.
func InvalidTransition(op string, from ContractStatus, event ContractEvent) *Error {
	return &Error{
		Code:    ETRANSITION,
		Op:      op,
		Message: fmt.Sprintf("cannot %s a contract that is %s", event.Verb(), from.Label()),
		Err:     &TransitionError{From: from, Event: event},
	}
}

// NoActiveSubscription reports an actor without any subscription row.
func NoActiveSubscription(op string) *Error {
	return &Error{
		Code:    ENOSUBSCRIPTION,
		Op:      op,
		Message: "No active subscription. Please subscribe to a plan.",
	}
}

// PlanNotConfigured reports a subscription whose plan name is empty.
func PlanNotConfigured(op string) *Error {
	return &Error{
		Code:    EPLANCONFIG,
		Op:      op,
		Message: "Subscription plan not set. Contact admin.",
	}
}

// PlanCatalogMismatch reports a subscription naming a plan that the catalog does not hold.
func PlanCatalogMismatch(op, planName string) *Error {
	return &Error{
		Code:    EPLANMISMATCH,
		Op:      op,
		Message: fmt.Sprintf("Plan '%s' not found. Please contact support.", planName),
	}
}

// QuotaExceeded reports that an actor has used up a category's plan limit.
// The returned error wraps a *QuotaExceededError for callers that render an upgrade prompt.
func QuotaExceeded(op string, category QuotaCategory, current, limit int64) *Error {
	return &Error{
		Code:    EQUOTA,
		Op:      op,
		Message: category.LimitMessage(limit),
		Err:     &QuotaExceededError{Category: category, Limit: limit, Current: current},
	}
}

// FeatureNotEntitled reports that the actor's plan does not include a feature.
func FeatureNotEntitled(op string, feature Feature) *Error {
	return &Error{
		Code:    ENOTENTITLED,
		Op:      op,
		Message: feature.UpgradeMessage(),
		Err:     &FeatureError{Feature: feature},
	}
}

// -----------------------------------------------------------------------------
// Typed details
// -----------------------------------------------------------------------------

// QuotaExceededError carries the numbers behind a quota denial.
type QuotaExceededError struct {
	Category QuotaCategory
	Limit    int64
	Current  int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %d of %d used", e.Category, e.Current, e.Limit)
}

// FeatureError names the feature a plan does not include.
type FeatureError struct {
	Feature Feature
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("feature %s not entitled", e.Feature)
}

// TransitionError names the rejected state and event.
type TransitionError struct {
	From  ContractStatus
	Event ContractEvent
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no transition from %s on %s", e.From, e.Event)
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is not a ValidationError, returns a new one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}
