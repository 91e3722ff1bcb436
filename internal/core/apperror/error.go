// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error identifier. The set of codes is closed:
// callers switch on CodeOf(err) and must handle every conflict variant.
type Code string

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal Code = "INTERNAL_ERROR"

	// Validation errors (400)
	CodeValidation      Code = "VALIDATION"
	CodeUnpaidClose     Code = "UNPAID_CLOSE"
	CodeForbiddenOrigin Code = "FORBIDDEN_ORIGIN"

	// Not found (404)
	CodeNotFound Code = "NOT_FOUND"

	// Conflict (409). Every code here is part of the strategy negotiation protocol
	// or a terminal state violation.
	CodeDuplicateActive        Code = "DUPLICATE_ACTIVE"
	CodeDuplicateInactive      Code = "DUPLICATE_INACTIVE"
	CodeAlreadyActive          Code = "ALREADY_ACTIVE"
	CodeInUse                  Code = "IN_USE"
	CodeDependencyInactive     Code = "DEPENDENCY_INACTIVE"
	CodeSaleAlreadyOpen        Code = "SALE_ALREADY_OPEN"
	CodeSaleClosed             Code = "SALE_CLOSED"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
)

// Detail keys shared by conflict payloads.
const (
	DetailExistingID        = "existingId"
	DetailDependencyID      = "dependencyId"
	DetailCount             = "count"
	DetailAllowedStrategies = "allowedStrategies"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code Code `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (existing ids, counts, allowed strategies)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewDuplicateActive reports a natural key already held by an active row.
// existingID may be empty when the collision was detected by a storage constraint.
func NewDuplicateActive(entity, key string, existingID any) *AppError {
	e := &AppError{
		Code:       CodeDuplicateActive,
		Message:    fmt.Sprintf("active %s with this name already exists", entity),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "naturalKey": key},
	}
	if existingID != nil && existingID != "" {
		e.Details[DetailExistingID] = existingID
	}
	return e
}

// NewDuplicateInactive reports a natural key held by an inactive row.
// The caller may reactivate that row explicitly.
func NewDuplicateInactive(entity, key string, existingID any) *AppError {
	return &AppError{
		Code:       CodeDuplicateInactive,
		Message:    fmt.Sprintf("inactive %s with this name exists and can be reactivated", entity),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"entity":          entity,
			"naturalKey":      key,
			DetailExistingID: existingID,
		},
	}
}

// NewAlreadyActive is returned when reactivating a row that is already active.
func NewAlreadyActive(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeAlreadyActive,
		Message:    fmt.Sprintf("%s is already active", entity),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInUse blocks a deactivation while active dependents exist.
func NewInUse(entity string, id any, count int, allowed []string) *AppError {
	return &AppError{
		Code:       CodeInUse,
		Message:    fmt.Sprintf("%s is referenced by %d active records", entity, count),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"entity":                 entity,
			"id":                     id,
			DetailCount:             count,
			DetailAllowedStrategies: allowed,
		},
	}
}

// NewDependencyInactive blocks a reactivation while a required dependency is inactive.
func NewDependencyInactive(entity string, dependency string, dependencyID any, allowed []string) *AppError {
	return &AppError{
		Code:       CodeDependencyInactive,
		Message:    fmt.Sprintf("%s depends on an inactive %s", entity, dependency),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"entity":                 entity,
			"dependency":             dependency,
			DetailDependencyID:      dependencyID,
			DetailAllowedStrategies: allowed,
		},
	}
}

// NewSaleAlreadyOpen is returned when an owner already has an open sale.
// existingID may be empty when the collision was detected by a storage constraint.
func NewSaleAlreadyOpen(ownerKind string, ownerID any, existingID any) *AppError {
	e := &AppError{
		Code:       CodeSaleAlreadyOpen,
		Message:    fmt.Sprintf("%s already has an open sale", ownerKind),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"ownerKind": ownerKind, "ownerId": ownerID},
	}
	if existingID != nil && existingID != "" {
		e.Details[DetailExistingID] = existingID
	}
	return e
}

// NewSaleClosed is returned for any mutation of a closed sale.
func NewSaleClosed(saleID any) *AppError {
	return &AppError{
		Code:       CodeSaleClosed,
		Message:    "Sale is closed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"saleId": saleID},
	}
}

// NewUnpaidClose is returned when closing a sale without a payment method.
func NewUnpaidClose(saleID any) *AppError {
	return &AppError{
		Code:       CodeUnpaidClose,
		Message:    "A payment method is required to close a sale",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"saleId": saleID},
	}
}

// NewForbiddenOrigin is returned when editing or deleting a ledger entry produced by a sale.
func NewForbiddenOrigin(transactionID any, origin string) *AppError {
	return &AppError{
		Code:       CodeForbiddenOrigin,
		Message:    fmt.Sprintf("transactions with origin %q cannot be modified", origin),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"id": transactionID, "origin": origin},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in the chain.
// Any other non-nil error is opaque and reported as CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return Is(err, CodeConcurrentModification)
}
