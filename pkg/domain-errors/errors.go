// Package domainerrors defines the coded errors the ledger returns to
// callers. Every failed operation maps to exactly one code; transports
// translate codes to their own status space without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the symbolic error kind attached to a DomainError.
type Code string

// Ledger validation codes. The numeric ids mirror the on-chain error block
// (u100..u109) so off-chain indexers see stable identifiers across the
// contract and this service.
const (
	CodeOwnerOnly           Code = "owner_only"
	CodeUnauthorized        Code = "unauthorized"
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeInvalidAmount       Code = "invalid_amount"
	CodeMaxSupplyReached    Code = "max_supply_reached"
	CodePaused              Code = "paused"
	CodeBlacklisted         Code = "blacklisted"
	CodeInvalidMetadata     Code = "invalid_metadata"
	CodeAlreadyBlacklisted  Code = "already_blacklisted"
	CodeNotBlacklisted      Code = "not_blacklisted"
)

// Transport-level codes for failures that are not ledger validation results.
const (
	CodeBadRequest      Code = "bad_request"
	CodeUnauthenticated Code = "unauthenticated"
	CodeNotFound        Code = "not_found"
	CodeInternal        Code = "internal"
)

var numericIDs = map[Code]int{
	CodeOwnerOnly:           100,
	CodeUnauthorized:        101,
	CodeInsufficientBalance: 102,
	CodeInvalidAmount:       103,
	CodeMaxSupplyReached:    104,
	CodePaused:              105,
	CodeBlacklisted:         106,
	CodeInvalidMetadata:     107,
	CodeAlreadyBlacklisted:  108,
	CodeNotBlacklisted:      109,
}

var httpStatuses = map[Code]int{
	CodeOwnerOnly:           http.StatusForbidden,
	CodeUnauthorized:        http.StatusForbidden,
	CodeInsufficientBalance: http.StatusUnprocessableEntity,
	CodeInvalidAmount:       http.StatusUnprocessableEntity,
	CodeMaxSupplyReached:    http.StatusConflict,
	CodePaused:              http.StatusConflict,
	CodeBlacklisted:         http.StatusForbidden,
	CodeInvalidMetadata:     http.StatusUnprocessableEntity,
	CodeAlreadyBlacklisted:  http.StatusConflict,
	CodeNotBlacklisted:      http.StatusConflict,
	CodeBadRequest:          http.StatusBadRequest,
	CodeUnauthenticated:     http.StatusUnauthorized,
	CodeNotFound:            http.StatusNotFound,
	CodeInternal:            http.StatusInternalServerError,
}

// DomainError carries a code plus a human-readable message. Wrapped causes
// are preserved for logging but never serialized to clients.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

// New builds a DomainError with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &DomainError{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) is a DomainError with
// the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so transports never leak raw failures.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// NumericID returns the on-chain numeric id for a ledger code, or 0 for
// transport codes that have no on-chain counterpart.
func NumericID(code Code) int {
	return numericIDs[code]
}

// ToHTTPStatus maps a code to the HTTP status the API responds with.
func ToHTTPStatus(code Code) int {
	if status, ok := httpStatuses[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
