package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies compare equal
func (e *DomainError) Is(target error) bool {
	other, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Ledger error codes. These are the stable codes reported to callers.
const (
	CodeInvalidReference    = "INVALID_REFERENCE"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeOverpayment         = "OVERPAYMENT"
	CodeProofRequired       = "PROOF_REQUIRED"
	CodeProofConflict       = "PROOF_CONFLICT"
	CodeUploadFailed        = "UPLOAD_FAILED"
	CodeAuthExpired         = "AUTH_EXPIRED"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")

	ErrInvalidReference = NewDomainError(CodeInvalidReference, "Customer or sale reference is invalid")
	ErrInvalidAmount    = NewDomainError(CodeInvalidAmount, "Payment amount must be positive")
	ErrOverpayment      = NewDomainError(CodeOverpayment, "Payment amount exceeds the sale balance due")
	ErrProofRequired    = NewDomainError(CodeProofRequired, "Proof of payment is required for this payment method")
	ErrProofConflict    = NewDomainError(CodeProofConflict, "Provide either a proof reference or a receipt file, not both")
	ErrUploadFailed     = NewDomainError(CodeUploadFailed, "Receipt could not be stored")
	ErrAuthExpired      = NewDomainError(CodeAuthExpired, "Session has expired, please sign in again")
)

// ErrorCode extracts the domain error code from err, or "" if err is not a domain error
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
