package dto

import (
	"net/http"

	"github.com/bakery/ledger/internal/domain/shared"
)

// Ledger error codes as they appear on the wire. These are the codes clients
// branch on, so they never change once published.
const (
	ErrCodeInvalidReference = "invalid_reference"
	ErrCodeInvalidAmount    = "invalid_amount"
	ErrCodeOverpayment      = "overpayment"
	ErrCodeProofRequired    = "proof_required"
	ErrCodeProofConflict    = "proof_conflict"
	ErrCodeUploadFailed     = "upload_failed"
	ErrCodeAuthExpired      = "auth_expired"
)

// General error codes
const (
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = shared.CodeNotFound
	ErrCodeInvalidInput        = shared.CodeInvalidInput
	ErrCodeInvalidState        = shared.CodeInvalidState
	ErrCodeConcurrencyConflict = shared.CodeConcurrencyConflict
	ErrCodeUnauthorized        = shared.CodeUnauthorized
	ErrCodeForbidden           = shared.CodeForbidden
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps wire error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Ledger taxonomy
	ErrCodeInvalidReference: http.StatusNotFound,
	ErrCodeInvalidAmount:    http.StatusBadRequest,
	ErrCodeOverpayment:      http.StatusConflict,
	ErrCodeProofRequired:    http.StatusUnprocessableEntity,
	ErrCodeProofConflict:    http.StatusUnprocessableEntity,
	ErrCodeUploadFailed:     http.StatusBadGateway,
	ErrCodeAuthExpired:      http.StatusUnauthorized,

	// General
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodePayloadTooLarge:     http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainWireCodes renames the ledger's domain codes to their wire form
var domainWireCodes = map[string]string{
	shared.CodeInvalidReference: ErrCodeInvalidReference,
	shared.CodeInvalidAmount:    ErrCodeInvalidAmount,
	shared.CodeOverpayment:      ErrCodeOverpayment,
	shared.CodeProofRequired:    ErrCodeProofRequired,
	shared.CodeProofConflict:    ErrCodeProofConflict,
	shared.CodeUploadFailed:     ErrCodeUploadFailed,
	shared.CodeAuthExpired:      ErrCodeAuthExpired,
}

// NormalizeErrorCode converts a domain error code to the code sent to clients.
// Kernel codes such as NOT_FOUND are sent unchanged.
func NormalizeErrorCode(code string) string {
	if wire, ok := domainWireCodes[code]; ok {
		return wire
	}
	return code
}
