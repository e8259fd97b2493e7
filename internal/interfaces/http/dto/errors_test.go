package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInvalidReference, http.StatusNotFound},
		{ErrCodeInvalidAmount, http.StatusBadRequest},
		{ErrCodeOverpayment, http.StatusConflict},
		{ErrCodeProofRequired, http.StatusUnprocessableEntity},
		{ErrCodeProofConflict, http.StatusUnprocessableEntity},
		{ErrCodeUploadFailed, http.StatusBadGateway},
		{ErrCodeAuthExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{shared.CodeInvalidReference, "invalid_reference"},
		{shared.CodeInvalidAmount, "invalid_amount"},
		{shared.CodeOverpayment, "overpayment"},
		{shared.CodeProofRequired, "proof_required"},
		{shared.CodeProofConflict, "proof_conflict"},
		{shared.CodeUploadFailed, "upload_failed"},
		{shared.CodeAuthExpired, "auth_expired"},
		{shared.CodeNotFound, "NOT_FOUND"},
		{shared.CodeConcurrencyConflict, "CONCURRENCY_CONFLICT"},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryDomainCodeHasAStatus(t *testing.T) {
	for _, code := range []string{
		shared.CodeInvalidReference, shared.CodeInvalidAmount, shared.CodeOverpayment,
		shared.CodeProofRequired, shared.CodeProofConflict, shared.CodeUploadFailed,
		shared.CodeAuthExpired, shared.CodeNotFound, shared.CodeInvalidInput,
		shared.CodeInvalidState, shared.CodeConcurrencyConflict,
		shared.CodeUnauthorized, shared.CodeForbidden,
	} {
		_, ok := ErrorCodeHTTPStatus[NormalizeErrorCode(code)]
		assert.True(t, ok, "%s has no HTTP status", code)
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeOverpayment, "Payment amount exceeds the sale balance due", "req-1")

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "overpayment",
			"message": "Payment amount exceeds the sale balance due",
			"request_id": "req-1"
		}
	}`, string(data))
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "amount", Message: "amount is required", Tag: "required"},
		{Field: "payment_method", Message: "payment_method must be a supported payment method", Tag: "payment_method"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-2", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-2", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

func TestNewPagedResponse(t *testing.T) {
	page := shared.NewPaginated([]string{"a", "b"}, 5, 1, 2)
	resp := NewPagedResponse(&page)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(5), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := shared.NewPaginated[string](nil, 0, 1, 20)
	resp = NewPagedResponse(&empty)
	assert.Equal(t, []string{}, resp.Data)
}

func TestListRequest_PageRequest(t *testing.T) {
	assert.Equal(t, shared.PageRequest{Page: 1, PageSize: shared.DefaultPageSize}, ListRequest{}.PageRequest())
	assert.Equal(t, shared.PageRequest{Page: 3, PageSize: 50}, ListRequest{Page: 3, PageSize: 50}.PageRequest())
}
