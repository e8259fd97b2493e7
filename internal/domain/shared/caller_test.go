package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleCashier, ParseRole(" cashier "))
	assert.Equal(t, RoleViewer, ParseRole("auditor"))
	assert.Equal(t, RoleViewer, ParseRole(""))
}

func TestCallerContext_Permissions(t *testing.T) {
	actor := uuid.New()

	tests := []struct {
		name     string
		caller   CallerContext
		readErr  error
		writeErr error
	}{
		{"cashier writes", NewCallerContext(actor, RoleCashier), nil, nil},
		{"manager writes", NewCallerContext(actor, RoleManager), nil, nil},
		{"viewer reads only", NewCallerContext(actor, RoleViewer), nil, ErrForbidden},
		{"anonymous rejected", NewCallerContext(uuid.Nil, RoleAdmin), ErrUnauthorized, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.caller.RequireRead(), tt.readErr)
			assert.ErrorIs(t, tt.caller.RequireWrite(), tt.writeErr)
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	wrapped := NewDomainError(CodeOverpayment, "amount 1500 exceeds balance due 1000")
	assert.ErrorIs(t, wrapped, ErrOverpayment)
	assert.NotErrorIs(t, wrapped, ErrInvalidAmount)
	assert.Equal(t, CodeOverpayment, ErrorCode(wrapped))
	assert.Equal(t, "", ErrorCode(assert.AnError))
}

func TestPageRequest_Normalize(t *testing.T) {
	p := PageRequest{Page: 0, PageSize: 1000}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, 40, PageRequest{Page: 3, PageSize: 20}.Offset())

	pg := NewPaginated([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, pg.TotalPages)
}
