package shared

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the caller's role as asserted by the auth token
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleViewer  Role = "viewer"
)

// writeRoles lists roles allowed to mutate the ledger
var writeRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleManager: true,
	RoleCashier: true,
}

// ParseRole normalizes a role string. Unknown roles become RoleViewer.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleManager, RoleCashier, RoleViewer:
		return r
	default:
		return RoleViewer
	}
}

// CallerContext identifies who is invoking a ledger operation.
// It is passed explicitly into every application operation.
type CallerContext struct {
	ActorID uuid.UUID
	Role    Role
}

// NewCallerContext creates a caller context
func NewCallerContext(actorID uuid.UUID, role Role) CallerContext {
	return CallerContext{ActorID: actorID, Role: role}
}

// Validate checks that the caller is identified
func (c CallerContext) Validate() error {
	if c.ActorID == uuid.Nil {
		return ErrUnauthorized
	}
	return nil
}

// CanWrite reports whether the caller may record payments or sales
func (c CallerContext) CanWrite() bool {
	return writeRoles[c.Role]
}

// RequireWrite returns an error unless the caller may mutate the ledger
func (c CallerContext) RequireWrite() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.CanWrite() {
		return ErrForbidden
	}
	return nil
}

// RequireRead returns an error unless the caller is identified
func (c CallerContext) RequireRead() error {
	return c.Validate()
}
