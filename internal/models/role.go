package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of actor roles known to the rental engine.
// Handlers resolve the role from the authenticated token; services only
// ever see the enum, never a raw role id.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleSales    Role = "sales"
	RoleCustomer Role = "customer"
)

// ParseRole maps a token claim to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleSales, RoleCustomer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// CanManageLots reports whether the role may request generic lot status
// transitions.
func (r Role) CanManageLots() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanApproveRentals reports whether the role may approve or cancel rentals.
func (r Role) CanApproveRentals() bool {
	return r == RoleAdmin || r == RoleSales
}

// Actor is the already-authenticated identity a request acts as.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}
