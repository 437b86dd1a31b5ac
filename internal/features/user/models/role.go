package models

import apperrors "atmwater-backend/internal/common/errors"

// Role is a position in the franchise hierarchy. The set is closed: unknown
// role strings are rejected at every boundary.
type Role string

const (
	RoleCustomer   Role = "Customer"
	RoleSteward    Role = "Steward"
	RoleRP         Role = "RP"
	RoleGM         Role = "GM"
	RoleFinance    Role = "Finance"
	RoleBusiness   Role = "Business"
	RoleAfterSales Role = "AfterSales"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "Super-Admin"
)

// AllRoles lists every known role, in hierarchy order.
func AllRoles() []Role {
	return []Role{
		RoleCustomer,
		RoleSteward,
		RoleRP,
		RoleGM,
		RoleFinance,
		RoleBusiness,
		RoleAfterSales,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", apperrors.Newf(apperrors.ErrCodeInvalidRole, "invalid role: %s", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSteward, RoleRP, RoleGM, RoleFinance,
		RoleBusiness, RoleAfterSales, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Singleton reports whether at most one user may hold the role at a time.
func (r Role) Singleton() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}
