package models

import (
	"time"

	usermodels "atmwater-backend/internal/features/user/models"
)

// Function keys for actions guarded by the dynamic permission matrix.
const (
	FuncManagePartners     = "manage_partners"
	FuncApproveWithdrawals = "approve_withdrawals"
	FuncViewLogs           = "view_logs"
	FuncEditPrices         = "edit_prices"
	FuncManageUnits        = "manage_units"
)

// Permission is one row of the permission matrix: a protected action key and
// the set of roles allowed to perform it. It is runtime data, not code —
// admins redefine access without a redeploy.
type Permission struct {
	ID          string                   `json:"id"`
	FunctionKey string                   `json:"functionKey" example:"approve_withdrawals"`
	Label       string                   `json:"label" example:"Approve withdrawals"`
	Permissions map[usermodels.Role]bool `json:"permissions"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

// Grants reports whether the entry allows the role.
func (p *Permission) Grants(role usermodels.Role) bool {
	return p.Permissions != nil && p.Permissions[role]
}

// MatrixEntry is the update payload for one matrix row.
type MatrixEntry struct {
	FunctionKey string                   `json:"functionKey" binding:"required"`
	Label       string                   `json:"label"`
	Permissions map[usermodels.Role]bool `json:"permissions" binding:"required"`
}

// UpdateRequest carries a batch matrix update.
type UpdateRequest struct {
	Matrix []MatrixEntry `json:"matrix" binding:"required"`
}
