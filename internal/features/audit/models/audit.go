package models

import (
	"time"

	usermodels "atmwater-backend/internal/features/user/models"
)

type LogStatus string

const (
	StatusSuccess LogStatus = "Success"
	StatusFailed  LogStatus = "Failed"
)

// Modules recorded in the audit trail.
const (
	ModuleApplications = "Applications"
	ModuleWithdrawals  = "Withdrawals"
	ModulePermissions  = "Permissions"
)

// AuditLog is one append-only record of a privileged action.
type AuditLog struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	UserName  string                 `json:"userName"`
	UserRole  usermodels.Role        `json:"userRole"`
	Module    string                 `json:"module" example:"Withdrawals"`
	Action    string                 `json:"action" example:"APPROVE_WITHDRAWAL"`
	Details   map[string]interface{} `json:"details,omitempty"`
	IPAddress string                 `json:"ipAddress,omitempty"`
	Status    LogStatus              `json:"status"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ListResult is a paginated audit log page.
type ListResult struct {
	Logs  []*AuditLog `json:"data"`
	Total int         `json:"total"`
	Pages int         `json:"pages"`
}
