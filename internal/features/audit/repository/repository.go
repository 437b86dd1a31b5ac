package repository

import (
	"context"

	"atmwater-backend/internal/features/audit/models"
)

// AuditRepository persists audit log entries. Append-only: no update or
// delete operations exist.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, module string, page, limit int) ([]*models.AuditLog, int, error)
}
