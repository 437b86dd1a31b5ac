package repository

import (
	"context"

	"atmwater-backend/internal/features/permission/models"
)

// PermissionRepository persists the permission matrix.
type PermissionRepository interface {
	GetByKey(ctx context.Context, functionKey string) (*models.Permission, error)
	List(ctx context.Context) ([]*models.Permission, error)
	Upsert(ctx context.Context, entry *models.Permission) error
}
