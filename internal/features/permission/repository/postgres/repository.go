package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/permission/models"
	"atmwater-backend/internal/features/permission/repository"
	usermodels "atmwater-backend/internal/features/user/models"
)

type permissionRepository struct {
	pool *pgxpool.Pool
}

func NewPermissionRepository(pool *pgxpool.Pool) repository.PermissionRepository {
	return &permissionRepository{pool: pool}
}

func (r *permissionRepository) GetByKey(ctx context.Context, functionKey string) (*models.Permission, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, function_key, label, permissions, created_at, updated_at
		FROM permissions WHERE function_key = $1`, functionKey)

	perm, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.ErrCodePermissionNotDefined,
				"Permission for [%s] not defined", functionKey)
		}
		return nil, apperrors.NewDatabaseError("get permission", err)
	}
	return perm, nil
}

func (r *permissionRepository) List(ctx context.Context) ([]*models.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, function_key, label, permissions, created_at, updated_at
		FROM permissions ORDER BY function_key`)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list permissions", err)
	}
	defer rows.Close()

	var perms []*models.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan permission", err)
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (r *permissionRepository) Upsert(ctx context.Context, entry *models.Permission) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	grants, err := json.Marshal(entry.Permissions)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal permission grants")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO permissions (id, function_key, label, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (function_key) DO UPDATE
		SET label = CASE WHEN EXCLUDED.label <> '' THEN EXCLUDED.label ELSE permissions.label END,
		    permissions = EXCLUDED.permissions,
		    updated_at = NOW()`,
		entry.ID, entry.FunctionKey, entry.Label, grants,
	)
	if err != nil {
		return apperrors.NewDatabaseError("upsert permission", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPermission(row rowScanner) (*models.Permission, error) {
	var (
		perm   models.Permission
		grants []byte
	)
	if err := row.Scan(&perm.ID, &perm.FunctionKey, &perm.Label, &grants, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
		return nil, err
	}
	perm.Permissions = make(map[usermodels.Role]bool)
	if len(grants) > 0 {
		if err := json.Unmarshal(grants, &perm.Permissions); err != nil {
			return nil, err
		}
	}
	return &perm, nil
}
