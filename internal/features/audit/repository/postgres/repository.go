package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/audit/models"
	"atmwater-backend/internal/features/audit/repository"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) repository.AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = models.StatusSuccess
	}
	entry.CreatedAt = time.Now()

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal audit details")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, user_name, user_role, module, action, details, ip_address, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.UserID, entry.UserName, entry.UserRole, entry.Module,
		entry.Action, details, entry.IPAddress, entry.Status, entry.CreatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("create audit log", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, module string, page, limit int) ([]*models.AuditLog, int, error) {
	where := ""
	args := []interface{}{limit, (page - 1) * limit}
	if module != "" {
		where = " WHERE module = $3"
		args = append(args, module)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, user_name, user_role, module, action, details, ip_address, status, created_at
		FROM audit_logs`+where+`
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError("list audit logs", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		var (
			entry   models.AuditLog
			details []byte
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.UserName, &entry.UserRole,
			&entry.Module, &entry.Action, &details, &entry.IPAddress, &entry.Status, &entry.CreatedAt); err != nil {
			return nil, 0, apperrors.NewDatabaseError("scan audit log", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &entry.Details)
		}
		logs = append(logs, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewDatabaseError("list audit logs", err)
	}

	countQuery := `SELECT COUNT(*) FROM audit_logs`
	countArgs := []interface{}{}
	if module != "" {
		countQuery += ` WHERE module = $1`
		countArgs = append(countArgs, module)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewDatabaseError("count audit logs", err)
	}

	return logs, total, nil
}
