package service

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/audit/models"
	"atmwater-backend/internal/features/audit/repository"
	usermodels "atmwater-backend/internal/features/user/models"
)

// Entry describes one privileged action to record.
type Entry struct {
	Actor     *usermodels.User
	Module    string
	Action    string
	Details   map[string]interface{}
	IPAddress string
	Status    models.LogStatus
}

type AuditService interface {
	// Record appends an entry to the trail. It never fails the calling
	// request: persistence errors are logged and swallowed.
	Record(ctx context.Context, entry Entry)

	List(ctx context.Context, module string, page, limit int) (*models.ListResult, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, entry Entry) {
	logEntry := &models.AuditLog{
		Module:    entry.Module,
		Action:    entry.Action,
		Details:   entry.Details,
		IPAddress: entry.IPAddress,
		Status:    entry.Status,
	}
	if entry.Actor != nil {
		logEntry.UserID = entry.Actor.ID
		logEntry.UserName = entry.Actor.Name
		logEntry.UserRole = entry.Actor.Role
	}

	if err := s.repo.Create(ctx, logEntry); err != nil {
		log.Error().Err(err).
			Str("module", entry.Module).
			Str("action", entry.Action).
			Msg("failed to record audit log")
	}
}

func (s *auditService) List(ctx context.Context, module string, page, limit int) (*models.ListResult, error) {
	if page < 1 {
		return nil, apperrors.NewValidationError("page", "must be >= 1")
	}
	if limit < 1 || limit > 100 {
		return nil, apperrors.NewValidationError("limit", "must be between 1 and 100")
	}

	logs, total, err := s.repo.List(ctx, module, page, limit)
	if err != nil {
		return nil, err
	}

	return &models.ListResult{
		Logs:  logs,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}
