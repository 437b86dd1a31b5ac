package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/permission/models"
	"atmwater-backend/internal/features/permission/repository"
	usermodels "atmwater-backend/internal/features/user/models"
)

const cacheTTL = 30 * time.Second

// Cache is the subset of the cache service the permission matrix needs.
// A nil cache disables caching (tests, single-shot tools).
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidatePermissionCache(ctx context.Context) error
}

// PermissionService evaluates and maintains the dynamic permission matrix.
type PermissionService interface {
	// Check returns nil iff the role may perform functionKey. Super-Admin
	// passes unconditionally — a deliberate universal escape hatch, not a bug.
	// A missing matrix entry denies (default-deny), whatever the role.
	Check(ctx context.Context, role usermodels.Role, functionKey string) error

	List(ctx context.Context) ([]*models.Permission, error)
	Update(ctx context.Context, matrix []models.MatrixEntry) error
}

type permissionService struct {
	repo  repository.PermissionRepository
	cache Cache
}

func NewPermissionService(repo repository.PermissionRepository, cache Cache) PermissionService {
	return &permissionService{repo: repo, cache: cache}
}

func (s *permissionService) Check(ctx context.Context, role usermodels.Role, functionKey string) error {
	if role == usermodels.RoleSuperAdmin {
		log.Debug().Str("function_key", functionKey).Msg("permission check: Super-Admin bypass")
		return nil
	}

	if !role.Valid() {
		return apperrors.Newf(apperrors.ErrCodeForbidden,
			"User role [%s] is not authorized to perform: %s", role, functionKey)
	}

	perm, err := s.lookup(ctx, functionKey)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodePermissionNotDefined) {
			log.Warn().
				Str("function_key", functionKey).
				Str("role", string(role)).
				Msg("permission check denied: entry not defined")
			return err
		}
		return err
	}

	if !perm.Grants(role) {
		log.Info().
			Str("function_key", functionKey).
			Str("role", string(role)).
			Msg("permission check denied")
		return apperrors.Newf(apperrors.ErrCodeForbidden,
			"User role [%s] is not authorized to perform: %s", role, functionKey)
	}

	log.Debug().
		Str("function_key", functionKey).
		Str("role", string(role)).
		Msg("permission check allowed")
	return nil
}

func (s *permissionService) lookup(ctx context.Context, functionKey string) (*models.Permission, error) {
	cacheKey := "permission:" + functionKey

	if s.cache != nil {
		var cached models.Permission
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	perm, err := s.repo.GetByKey(ctx, functionKey)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, perm, cacheTTL); err != nil {
			log.Warn().Err(err).Str("function_key", functionKey).Msg("failed to cache permission entry")
		}
	}
	return perm, nil
}

func (s *permissionService) List(ctx context.Context) ([]*models.Permission, error) {
	return s.repo.List(ctx)
}

func (s *permissionService) Update(ctx context.Context, matrix []models.MatrixEntry) error {
	for _, item := range matrix {
		if item.FunctionKey == "" {
			return apperrors.NewValidationError("functionKey", "cannot be empty")
		}
		for role := range item.Permissions {
			if !role.Valid() {
				return apperrors.Newf(apperrors.ErrCodeInvalidRole, "Unknown role: %s", role)
			}
		}

		entry := &models.Permission{
			FunctionKey: item.FunctionKey,
			Label:       item.Label,
			Permissions: item.Permissions,
		}
		if err := s.repo.Upsert(ctx, entry); err != nil {
			return err
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidatePermissionCache(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate permission cache")
		}
	}

	log.Info().Int("entries", len(matrix)).Msg("permission matrix updated")
	return nil
}
