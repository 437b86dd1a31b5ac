package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/permission/models"
	"atmwater-backend/internal/features/permission/repository"
	usermodels "atmwater-backend/internal/features/user/models"
)

// Store is an in-memory PermissionRepository used by tests.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*models.Permission
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*models.Permission)}
}

var _ repository.PermissionRepository = (*Store)(nil)

func (s *Store) GetByKey(_ context.Context, functionKey string) (*models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perm, ok := s.entries[functionKey]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodePermissionNotDefined,
			"Permission for [%s] not defined", functionKey)
	}
	return clonePermission(perm), nil
}

func (s *Store) List(_ context.Context) ([]*models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perms := make([]*models.Permission, 0, len(s.entries))
	for _, p := range s.entries {
		perms = append(perms, clonePermission(p))
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].FunctionKey < perms[j].FunctionKey })
	return perms, nil
}

func (s *Store) Upsert(_ context.Context, entry *models.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.entries[entry.FunctionKey]; ok {
		if entry.Label != "" {
			existing.Label = entry.Label
		}
		existing.Permissions = cloneGrants(entry.Permissions)
		existing.UpdatedAt = now
		return nil
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now
	s.entries[entry.FunctionKey] = clonePermission(entry)
	return nil
}

func clonePermission(p *models.Permission) *models.Permission {
	clone := *p
	clone.Permissions = cloneGrants(p.Permissions)
	return &clone
}

func cloneGrants(grants map[usermodels.Role]bool) map[usermodels.Role]bool {
	out := make(map[usermodels.Role]bool, len(grants))
	for role, ok := range grants {
		out[role] = ok
	}
	return out
}
