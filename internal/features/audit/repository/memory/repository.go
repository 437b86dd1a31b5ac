package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"atmwater-backend/internal/features/audit/models"
	"atmwater-backend/internal/features/audit/repository"
)

// Store is an in-memory AuditRepository used by tests.
type Store struct {
	mu   sync.RWMutex
	logs []*models.AuditLog
}

func NewStore() *Store {
	return &Store{}
}

var _ repository.AuditRepository = (*Store)(nil)

func (s *Store) Create(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = models.StatusSuccess
	}
	entry.CreatedAt = time.Now()

	clone := *entry
	// Newest first, matching the Postgres ordering.
	s.logs = append([]*models.AuditLog{&clone}, s.logs...)
	return nil
}

func (s *Store) List(_ context.Context, module string, page, limit int) ([]*models.AuditLog, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []*models.AuditLog
	for _, entry := range s.logs {
		if module != "" && entry.Module != module {
			continue
		}
		clone := *entry
		filtered = append(filtered, &clone)
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}
