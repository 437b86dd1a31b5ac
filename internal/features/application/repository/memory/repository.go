package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/application/models"
	"atmwater-backend/internal/features/application/repository"
)

// Store is an in-memory ApplicationRepository used by tests.
type Store struct {
	mu   sync.RWMutex
	apps map[string]*models.Application
}

func NewStore() *Store {
	return &Store{apps: make(map[string]*models.Application)}
}

var _ repository.ApplicationRepository = (*Store)(nil)

func (s *Store) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.apps {
		if existing.ApplicantID == app.ApplicantID && existing.Type == app.Type && existing.Status.Open() {
			return apperrors.NewConflictError("application", "you already have a pending application")
		}
	}

	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now
	s.apps[app.ID] = cloneApplication(app)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Application", id)
	}
	return cloneApplication(app), nil
}

func (s *Store) Update(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[app.ID]; !ok {
		return apperrors.NewNotFoundError("Application", app.ID)
	}
	app.UpdatedAt = time.Now()
	s.apps[app.ID] = cloneApplication(app)
	return nil
}

func (s *Store) HasOpen(_ context.Context, applicantID string, appType models.ApplicationType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, app := range s.apps {
		if app.ApplicantID == applicantID && app.Type == appType && app.Status.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListByApplicant(_ context.Context, applicantID string) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var apps []*models.Application
	for _, app := range s.apps {
		if app.ApplicantID == applicantID {
			apps = append(apps, cloneApplication(app))
		}
	}
	sortNewestFirst(apps)
	return apps, nil
}

func (s *Store) List(_ context.Context, filter models.ListFilter) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var apps []*models.Application
	for _, app := range s.apps {
		if filter.Type != nil && app.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		apps = append(apps, cloneApplication(app))
	}
	sortNewestFirst(apps)
	return apps, nil
}

func (s *Store) CountOpen(_ context.Context, types []models.ApplicationType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, app := range s.apps {
		if !app.Status.Open() {
			continue
		}
		if len(types) == 0 {
			count++
			continue
		}
		for _, t := range types {
			if app.Type == t {
				count++
				break
			}
		}
	}
	return count, nil
}

func cloneApplication(app *models.Application) *models.Application {
	clone := *app
	clone.Approvals = make(map[models.ApprovalTrack]models.Approval, len(app.Approvals))
	for track, approval := range app.Approvals {
		clone.Approvals[track] = approval
	}
	return &clone
}

func sortNewestFirst(apps []*models.Application) {
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
}
