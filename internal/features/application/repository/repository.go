package repository

import (
	"context"

	"atmwater-backend/internal/features/application/models"
)

// ApplicationRepository persists promotion applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	Update(ctx context.Context, app *models.Application) error

	// HasOpen reports whether the applicant already has a Pending or
	// Reviewing application of the given type.
	HasOpen(ctx context.Context, applicantID string, appType models.ApplicationType) (bool, error)

	ListByApplicant(ctx context.Context, applicantID string) ([]*models.Application, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Application, error)

	// CountOpen counts open applications restricted to the given types; an
	// empty slice counts all types.
	CountOpen(ctx context.Context, types []models.ApplicationType) (int, error)
}
