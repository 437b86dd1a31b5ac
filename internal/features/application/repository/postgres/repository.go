package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/application/models"
	"atmwater-backend/internal/features/application/repository"
)

const applicationColumns = `id, applicant_id, type, status, documents, approvals,
	assessment_notes, rejection_reason, created_at, updated_at`

type applicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) repository.ApplicationRepository {
	return &applicationRepository{pool: pool}
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	documents, err := json.Marshal(app.Documents)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal documents")
	}
	approvals, err := json.Marshal(app.Approvals)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal approvals")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO applications (id, applicant_id, type, status, documents, approvals, assessment_notes, rejection_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		app.ID, app.ApplicantID, app.Type, app.Status, documents, approvals,
		app.AssessmentNotes, app.RejectionReason, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Partial unique index on open applications.
			return apperrors.NewConflictError("application", "you already have a pending application")
		}
		return apperrors.NewDatabaseError("create application", err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Application", id)
		}
		return nil, apperrors.NewDatabaseError("get application", err)
	}
	return app, nil
}

func (r *applicationRepository) Update(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = time.Now()

	approvals, err := json.Marshal(app.Approvals)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal approvals")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE applications
		SET status = $2, approvals = $3, assessment_notes = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $1`,
		app.ID, app.Status, approvals, app.AssessmentNotes, app.RejectionReason, app.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("update application", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("Application", app.ID)
	}
	return nil
}

func (r *applicationRepository) HasOpen(ctx context.Context, applicantID string, appType models.ApplicationType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM applications
			WHERE applicant_id = $1 AND type = $2 AND status IN ('Pending', 'Reviewing')
		)`, applicantID, appType).Scan(&exists)
	if err != nil {
		return false, apperrors.NewDatabaseError("check open application", err)
	}
	return exists, nil
}

func (r *applicationRepository) ListByApplicant(ctx context.Context, applicantID string) ([]*models.Application, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE applicant_id = $1 ORDER BY created_at DESC`, applicantID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list applications", err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (r *applicationRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`
	args := []interface{}{}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += ` AND type = $1`
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		if len(args) == 1 {
			query += ` AND status = $1`
		} else {
			query += ` AND status = $2`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list applications", err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (r *applicationRepository) CountOpen(ctx context.Context, types []models.ApplicationType) (int, error) {
	query := `SELECT COUNT(*) FROM applications WHERE status IN ('Pending', 'Reviewing')`
	args := []interface{}{}
	if len(types) > 0 {
		query += ` AND type = ANY($1)`
		typeStrings := make([]string, 0, len(types))
		for _, t := range types {
			typeStrings = append(typeStrings, string(t))
		}
		args = append(args, typeStrings)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewDatabaseError("count open applications", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app       models.Application
		documents []byte
		approvals []byte
	)
	if err := row.Scan(&app.ID, &app.ApplicantID, &app.Type, &app.Status, &documents, &approvals,
		&app.AssessmentNotes, &app.RejectionReason, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	if len(documents) > 0 {
		if err := json.Unmarshal(documents, &app.Documents); err != nil {
			return nil, err
		}
	}
	app.Approvals = make(map[models.ApprovalTrack]models.Approval)
	if len(approvals) > 0 {
		if err := json.Unmarshal(approvals, &app.Approvals); err != nil {
			return nil, err
		}
	}
	return &app, nil
}

func collectApplications(rows pgx.Rows) ([]*models.Application, error) {
	var apps []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan application", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
